package types

import "fmt"

// SectionType shapes one generated documentation field.
type SectionType string

const (
	// SectionShortText is a brief string, optionally capped by MaxChars.
	SectionShortText SectionType = "short_text"
	// SectionMarkdown is longer prose where markdown formatting is allowed.
	SectionMarkdown SectionType = "markdown"
	// SectionList is an array of items; ItemType hints the item kind.
	SectionList SectionType = "list"
)

// SectionSpec describes one output field requested from the section
// generator. The ID becomes the key of that field in the response object.
type SectionSpec struct {
	ID         string      `json:"id"`
	Label      string      `json:"label,omitempty"`
	Type       SectionType `json:"type,omitempty"`
	Required   bool        `json:"required,omitempty"`
	MaxChars   int         `json:"max_chars,omitempty"`
	ItemType   string      `json:"item_type,omitempty"`
	PromptHint string      `json:"prompt_hint,omitempty"`
}

// Validate checks the spec is usable. An empty Type defaults to markdown at
// generation time, so only the ID and a recognized Type are enforced here.
func (s SectionSpec) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: section id is required", ErrInvalidInput)
	}
	switch s.Type {
	case "", SectionShortText, SectionMarkdown, SectionList:
		return nil
	default:
		return fmt.Errorf("%w: unknown section type %q", ErrInvalidInput, s.Type)
	}
}

// Constraints carries style hints passed through to the section generator.
type Constraints struct {
	Audience     string `json:"audience,omitempty"`
	Tone         string `json:"tone,omitempty"`
	ReadingLevel string `json:"reading_level,omitempty"`
	MaxTokens    int    `json:"max_tokens,omitempty"`
}
