package sections

import (
	"context"
	"fmt"

	"github.com/docsmithlabs/docsmith/pkg/types"
)

// StaticProvider is a deterministic offline generator used when no API key
// is configured, and by tests. It fills every requested section with a
// placeholder derived from the request so output is stable across runs.
type StaticProvider struct {
	cache *Cache
}

// NewStaticProvider creates an offline section generator.
func NewStaticProvider(cache *Cache) (*StaticProvider, error) {
	return &StaticProvider{cache: cache}, nil
}

func (s *StaticProvider) GenerateSections(ctx context.Context, req Request) (map[string]any, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ComputeHash(req)
	if s.cache != nil {
		if result, ok := s.cache.Get(hash); ok {
			return result, nil
		}
	}

	result := make(map[string]any, len(req.Sections))
	for _, spec := range req.Sections {
		if spec.Type == types.SectionList {
			result[spec.ID] = []any{}
			continue
		}
		result[spec.ID] = fmt.Sprintf("%s placeholder for %d-byte bundle", spec.ID, len(req.Bundle))
	}
	result = shapeResult(result, req.Sections)

	if s.cache != nil {
		s.cache.Set(hash, result)
	}
	return result, nil
}

func (s *StaticProvider) Provider() string {
	return ProviderStatic
}

func (s *StaticProvider) Model() string {
	return "static-sections"
}

func (s *StaticProvider) Close() error {
	return nil
}
