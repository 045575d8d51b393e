// Package sections turns a concatenated source bundle into structured
// documentation sections via an LLM provider.
//
// A caller describes the desired output as a list of SectionSpec values,
// each naming a key, a type (short_text, markdown, or list), and optional
// constraints such as a character cap. The generator returns a
// map[string]any whose keys exactly match the requested ids: extra keys
// from the model are dropped, missing keys are filled with empty values,
// and short_text values are truncated to their cap.
//
// Two providers are available. GroqProvider calls the Groq chat
// completions API in JSON mode, walking an ordered model fallback list
// with exponential-backoff retries per model. StaticProvider is a
// deterministic offline stand-in used when no API key is configured and
// by tests. Results are cached by a hash of the bundle, schema, and
// constraints, so repeated calls over identical input are free.
//
// Usage:
//
//	gen, err := sections.NewFromEnv()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer gen.Close()
//
//	out, err := gen.GenerateSections(ctx, sections.Request{
//		Bundle: bundle,
//		Sections: []types.SectionSpec{
//			{ID: "overview", Type: types.SectionMarkdown},
//			{ID: "tagline", Type: types.SectionShortText, MaxChars: 80},
//		},
//	})
package sections
