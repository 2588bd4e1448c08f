package metadata

import "strings"

// defaultTools are matched case-insensitively against every collected value.
var defaultTools = []string{
	"photoshop",
	"gimp",
	"canva",
	"dall-e",
	"dall·e",
	"midjourney",
	"stable diffusion",
	"stablediffusion",
	"comfyui",
	"automatic1111",
	"novelai",
	"firefly",
	"faceapp",
	"facetune",
}

// DefaultTools returns a copy of the built-in denylist.
func DefaultTools() []string {
	return append([]string(nil), defaultTools...)
}

func mergeTools(extra []string) []string {
	seen := make(map[string]struct{}, len(defaultTools)+len(extra))
	out := make([]string, 0, len(defaultTools)+len(extra))
	for _, tool := range append(DefaultTools(), extra...) {
		tool = strings.ToLower(strings.TrimSpace(tool))
		if tool == "" {
			continue
		}
		if _, ok := seen[tool]; ok {
			continue
		}
		seen[tool] = struct{}{}
		out = append(out, tool)
	}
	return out
}

// match returns every tool that appears in value.
func match(tools []string, value string) []string {
	lowered := strings.ToLower(value)
	var hits []string
	for _, tool := range tools {
		if strings.Contains(lowered, tool) {
			hits = append(hits, tool)
		}
	}
	return hits
}
