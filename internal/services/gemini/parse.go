package gemini

import (
	"encoding/json"
	"strings"

	"reelingest/internal/records"
)

type metadataPayload struct {
	Author      string   `json:"author"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

type analysisPayload struct {
	Transcript    string          `json:"transcript"`
	Hook          string          `json:"hook"`
	Bridge        string          `json:"bridge"`
	Nugget        string          `json:"nugget"`
	CTA           string          `json:"callToAction"`
	VisualContext string          `json:"visualContext"`
	Metadata      metadataPayload `json:"contentMetadata"`
}

// parseAnalysis extracts structured output from a model response. Responses
// arrive as bare JSON, fenced JSON, or free text; a response that defeats all
// parsing degrades to a raw transcript with empty components rather than an
// error.
func parseAnalysis(response string) Analysis {
	raw := strings.TrimSpace(response)
	analysis := Analysis{Raw: raw}

	candidate := raw
	if fenced := stripCodeFence(candidate); fenced != "" {
		candidate = fenced
	}
	if candidate == "" || candidate[0] != '{' {
		if extracted := extractObjectSpan(candidate); extracted != "" {
			candidate = extracted
		}
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil || strings.TrimSpace(payload.Transcript) == "" {
		analysis.Transcript = raw
		return analysis
	}

	analysis.Transcript = strings.TrimSpace(payload.Transcript)
	analysis.Components = records.Components{
		Hook:         strings.TrimSpace(payload.Hook),
		Bridge:       strings.TrimSpace(payload.Bridge),
		Nugget:       strings.TrimSpace(payload.Nugget),
		CallToAction: strings.TrimSpace(payload.CTA),
	}
	analysis.VisualContext = strings.TrimSpace(payload.VisualContext)
	analysis.Metadata = ContentMetadata{
		Author:      strings.TrimSpace(payload.Metadata.Author),
		Description: strings.TrimSpace(payload.Metadata.Description),
		Hashtags:    cleanHashtags(payload.Metadata.Hashtags),
	}
	return analysis
}

// cleanHashtags normalizes model-reported hashtags, dropping blanks and any
// leading # the model kept despite the prompt.
func cleanHashtags(tags []string) []string {
	var cleaned []string
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag == "" {
			continue
		}
		cleaned = append(cleaned, tag)
	}
	return cleaned
}

// stripCodeFence unwraps a ```json ... ``` block, returning "" when the
// input is not fenced.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line.
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// extractObjectSpan pulls the outermost {...} span out of surrounding prose.
func extractObjectSpan(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(content[start : end+1])
}
