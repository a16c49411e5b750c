package llm

import (
	"encoding/json"
	"log"
	"strings"
)

// ParseJSONResponse decodes a JSON object from model output. Models
// routinely wrap JSON in a markdown code fence; the fence is stripped
// before decoding. Returns nil when no object can be decoded.
func ParseJSONResponse(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "```") {
		// Drop the opening fence line ("```" or "```json") and any
		// closing fence.
		if _, rest, ok := strings.Cut(text, "\n"); ok {
			text = rest
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &result); err != nil {
		log.Printf("LLM response is not valid JSON: %v", err)
		return nil
	}
	return result
}
