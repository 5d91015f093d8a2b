package utils

import (
	"fmt"
	"strings"
)

// ExtractJSONObject returns the first top-level JSON object embedded in text.
// Reasoning models frequently wrap structured output in markdown code fences
// or prose; this strips fences and scans for a balanced {...} block, honoring
// string literals and escapes.
func ExtractJSONObject(text string) (string, error) {
	cleaned := strings.TrimSpace(text)

	// Strip markdown code fences if present.
	if strings.HasPrefix(cleaned, "```") {
		if idx := strings.Index(cleaned, "\n"); idx >= 0 {
			cleaned = cleaned[idx+1:]
		}
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.Index(cleaned, "{")
	if start < 0 {
		return "", fmt.Errorf("no JSON object found in text")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// Skip structural characters inside strings.
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return cleaned[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object in text")
}
