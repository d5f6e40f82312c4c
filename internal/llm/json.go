package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseObject decodes a model response into a JSON object. Models wrap
// JSON in prose or code fences despite the instruction contract, so on a
// direct parse failure the raw text is re-scanned for the first balanced
// {...} span and that span is parsed instead.
func ParseObject(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return obj, nil
	}

	span := firstObject(raw)
	if span == "" {
		return nil, fmt.Errorf("no JSON object found in model response")
	}

	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil, fmt.Errorf("parse salvaged JSON object: %w", err)
	}

	return obj, nil
}

// firstObject returns the first balanced top-level {...} span, tracking
// string literals and escapes so braces inside values do not miscount.
func firstObject(raw string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range raw {
		if escaped {
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if inString {
				continue
			}
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if inString || depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}

	return ""
}
