// Package jsonutil extracts and parses JSON objects from model responses
// that embed them in prose or markdown.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractObject returns the substring from the first '{' to the last '}'
// of text. The model is asked for a single JSON object, so a greedy span is
// the right match; nested objects stay intact.
func ExtractObject(text string) (string, error) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return "", fmt.Errorf("no closing } found in response")
	}
	return text[start : end+1], nil
}

// ParseObject extracts the JSON object embedded in raw and unmarshals it
// into T. The error includes a truncated preview of the offending text.
func ParseObject[T any](raw string) (T, error) {
	var result T

	jsonStr, err := ExtractObject(raw)
	if err != nil {
		return result, fmt.Errorf("%w (response length: %d)", err, len(raw))
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		preview := jsonStr
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		var zero T
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview)
	}
	return result, nil
}
