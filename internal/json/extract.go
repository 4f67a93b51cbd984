// Package json provides JSON extraction utilities for parsing LLM responses.
//
// Even in JSON mode, local models sometimes wrap the object in markdown
// fences or add a sentence before or after it. ExtractObject recovers the
// object in those cases.
package json

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractObject returns the first complete JSON object in response.
// It handles:
// 1. Pure JSON response - returns it trimmed
// 2. JSON wrapped in markdown code blocks (```json ... ```)
// 3. JSON object embedded in text - scans for a balanced object, honouring
//    braces inside string literals
func ExtractObject(response string) (string, error) {
	trimmed := stripMarkdownCodeBlocks(response)

	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	for start := strings.IndexByte(trimmed, '{'); start != -1; {
		if end := matchingBrace(trimmed, start); end != -1 {
			candidate := trimmed[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
		next := strings.IndexByte(trimmed[start+1:], '{')
		if next == -1 {
			break
		}
		start += next + 1
	}

	return "", fmt.Errorf("failed to extract valid JSON from response: %q", preview(response))
}

// matchingBrace returns the index of the brace closing the one at start,
// or -1 when the object is unterminated.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripMarkdownCodeBlocks removes markdown code block markers from a response.
// Handles patterns like ```json\n...\n``` or ```\n...\n```
func stripMarkdownCodeBlocks(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```json"))
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}

	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}

	return trimmed
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) > 100 {
		return string(runes[:100]) + "..."
	}
	return s
}
