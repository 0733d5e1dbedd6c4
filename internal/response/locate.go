package response

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// locate returns the first brace-balanced region of raw that decodes as JSON.
// Prose and code fences around the object are ignored.
// Braces inside string literals are ignored while balancing.
func locate(raw string) (string, any, error) {
	var lastErr error
	var lastFragment string

	start := strings.IndexByte(raw, '{')
	for start >= 0 {
		end := matchBrace(raw, start)
		if end < 0 {
			start = nextBrace(raw, start)
			continue
		}

		fragment := raw[start : end+1]
		value, err := jsonschema.UnmarshalJSON(strings.NewReader(fragment))
		if err == nil {
			return fragment, value, nil
		}
		lastErr, lastFragment = err, fragment
		// Nested objects of a malformed region are not candidates.
		start = nextBrace(raw, end)
	}

	if lastErr != nil {
		return "", nil, &MalformedJSONError{Fragment: lastFragment, Err: lastErr}
	}
	return "", nil, &NoJSONFoundError{Raw: raw}
}

func nextBrace(raw string, after int) int {
	next := strings.IndexByte(raw[after+1:], '{')
	if next < 0 {
		return -1
	}
	return after + 1 + next
}

// matchBrace returns the index of the brace closing raw[start], or -1.
func matchBrace(raw string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]
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
