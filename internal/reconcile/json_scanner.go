package reconcile

// findJSONCandidates scans the input for top-level brace-delimited spans.
// It returns each potential JSON object as a string, in order of
// appearance, handling nested braces and string escaping so that a "}"
// inside a quoted value does not terminate a span.
//
// A byte-level state machine is used rather than regex extraction; it is
// safe to iterate bytes for the ASCII delimiters ({, }, ", \) because
// UTF-8 guarantees ASCII bytes never occur inside a multi-byte sequence.
func findJSONCandidates(s string) []string {
	var candidates []string
	var depth int
	start := -1
	var inString, escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}

	return candidates
}
