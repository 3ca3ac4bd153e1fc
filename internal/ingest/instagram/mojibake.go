package instagram

import "unicode/utf8"

// FixMojibake repairs Meta's broken export encoding: UTF-8 text written out
// as if it were ISO-8859-1, leaving each UTF-8 byte as its own codepoint
// ("Привет" arrives as "ÐŸÑ€Ð¸Ð²ÐµÑ‚"). Reinterpreting each codepoint as a
// byte reconstructs the original text. Strings that do not round-trip to
// valid UTF-8 are returned unchanged.
func FixMojibake(s string) string {
	// ASCII cannot be mojibake
	if isASCII(s) {
		return s
	}
	b := make([]byte, 0, len(s))
	for _, r := range s {
		b = append(b, byte(r))
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return s
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
