package mrz

// ICAO 9303 check digit: weighted sum over the mapped character values with
// repeating weights 7, 3, 1, mod 10. Digits map to themselves, A-Z to 10-35,
// the filler '<' to 0.

var weights = [3]int{7, 3, 1}

func charValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10, true
	case c == '<':
		return 0, true
	default:
		return 0, false
	}
}

// checkDigit computes the check digit for s, or -1 when s contains a
// character outside the MRZ alphabet.
func checkDigit(s string) int {
	sum := 0
	for i := 0; i < len(s); i++ {
		v, ok := charValue(s[i])
		if !ok {
			return -1
		}
		sum += v * weights[i%3]
	}
	return sum % 10
}

// verify reports whether the check digit character d validates field s.
// A '<' digit is accepted for an all-filler field (unused optional fields
// carry '<' in the check position).
func verify(s string, d byte) bool {
	if d == '<' {
		for i := 0; i < len(s); i++ {
			if s[i] != '<' {
				return false
			}
		}
		return true
	}
	if d < '0' || d > '9' {
		return false
	}
	cd := checkDigit(s)
	return cd >= 0 && cd == int(d-'0')
}
