package bbs

import "strconv"

// IsKiriban reports whether a visit count is a milestone worth celebrating:
// a positive multiple of 1000 or 100, or a repdigit of at least two digits
// (e.g. 7777).
func IsKiriban(n int64) bool {
	if n <= 0 {
		return false
	}
	if n%1000 == 0 || n%100 == 0 {
		return true
	}
	s := strconv.FormatInt(n, 10)
	if len(s) < 2 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
