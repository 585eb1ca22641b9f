package common

import "strings"

// ContainsAny returns true if s contains any of the non-empty substrings.
func ContainsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub == "" {
			continue
		}
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
