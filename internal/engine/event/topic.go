package event

import (
	"slices"
	"strings"
)

// Topic names an event, such as "document.changed". Subscription patterns
// are topics that may use "*" for exactly one dot-separated part and "**"
// for any number of parts, including none.
type Topic string

// IsValid reports whether t has no empty parts.
func (t Topic) IsValid() bool {
	return t != "" && !slices.Contains(strings.Split(string(t), "."), "")
}

// IsWildcard reports whether t can only be used as a pattern.
func (t Topic) IsWildcard() bool {
	return strings.Contains(string(t), "*")
}

// Matches reports whether t is one of the topics pattern selects.
func (t Topic) Matches(pattern Topic) bool {
	return match(strings.Split(string(t), "."), strings.Split(string(pattern), "."))
}

func match(parts, pattern []string) bool {
	for len(pattern) > 0 {
		head := pattern[0]
		pattern = pattern[1:]
		if head == "**" {
			for skip := 0; skip <= len(parts); skip++ {
				if match(parts[skip:], pattern) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 || (head != "*" && head != parts[0]) {
			return false
		}
		parts = parts[1:]
	}
	return len(parts) == 0
}
