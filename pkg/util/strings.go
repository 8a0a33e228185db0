package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// NormalizeTickers upper-cases, trims and de-duplicates symbols, keeping the
// first occurrence order. Items may themselves be comma separated.
func NormalizeTickers(items ...string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			t := strings.ToUpper(strings.TrimSpace(part))
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
