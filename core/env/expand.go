package env

import "regexp"

var envRegex = regexp.MustCompile(`\$[\p{L}\p{N}_]+`)

// LookupFunc resolves a variable name.
type LookupFunc func(name string) (string, bool)

// Expand replaces every $NAME in s, where NAME is the longest run of Unicode
// letters, digits and underscores after the '$'. Unset variables become the
// empty string. A '$' with no name after it is kept. Substituted values are
// not expanded again.
func Expand(s string, lookup LookupFunc) string {
	return envRegex.ReplaceAllStringFunc(s, func(ref string) string {
		val, _ := lookup(ref[1:])
		return val
	})
}
