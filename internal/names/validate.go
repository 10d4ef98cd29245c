package names

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLength bounds a suggested layer name, in runes.
const MaxNameLength = 120

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`forget\s+(everything|all)|new\s+instructions)`,
)

// ValidateName trims quotes and whitespace from a suggested name and reports
// whether it is usable.
func ValidateName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	name = strings.TrimSpace(strings.Trim(name, `"'`))
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxNameLength {
		return "", false
	}
	if strings.ContainsAny(name, "\n\r") {
		return "", false
	}
	if injectionPattern.MatchString(name) {
		return "", false
	}
	return name, true
}
