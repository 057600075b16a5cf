package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var refPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expand replaces ${NAME} references using lookup. "$$" is a literal "$".
// Bare $NAME is left alone.
func expand(s string, lookup func(string) (string, bool)) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	var missing []string
	parts := strings.Split(s, "$$")
	for i, part := range parts {
		parts[i] = refPattern.ReplaceAllStringFunc(part, func(ref string) string {
			name := refPattern.FindStringSubmatch(ref)[1]
			v, ok := lookup(name)
			if !ok {
				if !slices.Contains(missing, name) {
					missing = append(missing, name)
				}
				return ""
			}
			return v
		})
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return strings.Join(parts, "$"), nil
}
