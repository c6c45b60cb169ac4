package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/felixgeelhaar/goap-go/domain/config"
)

// envPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
// Bare $VAR is left alone so expressions containing '$' survive.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*|:\?[^}]*)?\}`)

// envExpander expands environment variables in configuration text.
type envExpander struct {
	// strict fails if a referenced variable without default is not set.
	strict  bool
	missing []string
}

// Expand expands environment variables in the input string.
func (e *envExpander) Expand(input string) (string, error) {
	e.missing = nil

	result := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envPattern.FindStringSubmatch(match)
		name, modifier := groups[1], groups[2]
		value, exists := os.LookupEnv(name)

		switch {
		case strings.HasPrefix(modifier, ":-"):
			if !exists || value == "" {
				return modifier[2:]
			}
		case strings.HasPrefix(modifier, ":?"):
			if !exists || value == "" {
				e.missing = append(e.missing, fmt.Sprintf("%s: %s", name, modifier[2:]))
				return match
			}
		case !exists:
			if e.strict {
				e.missing = append(e.missing, name)
			}
			return ""
		}
		return value
	})

	if len(e.missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(e.missing, ", "))
	}
	return result, nil
}

// ExpandEnv expands environment variables, replacing unset ones with "".
// Required variables (${VAR:?msg}) that are unset are left unexpanded.
func ExpandEnv(input string) string {
	e := &envExpander{}
	result, err := e.Expand(input)
	if err != nil {
		return input
	}
	return result
}

// ExpandEnvStrict expands environment variables and returns an error for
// missing ones.
func ExpandEnvStrict(input string) (string, error) {
	e := &envExpander{strict: true}
	return e.Expand(input)
}
