package config

import (
	"errors"
	"testing"

	domainconfig "github.com/felixgeelhaar/goap-go/domain/config"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("GOAP_TEST_VAR", "hello")
	t.Setenv("GOAP_EMPTY_VAR", "")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bracket syntax", "${GOAP_TEST_VAR}", "hello"},
		{"embedded in text", "prefix-${GOAP_TEST_VAR}-suffix", "prefix-hello-suffix"},
		{"multiple variables", "${GOAP_TEST_VAR} ${GOAP_TEST_VAR}", "hello hello"},
		{"unset with default", "${GOAP_UNSET_VAR:-fallback}", "fallback"},
		{"empty with default", "${GOAP_EMPTY_VAR:-fallback}", "fallback"},
		{"set with default", "${GOAP_TEST_VAR:-fallback}", "hello"},
		{"default with colon", "${GOAP_UNSET_VAR:-localhost:6379}", "localhost:6379"},
		{"unset without default", "${GOAP_UNSET_VAR}", ""},
		{"bare dollar untouched", "$GOAP_TEST_VAR costs $100", "$GOAP_TEST_VAR costs $100"},
		{"incomplete syntax", "${incomplete", "${incomplete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExpandEnvStrict(t *testing.T) {
	t.Run("missing variable", func(t *testing.T) {
		_, err := ExpandEnvStrict("${GOAP_MISSING_VAR}")
		if !errors.Is(err, domainconfig.ErrMissingEnvVar) {
			t.Errorf("ExpandEnvStrict() error = %v, want ErrMissingEnvVar", err)
		}
	})

	t.Run("required variable", func(t *testing.T) {
		_, err := ExpandEnvStrict("${GOAP_MISSING_VAR:?redis address}")
		if !errors.Is(err, domainconfig.ErrMissingEnvVar) {
			t.Errorf("ExpandEnvStrict() error = %v, want ErrMissingEnvVar", err)
		}
	})

	t.Run("default satisfies strict mode", func(t *testing.T) {
		got, err := ExpandEnvStrict("${GOAP_MISSING_VAR:-ok}")
		if err != nil || got != "ok" {
			t.Errorf("ExpandEnvStrict() = %q, %v, want ok", got, err)
		}
	})

	t.Run("non-strict keeps required placeholder", func(t *testing.T) {
		in := "${GOAP_MISSING_VAR:?needed}"
		if got := ExpandEnv(in); got != in {
			t.Errorf("ExpandEnv(%q) = %q, want unchanged", in, got)
		}
	})
}
