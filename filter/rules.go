// Package filter post-processes exported network logs: a file-to-file batch
// transform that keeps the requests relevant to login and data-retrieval
// flows and drops static-asset noise.
package filter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules controls which captured entries survive filtering.
type Rules struct {
	// ExcludedExtensions drops requests whose URL path ends in one of these.
	ExcludedExtensions []string `yaml:"excluded_extensions"`
	// IncludedKeywords keeps requests whose URL contains one of these,
	// before extension exclusion applies.
	IncludedKeywords []string `yaml:"included_keywords"`
	// InvalidSchemes drops embedded or script URLs outright.
	InvalidSchemes []string `yaml:"invalid_schemes"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		ExcludedExtensions: []string{
			".js", ".css", ".jsp", ".png", ".jpg", ".jpeg",
			".gif", ".svg", ".ico", ".woff", ".woff2", ".ttf", ".eot",
		},
		IncludedKeywords: []string{
			"retrieve",
			"api",
			"jcaptcha.jpg",
		},
		InvalidSchemes: []string{"data:", "blob:", "javascript:", "http:", "localhost:"},
	}
}

// LoadRules reads a YAML rule file, falling back to defaults for fields the
// file leaves empty. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules: %w", err)
	}
	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}
	if len(loaded.ExcludedExtensions) > 0 {
		rules.ExcludedExtensions = loaded.ExcludedExtensions
	}
	if len(loaded.IncludedKeywords) > 0 {
		rules.IncludedKeywords = loaded.IncludedKeywords
	}
	if len(loaded.InvalidSchemes) > 0 {
		rules.InvalidSchemes = loaded.InvalidSchemes
	}
	return rules, nil
}
