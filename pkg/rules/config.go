package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleConfig defines a rule in a configuration file
type RuleConfig struct {
	Name      string   `yaml:"name"`
	Pattern   string   `yaml:"pattern"`
	Rationale string   `yaml:"rationale"`
	Keywords  []string `yaml:"keywords,omitempty"`
}

// File is a standalone rules file
type File struct {
	Rules []RuleConfig `yaml:"rules"`
}

// LoadFile loads rule definitions from a YAML file
func LoadFile(path string) ([]RuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	return f.Rules, nil
}

// Compile turns rule configs into rules, in the order given.
func Compile(cfgs []RuleConfig) ([]Rule, error) {
	out := make([]Rule, 0, len(cfgs))
	seen := make(map[string]bool, len(cfgs))
	for i, c := range cfgs {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("rule %d: missing name", i)
		}
		if c.Pattern == "" {
			return nil, fmt.Errorf("rule %q: missing pattern", c.Name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate rule name: %s", c.Name)
		}
		seen[c.Name] = true

		re, err := compilePattern(c.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: invalid pattern: %w", c.Name, err)
		}

		var keywords []string
		for _, k := range c.Keywords {
			if k = strings.ToLower(k); k != "" {
				keywords = append(keywords, k)
			}
		}

		out = append(out, Rule{
			Name:      c.Name,
			Pattern:   re,
			Rationale: c.Rationale,
			Keywords:  keywords,
		})
	}
	return out, nil
}
