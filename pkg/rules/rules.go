package rules

import (
	"fmt"
	"regexp"
)

// Rule is one entry of the pattern table.
type Rule struct {
	Name      string
	Pattern   *regexp.Regexp
	Rationale string
	// Keywords are lower-case literals, one of which appears in every
	// line the pattern can match. Empty means the rule is always run.
	Keywords []string
}

type builtin struct {
	name      string
	pattern   string
	rationale string
	keywords  []string
}

// builtins is evaluated in order against every line.
var builtins = []builtin{
	{
		name:      "OpenAI API Key",
		pattern:   `sk-[a-zA-Z0-9]{20,}`,
		rationale: "OpenAI keys start with 'sk-'. If exposed, attackers can make API calls on your account.",
		keywords:  []string{"sk-"},
	},
	{
		name:      "API Key Assignment",
		pattern:   `["']?api[_-]?key["']?\s*[:=]\s*["'][a-zA-Z0-9_\-]{16,}["']`,
		rationale: "Hardcoded API keys should be moved to environment variables.",
		keywords:  []string{"api_key", "api-key", "apikey"},
	},
	{
		name:      "AWS Access Key",
		pattern:   `AKIA[0-9A-Z]{16}`,
		rationale: "AWS Access Key IDs start with 'AKIA'. Leaked AWS keys can drain your account.",
		keywords:  []string{"akia"},
	},
	{
		name:      "AWS Secret Key",
		pattern:   `["']?aws[_-]?secret[_-]?access[_-]?key["']?\s*[:=]\s*["'][A-Za-z0-9/+=]{40}["']`,
		rationale: "AWS Secret Keys should NEVER be in code.",
		keywords:  []string{"aws"},
	},
	{
		name:      "Database URL",
		pattern:   `(mysql|postgres|postgresql|mongodb|redis)://[^\s"']+:[^\s"']+@`,
		rationale: "Database connection strings with embedded passwords are high-risk.",
		keywords:  []string{"://"},
	},
	{
		name:      "Password Assignment",
		pattern:   `["']?password["']?\s*[:=]\s*["'][^"']{4,}["']`,
		rationale: "Hardcoded passwords are a critical security issue.",
		keywords:  []string{"password"},
	},
	{
		name:      "Private Key",
		pattern:   `-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`,
		rationale: "Private keys should NEVER be committed to git.",
		keywords:  []string{"private key-----"},
	},
	{
		name:      "JWT Secret",
		pattern:   `["']?jwt[_-]?secret["']?\s*[:=]\s*["'][^"']{8,}["']`,
		rationale: "JWT secrets allow forging authentication tokens if exposed.",
		keywords:  []string{"jwt"},
	},
	{
		name:      "Stripe Secret Key",
		pattern:   `sk_live_[a-zA-Z0-9]{24,}`,
		rationale: "Stripe live keys can process real payments. Test keys (sk_test_) are less critical.",
		keywords:  []string{"sk_live_"},
	},
	{
		name:      "GitHub Token",
		pattern:   `ghp_[a-zA-Z0-9]{36}`,
		rationale: "GitHub Personal Access Tokens can access your repos and organizations.",
		keywords:  []string{"ghp_"},
	},
	{
		name:      "GitHub OAuth",
		pattern:   `gho_[a-zA-Z0-9]{36}`,
		rationale: "GitHub OAuth tokens should not be in source code.",
		keywords:  []string{"gho_"},
	},
	{
		name:      "Secret Assignment",
		pattern:   `["']?secret["']?\s*[:=]\s*["'][^"']{8,}["']`,
		rationale: "Generic 'secret' assignments should be moved to environment variables.",
		keywords:  []string{"secret"},
	},
	{
		name:      "Bearer Token",
		pattern:   `["']Bearer\s+[a-zA-Z0-9_\-.]{20,}["']`,
		rationale: "Hardcoded bearer tokens are authentication credentials.",
		keywords:  []string{"bearer"},
	},
	{
		name:      "Supabase Service Key",
		pattern:   `eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`,
		rationale: "Supabase service role keys bypass RLS. Only use them server-side.",
		keywords:  []string{"eyjhbgcioijiuzi1niisinr5cci6ikpxvcj9."},
	},
}

var defaultRules = mustCompileBuiltins()

func mustCompileBuiltins() []Rule {
	out := make([]Rule, 0, len(builtins))
	for _, b := range builtins {
		re, err := compilePattern(b.pattern)
		if err != nil {
			panic(fmt.Sprintf("rules: builtin %q: %v", b.name, err))
		}
		out = append(out, Rule{
			Name:      b.name,
			Pattern:   re,
			Rationale: b.rationale,
			Keywords:  b.keywords,
		})
	}
	return out
}

// DefaultRules returns a copy of the built-in pattern table.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Merge appends extra after base. Names must stay unique.
func Merge(base, extra []Rule) ([]Rule, error) {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]Rule, 0, len(base)+len(extra))
	for _, r := range append(append([]Rule(nil), base...), extra...) {
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate rule name: %s", r.Name)
		}
		seen[r.Name] = true
		out = append(out, r)
	}
	return out, nil
}

// compilePattern compiles a pattern case-insensitively.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}
