package scanner

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/ejagojo/shipsafe/pkg/rules"
)

// prefilter narrows the rule table to the rules whose keywords occur in
// a file. Rules without keywords always survive.
type prefilter struct {
	matcher *ahocorasick.Matcher
	// owners maps a dictionary index to the rule indexes using it.
	owners [][]int
	always []int
	total  int
}

// foldCase approximates the simple case folding used by (?i) closely
// enough for ASCII keywords: ToLower handles the Kelvin sign, and the
// long s folds to 's'.
var foldCase = strings.NewReplacer("ſ", "s")

func newPrefilter(table []rules.Rule) *prefilter {
	p := &prefilter{total: len(table)}

	index := make(map[string]int)
	var dict []string
	for i, r := range table {
		if len(r.Keywords) == 0 {
			p.always = append(p.always, i)
			continue
		}
		for _, k := range r.Keywords {
			k = strings.ToLower(k)
			at, ok := index[k]
			if !ok {
				at = len(dict)
				index[k] = at
				dict = append(dict, k)
				p.owners = append(p.owners, nil)
			}
			p.owners[at] = append(p.owners[at], i)
		}
	}
	if len(dict) > 0 {
		p.matcher = ahocorasick.NewStringMatcher(dict)
	}
	return p
}

// candidates returns a mask over the rule table: true means the rule
// may match somewhere in content.
func (p *prefilter) candidates(content string) []bool {
	active := make([]bool, p.total)
	for _, i := range p.always {
		active[i] = true
	}
	if p.matcher == nil {
		return active
	}

	folded := foldCase.Replace(strings.ToLower(content))
	for _, hit := range p.matcher.MatchThreadSafe([]byte(folded)) {
		for _, i := range p.owners[hit] {
			active[i] = true
		}
	}
	return active
}
