// Package stack turns free-form technology descriptions into the four
// canonical tech stack categories.
package stack

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/fuzzy"
)

// DefaultThreshold is the minimum token-set score for a fuzzy vocabulary hit.
const DefaultThreshold = 92.0

var (
	freeTextSplit = regexp.MustCompile(`[;,/|]+|\s{2,}`)
	listSplit     = regexp.MustCompile(`[;,]`)
)

// Classifier maps tokens onto the vocabulary. It never fails: unknown tokens
// are dropped.
type Classifier struct {
	vocab     *Vocabulary
	threshold float64
}

// NewClassifier returns a classifier over the built-in vocabulary. A
// threshold <= 0 selects DefaultThreshold.
func NewClassifier(threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Classifier{vocab: DefaultVocabulary(), threshold: threshold}
}

// Match resolves one token: stoplist, exact name, alias, then fuzzy.
func (c *Classifier) Match(token string) (Entry, bool) {
	low := strings.ToLower(strings.TrimSpace(token))
	if low == "" {
		return Entry{}, false
	}
	if _, stop := nonTech[low]; stop {
		return Entry{}, false
	}
	if e, ok := c.vocab.index[low]; ok {
		return e, true
	}
	if e, ok := c.vocab.aliases[low]; ok {
		return e, true
	}

	best, ok := fuzzy.ExtractOne(low, c.vocab.keys, fuzzy.TokenSetRatio, c.threshold)
	if !ok {
		return Entry{}, false
	}
	return c.vocab.index[best.Choice], true
}

type buckets map[Category][]string

func (b buckets) add(e Entry) {
	for _, existing := range b[e.Category] {
		if existing == e.Name {
			return
		}
	}
	b[e.Category] = append(b[e.Category], e.Name)
}

func (b buckets) empty() bool {
	for _, cat := range Categories {
		if len(b[cat]) > 0 {
			return false
		}
	}
	return true
}

func (b buckets) stack() *candidate.TechStack {
	list := func(cat Category) []string {
		if b[cat] == nil {
			return []string{}
		}
		return b[cat]
	}
	return &candidate.TechStack{
		Languages:  list(Languages),
		Frameworks: list(Frameworks),
		Databases:  list(Databases),
		Tools:      list(Tools),
	}
}

// Classify parses text as a JSON object, then as labeled lines, then as free
// text. The first strategy producing at least one item wins. The result is
// never nil; all categories may be empty.
func (c *Classifier) Classify(text string) *candidate.TechStack {
	if b, ok := c.fromJSON(text); ok {
		return b.stack()
	}
	if b, ok := c.fromLabels(text); ok {
		return b.stack()
	}
	return c.fromFreeText(text).stack()
}

func (c *Classifier) fromJSON(text string) (buckets, bool) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &doc); err != nil {
		return nil, false
	}

	b := buckets{}
	for _, cat := range Categories {
		items, _ := doc[string(cat)].([]any)
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if e, ok := c.Match(s); ok && e.Category == cat {
				b.add(e)
			}
		}
	}
	return b, !b.empty()
}

func (c *Classifier) fromLabels(text string) (buckets, bool) {
	b := buckets{}
	labeled := false

	for _, line := range strings.Split(text, "\n") {
		key, val, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		cat := Category(strings.ToLower(strings.TrimSpace(key)))
		if _, ok := known[cat]; !ok {
			continue
		}
		labeled = true

		for _, token := range listSplit.Split(val, -1) {
			if e, ok := c.Match(token); ok && e.Category == cat {
				b.add(e)
			}
		}
	}
	return b, labeled && !b.empty()
}

func (c *Classifier) fromFreeText(text string) buckets {
	b := buckets{}
	for _, token := range freeTextSplit.Split(text, -1) {
		if e, ok := c.Match(token); ok {
			b.add(e)
		}
	}
	return b
}
