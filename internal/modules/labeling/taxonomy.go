package labeling

import (
	"strings"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
)

// TaxonomyPair is one (intent, sub-intent) row of the taxonomy feed.
type TaxonomyPair struct {
	Intent    string `json:"intent"`
	SubIntent string `json:"sub_intent"`
}

// Taxonomy keeps intents and their children in feed order.
type Taxonomy struct {
	Intents    []string            `json:"intents"`
	SubIntents map[string][]string `json:"sub_intents"`
}

func NewTaxonomy(pairs []TaxonomyPair) Taxonomy {
	t := Taxonomy{Intents: []string{}, SubIntents: map[string][]string{}}
	seenChild := map[string]map[string]bool{}
	for _, p := range pairs {
		intent := strings.TrimSpace(p.Intent)
		if intent == "" {
			continue
		}
		if _, ok := seenChild[intent]; !ok {
			seenChild[intent] = map[string]bool{}
			t.Intents = append(t.Intents, intent)
			t.SubIntents[intent] = []string{}
		}
		sub := strings.TrimSpace(p.SubIntent)
		if sub == "" || seenChild[intent][sub] {
			continue
		}
		seenChild[intent][sub] = true
		t.SubIntents[intent] = append(t.SubIntents[intent], sub)
	}
	return t
}

func (t Taxonomy) HasIntent(intent string) bool {
	_, ok := t.SubIntents[intent]
	return ok
}

// ValidSubIntents concatenates the children of the selected intents in selection order, without repeats.
func (t Taxonomy) ValidSubIntents(selected []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, intent := range selected {
		for _, sub := range t.SubIntents[intent] {
			if seen[sub] {
				continue
			}
			seen[sub] = true
			out = append(out, sub)
		}
	}
	return out
}

// ParseOptions turns a comma-separated default string into a list. Empty input yields an empty list.
func ParseOptions(raw string) []string {
	return domlabel.SplitList(raw)
}

// ReconcileSubIntents keeps the raw sub-intents that are children of the selected intents, in raw order.
func ReconcileSubIntents(selected []string, tax Taxonomy, raw []string) []string {
	valid := map[string]bool{}
	for _, s := range tax.ValidSubIntents(selected) {
		valid[s] = true
	}
	out := []string{}
	seen := map[string]bool{}
	for _, s := range raw {
		if !valid[s] || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// FilterIntents keeps the entries that exist in the taxonomy.
func FilterIntents(tax Taxonomy, raw []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, s := range raw {
		if !tax.HasIntent(s) || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
