package correction

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"

	"github.com/kailas-cloud/skillrank/internal/domain/ontology"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
)

// Confidence assigned to table-driven corrections; fuzzy matches use their similarity.
const (
	learnedConfidence     = 0.99
	misspellingConfidence = 0.95
	minCorrectableLen     = 4
)

// RuleStrategy corrects tokens from the learned map, the curated misspelling table and
// fuzzy matching against the ontology vocabulary.
type RuleStrategy struct {
	ont       *ontology.Ontology
	learned   *Learned
	threshold float64
}

// NewRuleStrategy creates the rule-based pass. learned may be nil.
func NewRuleStrategy(ont *ontology.Ontology, learned *Learned, threshold float64) *RuleStrategy {
	return &RuleStrategy{ont: ont, learned: learned, threshold: threshold}
}

// Name implements Strategy.
func (r *RuleStrategy) Name() string { return string(MethodRule) }

// Correct implements Strategy. It never fails.
func (r *RuleStrategy) Correct(_ context.Context, text string) ([]query.Correction, error) {
	var out []query.Correction
	seen := make(map[string]struct{})
	for _, word := range strings.Fields(query.Normalize(text)) {
		_, core, _ := query.SplitWord(word)
		if _, dup := seen[core]; dup || !r.correctable(core) {
			continue
		}
		seen[core] = struct{}{}
		if c, ok := r.propose(core); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *RuleStrategy) correctable(token string) bool {
	if utf8.RuneCountInString(token) < minCorrectableLen || query.HasDigit(token) {
		return false
	}
	return !r.ont.IsStopWord(token) && !r.ont.IsKnown(token)
}

func (r *RuleStrategy) propose(token string) (query.Correction, bool) {
	if r.learned != nil {
		if to, ok := r.learned.Lookup(token); ok {
			return query.Correction{From: token, To: to, Confidence: learnedConfidence}, true
		}
	}
	if to, ok := r.ont.Misspelling(token); ok {
		return query.Correction{From: token, To: to, Confidence: misspellingConfidence}, true
	}

	best, bestSim := "", 0.0
	for _, cand := range r.ont.Vocabulary() {
		if !r.reachable(token, cand) {
			continue
		}
		sim := Similarity(token, cand)
		if sim >= r.threshold && sim < 1 && sim > bestSim {
			best, bestSim = cand, sim
		}
	}
	if best == "" {
		return query.Correction{}, false
	}
	return query.Correction{From: token, To: best, Confidence: bestSim}, true
}

// reachable prunes candidates whose length difference alone keeps them under the threshold.
func (r *RuleStrategy) reachable(a, b string) bool {
	la, lb := len(a), len(b)
	longest := max(la, lb)
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	return 1-float64(diff)/float64(longest) >= r.threshold
}

// Similarity is 1 - editDistance/maxLen using unit-cost Wagner-Fischer.
func Similarity(a, b string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	d := smetrics.WagnerFischer(a, b, 1, 1, 1)
	return 1 - float64(d)/float64(longest)
}
