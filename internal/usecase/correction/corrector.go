// Package correction fixes typos in recruiter queries before they are parsed.
//
// A rule pass (learned corrections, curated misspellings, fuzzy vocabulary match) always runs.
// An optional AI strategy runs only when the rule pass found nothing and some token is still
// outside the vocabulary. The corrector fails open: whatever goes wrong, the caller gets a
// usable query back.
//
// Corrections only ever produce vocabulary, so a fully corrected query never reaches the AI again.
// A query that keeps an unknown token the rule pass cannot fix is re-sent to the AI on every call,
// and its idempotence is then only as stable as the AI's answers.
package correction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/skillrank/internal/domain/ontology"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
	"github.com/kailas-cloud/skillrank/internal/logger"
	"github.com/kailas-cloud/skillrank/internal/metrics"
)

// Method tells which pass produced the corrections.
type Method string

// Method constants.
const (
	MethodNone Method = "none"
	MethodRule Method = "rule"
	MethodAI   Method = "ai"
)

// DefaultThreshold is the minimum similarity for a fuzzy correction.
const DefaultThreshold = 0.82

const defaultAITimeout = 1500 * time.Millisecond

// Result is the outcome of correcting one query.
// Corrected is always the normalized (lowercased, whitespace-collapsed) text.
type Result struct {
	Original    string             `json:"original"`
	Corrected   string             `json:"corrected"`
	Corrections []query.Correction `json:"corrections"`
	Confidence  float64            `json:"confidence"`
	Method      Method             `json:"method"`
}

// Changed reports whether any token was rewritten.
func (r Result) Changed() bool { return len(r.Corrections) > 0 }

// Corrector runs the rule pass and the optional AI pass.
type Corrector struct {
	ont       *ontology.Ontology
	learned   *Learned
	rule      *RuleStrategy
	ai        Strategy
	aiTimeout time.Duration
	store     LearnedStore
	threshold float64
}

// Option configures a Corrector.
type Option func(*Corrector)

// WithThreshold overrides the fuzzy similarity threshold.
func WithThreshold(th float64) Option {
	return func(c *Corrector) {
		if th > 0 && th <= 1 {
			c.threshold = th
		}
	}
}

// WithAI enables a second-pass strategy bounded by timeout.
func WithAI(s Strategy, timeout time.Duration) Option {
	return func(c *Corrector) {
		c.ai = s
		if timeout > 0 {
			c.aiTimeout = timeout
		}
	}
}

// WithLearnedStore persists feedback and allows LoadLearned.
func WithLearnedStore(s LearnedStore) Option {
	return func(c *Corrector) { c.store = s }
}

// New creates a corrector over a shared ontology.
func New(ont *ontology.Ontology, opts ...Option) *Corrector {
	c := &Corrector{
		ont:       ont,
		learned:   NewLearned(),
		aiTimeout: defaultAITimeout,
		threshold: DefaultThreshold,
	}
	for _, o := range opts {
		o(c)
	}
	c.rule = NewRuleStrategy(ont, c.learned, c.threshold)
	return c
}

// LoadLearned pulls persisted corrections into the in-memory map.
func (c *Corrector) LoadLearned(ctx context.Context) (int, error) {
	if c.store == nil {
		return 0, nil
	}
	m, err := c.store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load learned corrections: %w", err)
	}
	valid := make(map[string]string, len(m))
	for from, to := range m {
		if c.acceptable(from, to) {
			valid[from] = to
		}
	}
	return c.learned.Merge(valid), nil
}

// Correct never fails. AI errors are logged and the rule result is returned.
func (c *Corrector) Correct(ctx context.Context, text string) Result {
	log := logger.FromContext(ctx)
	normalized := query.Normalize(text)
	res := Result{Original: text, Corrected: normalized, Confidence: 1, Method: MethodNone}
	if normalized == "" {
		metrics.CorrectionTotal.WithLabelValues(string(res.Method)).Inc()
		return res
	}

	corrections, _ := c.rule.Correct(ctx, normalized)
	if len(corrections) > 0 {
		res.Method = MethodRule
	}

	if len(corrections) == 0 && c.ai != nil && c.hasUnknown(normalized) {
		if proposed := c.runAI(ctx, normalized); len(proposed) > 0 {
			corrections = merge(corrections, proposed)
			res.Method = MethodAI
		}
	}

	if len(corrections) > 0 {
		res.Corrections = corrections
		res.Corrected = apply(normalized, corrections)
		res.Confidence = meanConfidence(corrections)
		log.Debug("Query corrected",
			zap.String("method", string(res.Method)),
			zap.String("original", logger.TruncateForLog(text, 200)),
			zap.String("corrected", res.Corrected),
			zap.Int("corrections", len(corrections)),
		)
	}

	metrics.CorrectionTotal.WithLabelValues(string(res.Method)).Inc()
	return res
}

func (c *Corrector) runAI(ctx context.Context, normalized string) []query.Correction {
	aiCtx, cancel := context.WithTimeout(ctx, c.aiTimeout)
	defer cancel()

	proposed, err := c.ai.Correct(aiCtx, normalized)
	if err != nil {
		metrics.CorrectionAIErrorsTotal.WithLabelValues(c.ai.Name()).Inc()
		logger.FromContext(ctx).Warn("AI correction failed, continuing without it",
			zap.String("strategy", c.ai.Name()),
			zap.Error(err),
		)
		return nil
	}

	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(normalized) {
		_, core, _ := query.SplitWord(word)
		tokens[core] = struct{}{}
	}

	accepted := make([]query.Correction, 0, len(proposed))
	for _, p := range proposed {
		p.From = strings.ToLower(strings.TrimSpace(p.From))
		p.To = strings.ToLower(strings.TrimSpace(p.To))
		if _, ok := tokens[p.From]; !ok || !c.acceptable(p.From, p.To) {
			continue
		}
		if p.Confidence <= 0 || p.Confidence > 1 {
			p.Confidence = c.threshold
		}
		accepted = append(accepted, p)
	}
	return accepted
}

// hasUnknown reports whether any token could still be a typo: not vocabulary, not a stop word, no digits.
func (c *Corrector) hasUnknown(normalized string) bool {
	for _, word := range strings.Fields(normalized) {
		_, core, _ := query.SplitWord(word)
		if core == "" || query.HasDigit(core) || c.ont.IsStopWord(core) || c.ont.IsKnown(core) {
			continue
		}
		return true
	}
	return false
}

// acceptable keeps corrections idempotent: the source is not vocabulary, the target is.
func (c *Corrector) acceptable(from, to string) bool {
	return from != "" && from != to && !c.ont.IsKnown(from) && c.ont.IsKnown(to)
}

// RecordFeedback learns token rewrites from a user-accepted query.
// original and accepted are aligned token by token; queries of different length teach nothing.
func (c *Corrector) RecordFeedback(ctx context.Context, original, accepted string) (int, error) {
	from := strings.Fields(query.Normalize(original))
	to := strings.Fields(query.Normalize(accepted))
	if len(from) == 0 || len(from) != len(to) {
		return 0, nil
	}

	learned := 0
	for i := range from {
		_, f, _ := query.SplitWord(from[i])
		_, t, _ := query.SplitWord(to[i])
		if !c.acceptable(f, t) || !c.learned.Add(f, t) {
			continue
		}
		learned++
		if c.store != nil {
			if err := c.store.Save(ctx, f, t); err != nil {
				return learned, fmt.Errorf("save learned correction %s: %w", f, err)
			}
		}
	}
	if learned > 0 {
		logger.FromContext(ctx).Info("Learned corrections from feedback", zap.Int("count", learned))
	}
	return learned, nil
}

// merge keeps one correction per token, preferring the higher confidence.
func merge(base, extra []query.Correction) []query.Correction {
	out := append([]query.Correction(nil), base...)
	idx := make(map[string]int, len(out))
	for i, c := range out {
		idx[c.From] = i
	}
	for _, c := range extra {
		if i, ok := idx[c.From]; ok {
			if c.Confidence > out[i].Confidence {
				out[i] = c
			}
			continue
		}
		idx[c.From] = len(out)
		out = append(out, c)
	}
	return out
}

// apply rewrites token cores and keeps the punctuation around them.
func apply(normalized string, corrections []query.Correction) string {
	repl := make(map[string]string, len(corrections))
	for _, c := range corrections {
		repl[c.From] = c.To
	}
	words := strings.Fields(normalized)
	for i, w := range words {
		prefix, core, suffix := query.SplitWord(w)
		if to, ok := repl[core]; ok {
			words[i] = prefix + to + suffix
		}
	}
	return strings.Join(words, " ")
}

func meanConfidence(cs []query.Correction) float64 {
	if len(cs) == 0 {
		return 1
	}
	var sum float64
	for _, c := range cs {
		sum += c.Confidence
	}
	return sum / float64(len(cs))
}
