// Package search runs a progressive candidate search: instant keyword results, then
// vector-enhanced results, then analytics-decorated results.
//
// Search returns a pull-based iterator. The whole state machine runs in the consumer's
// goroutine; each external call is bounded by its own timeout and every collaborator
// failure turns into a degrade path instead of an error.
package search

import (
	"context"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/skillrank/internal/domain"
	"github.com/kailas-cloud/skillrank/internal/domain/candidate"
	"github.com/kailas-cloud/skillrank/internal/domain/ontology"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
	"github.com/kailas-cloud/skillrank/internal/domain/search/result"
	"github.com/kailas-cloud/skillrank/internal/domain/search/stage"
	"github.com/kailas-cloud/skillrank/internal/logger"
	"github.com/kailas-cloud/skillrank/internal/metrics"
	"github.com/kailas-cloud/skillrank/internal/usecase/scoring"
)

// Config holds limits and per-call budgets.
type Config struct {
	DefaultLimit      int
	MaxLimit          int
	StoreTimeout      time.Duration
	EmbedTimeout      time.Duration
	VectorTimeout     time.Duration
	EnrichTimeout     time.Duration
	EnrichTopN        int
	KeywordOnlyWeight float64
}

// DefaultConfig mirrors the config package defaults.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:      20,
		MaxLimit:          100,
		StoreTimeout:      300 * time.Millisecond,
		EmbedTimeout:      2 * time.Second,
		VectorTimeout:     time.Second,
		EnrichTimeout:     time.Second,
		EnrichTopN:        20,
		KeywordOnlyWeight: 0.5,
	}
}

// candidatePoolFactor over-fetches so rescoring can promote candidates past the limit line.
const candidatePoolFactor = 3

// Deps are the collaborators of a Service. Enricher and Ontology may be nil.
type Deps struct {
	Ontology  *ontology.Ontology
	Corrector Corrector
	Parser    Parser
	Scorer    *scoring.Scorer
	Store     ResumeStore
	Embedder  Embedder
	Vectors   VectorIndex
	Enricher  Enricher
}

// Service orchestrates progressive searches. It holds no per-request state.
type Service struct {
	deps Deps
	cfg  Config
}

// New creates a search service.
func New(deps Deps, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = def.EmbedTimeout
	}
	if cfg.VectorTimeout <= 0 {
		cfg.VectorTimeout = def.VectorTimeout
	}
	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = def.EnrichTimeout
	}
	if cfg.EnrichTopN <= 0 {
		cfg.EnrichTopN = def.EnrichTopN
	}
	if cfg.KeywordOnlyWeight <= 0 {
		cfg.KeywordOnlyWeight = def.KeywordOnlyWeight
	}
	return &Service{deps: deps, cfg: cfg}
}

type state int

const (
	stateInstant state = iota
	stateEnhanced
	stateComplete
	stateDone
)

// Search streams instant, enhanced and complete stages for text within scope.
// limit <= 0 uses the default; larger than MaxLimit is capped.
// The sequence is single-use. Stopping iteration or cancelling ctx ends it before the next stage's I/O.
func (s *Service) Search(ctx context.Context, text, scope string, limit int) iter.Seq[stage.Result] {
	return func(yield func(stage.Result) bool) {
		r := s.newRun(ctx, text, scope, limit)
		ctx := logger.ContextWithLogger(ctx, r.log)

		st := stateInstant
		last := stage.Stage("")
		for st != stateDone {
			if ctx.Err() != nil {
				r.abandon(last, "cancelled")
				return
			}

			var (
				out  stage.Result
				emit bool
				next state
			)
			switch st {
			case stateInstant:
				out, next = r.instant(ctx), stateEnhanced
				emit = true
				if strings.TrimSpace(r.parsed.EffectiveQuery()) == "" {
					next = stateComplete
				}
			case stateEnhanced:
				out, emit = r.enhanced(ctx)
				next = stateComplete
			case stateComplete:
				out, next = r.complete(ctx), stateDone
				emit = true
			}

			if !emit {
				st = next
				continue
			}
			r.record(out)
			if !yield(out) {
				r.abandon(out.Stage, "stopped")
				return
			}
			last = out.Stage
			st = next
		}
	}
}

// Collect drains a search into a slice.
func Collect(seq iter.Seq[stage.Result]) []stage.Result {
	return slices.Collect(seq)
}

// run is the per-request state of one search.
type run struct {
	svc      *Service
	id       string
	text     string
	scope    string
	limit    int
	start    time.Time
	log      *zap.Logger
	parsed   query.Parsed
	keyword  map[string]keywordHit
	ranked   []result.ScoredCandidate
	degraded []string
}

type keywordHit struct {
	view  candidate.CompetencyView
	score float64
}

func (s *Service) newRun(ctx context.Context, text, scope string, limit int) *run {
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	limit = min(limit, s.cfg.MaxLimit)
	id := uuid.NewString()
	return &run{
		svc:     s,
		id:      id,
		text:    text,
		scope:   scope,
		limit:   limit,
		start:   time.Now(),
		log:     logger.FromContext(ctx).With(zap.String("search_id", id), zap.String("scope", scope)),
		keyword: make(map[string]keywordHit),
	}
}

// instant corrects, parses and runs the keyword filter. It always produces a stage.
func (r *run) instant(ctx context.Context) stage.Result {
	d := r.svc.deps
	corr := d.Corrector.Correct(ctx, r.text)
	r.parsed = d.Parser.ParseCorrected(r.text, corr.Corrected, corr.Corrections)

	terms := r.parsed.KeywordTerms()
	if len(terms) > 0 {
		kwCtx, cancel := context.WithTimeout(ctx, r.svc.cfg.StoreTimeout)
		pool := r.limit * candidatePoolFactor
		views, err := d.Store.MatchKeywords(kwCtx, r.scope, storeTerms(d.Ontology, terms), pool)
		cancel()
		if err != nil {
			r.degrade(stage.Instant, stage.DegradedKeywordSearch, err)
		}
		for _, v := range views {
			r.keyword[v.ID] = keywordHit{view: v, score: keywordScore(d.Ontology, terms, v)}
		}
	}

	scored := make([]result.ScoredCandidate, 0, len(r.keyword))
	for _, kh := range r.keyword {
		scored = append(scored, d.Scorer.Apply(&r.parsed, kh.view, kh.score, result.SourceKeyword))
	}
	r.ranked = r.rank(scored)
	return r.snapshot(stage.Instant)
}

// enhanced merges vector similarity into the keyword results. Any failure returns emit=false
// and the machine proceeds to complete with the instant ranking.
func (r *run) enhanced(ctx context.Context) (stage.Result, bool) {
	d := r.svc.deps
	cfg := r.svc.cfg

	embCtx, cancel := context.WithTimeout(ctx, cfg.EmbedTimeout)
	emb, err := d.Embedder.Embed(embCtx, r.parsed.EffectiveQuery())
	cancel()
	if err != nil {
		r.degrade(stage.Enhanced, stage.DegradedEmbedding, err)
		return stage.Result{}, false
	}

	vecCtx, cancel := context.WithTimeout(ctx, cfg.VectorTimeout)
	hits, err := d.Vectors.SearchSimilar(vecCtx, emb.Embedding, r.scope, r.limit*candidatePoolFactor)
	cancel()
	if err != nil {
		r.degrade(stage.Enhanced, stage.DegradedVectorSearch, err)
		return stage.Result{}, false
	}

	views := make(map[string]candidate.CompetencyView, len(hits))
	var missing []string
	for _, h := range hits {
		if kh, ok := r.keyword[h.ID]; ok {
			views[h.ID] = kh.view
			continue
		}
		missing = append(missing, h.ID)
	}
	if len(missing) > 0 {
		fetchCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		fetched, err := d.Store.FetchCompetencyViews(fetchCtx, missing)
		cancel()
		if err != nil {
			r.degrade(stage.Enhanced, stage.DegradedResumeStore, err)
			return stage.Result{}, false
		}
		for _, v := range fetched {
			views[v.ID] = v
		}
	}

	scored := make([]result.ScoredCandidate, 0, len(hits)+len(r.keyword))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		v, ok := views[h.ID]
		if !ok {
			continue // indexed but gone from the resume store
		}
		if _, dup := seen[h.ID]; dup {
			continue
		}
		seen[h.ID] = struct{}{}
		src := result.SourceVector
		if _, ok := r.keyword[h.ID]; ok {
			src = result.SourceBoth
		}
		scored = append(scored, d.Scorer.Apply(&r.parsed, v, h.Score, src))
	}
	for id, kh := range r.keyword {
		if _, ok := seen[id]; ok {
			continue
		}
		base := kh.score * cfg.KeywordOnlyWeight
		scored = append(scored, d.Scorer.Apply(&r.parsed, kh.view, base, result.SourceKeyword))
	}

	r.ranked = r.rank(scored)
	return r.snapshot(stage.Enhanced), true
}

// complete decorates the top candidates. Enrichment never changes tier or score.
func (r *run) complete(ctx context.Context) stage.Result {
	d := r.svc.deps
	if d.Enricher == nil || len(r.ranked) == 0 {
		return r.snapshot(stage.Complete)
	}

	top := r.ranked[:min(len(r.ranked), r.svc.cfg.EnrichTopN)]
	ids := make([]string, len(top))
	for i, c := range top {
		ids[i] = c.ID
	}

	enrCtx, cancel := context.WithTimeout(ctx, r.svc.cfg.EnrichTimeout)
	annotations, err := d.Enricher.Annotate(enrCtx, ids)
	cancel()
	if err != nil {
		r.degrade(stage.Complete, stage.DegradedEnrichment, err)
		return r.snapshot(stage.Complete)
	}

	decorated := result.Clone(r.ranked)
	for i := range decorated {
		if a, ok := annotations[decorated[i].ID]; ok && a.Valid() {
			decorated[i].Annotation = &a
		}
	}
	slices.SortStableFunc(decorated, compareWithAvailability)
	r.ranked = decorated
	return r.snapshot(stage.Complete)
}

func (r *run) rank(scored []result.ScoredCandidate) []result.ScoredCandidate {
	scoring.Sort(scored)
	if len(scored) > r.limit {
		scored = scored[:r.limit]
	}
	return scored
}

// snapshot builds a stage value that shares nothing with the run or earlier stages.
func (r *run) snapshot(st stage.Stage) stage.Result {
	results := result.Clone(r.ranked)
	if results == nil {
		results = []result.ScoredCandidate{}
	}
	return stage.Result{
		Stage:    st,
		SearchID: r.id,
		Query:    r.parsed.Clone(),
		Results:  results,
		Count:    len(results),
		Degraded: slices.Clone(r.degraded),
	}
}

func (r *run) degrade(st stage.Stage, reason string, err error) {
	r.degraded = append(r.degraded, reason)
	metrics.SearchDegradedTotal.WithLabelValues(reason).Inc()
	r.log.Warn("Search collaborator failed, degrading",
		zap.Duration("elapsed", time.Since(r.start)),
		zap.Error(domain.NewCollaboratorError(reason, string(st), err)),
	)
}

func (r *run) record(out stage.Result) {
	status := "ok"
	if out.IsDegraded() {
		status = "degraded"
	}
	metrics.SearchStageDuration.WithLabelValues(string(out.Stage)).Observe(time.Since(r.start).Seconds())
	metrics.SearchStagesTotal.WithLabelValues(string(out.Stage), status).Inc()
	r.log.Debug("Search stage emitted",
		zap.String("stage", string(out.Stage)),
		zap.Int("count", out.Count),
		zap.Strings("degraded", out.Degraded),
		zap.Duration("elapsed", time.Since(r.start)),
	)
}

func (r *run) abandon(after stage.Stage, cause string) {
	label := string(after)
	if label == "" {
		label = "none"
	}
	metrics.SearchAbandonedTotal.WithLabelValues(label, cause).Inc()
	r.log.Debug("Search abandoned", zap.String("after_stage", label), zap.String("cause", cause))
}

// storeTerms adds the aliases of each skill term so stored spellings such as golang or k8s match.
func storeTerms(ont *ontology.Ontology, terms []string) []string {
	if ont == nil {
		return terms
	}
	return ont.ExpandSkills(terms)
}

// keywordScore is the fraction of terms present in the candidate's skills or headline.
// Skills and headline words are resolved to canonical names first, as the scorer does.
func keywordScore(ont *ontology.Ontology, terms []string, v candidate.CompetencyView) float64 {
	if len(terms) == 0 {
		return 0
	}
	headline := query.Tokenize(v.Headline)
	var skills []string
	if ont != nil {
		skills = ont.CanonicalizeAll(v.Skills)
		for i, w := range headline {
			if c, ok := ont.ResolveSkill(w); ok {
				headline[i] = c
			}
		}
	} else {
		skills = make([]string, len(v.Skills))
		for i, s := range v.Skills {
			skills[i] = strings.ToLower(s)
		}
	}

	matched := 0
	for _, t := range terms {
		if slices.Contains(headline, t) || slices.ContainsFunc(skills, func(s string) bool { return termIn(t, s) }) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func termIn(term, skill string) bool {
	if len(term) <= 2 {
		return slices.Contains(query.Tokenize(skill), term)
	}
	return strings.Contains(skill, term)
}

// compareWithAvailability keeps the scorer's order and breaks exact ties by availability.
func compareWithAvailability(a, b result.ScoredCandidate) int {
	if a.Tier != b.Tier {
		return result.Compare(a, b)
	}
	if a.FinalScore != b.FinalScore {
		return result.Compare(a, b)
	}
	av, bv := availability(a), availability(b)
	switch {
	case av > bv:
		return -1
	case av < bv:
		return 1
	}
	return result.Compare(a, b)
}

func availability(c result.ScoredCandidate) float64 {
	if c.Annotation == nil {
		return -1
	}
	return c.Annotation.Availability
}
