// Package resume reads candidate competency views from PostgreSQL.
package resume

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/skillrank/internal/domain"
	"github.com/kailas-cloud/skillrank/internal/domain/candidate"
)

// DefaultView is the relation the repository reads from.
const DefaultView = "candidate_competency"

// querier is the subset of pgxpool.Pool the repository uses (ISP).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config holds pool parameters.
type Config struct {
	URL      string
	MaxConns int32
	View     string
}

// Document is a competency view plus the free text the candidate is embedded from.
type Document struct {
	View       candidate.CompetencyView
	SearchText string
}

// Repo is the read-only resume store.
type Repo struct {
	pool    *pgxpool.Pool
	db      querier
	queries queries
}

// Open connects a pool and verifies it with a ping.
func Open(ctx context.Context, cfg Config) (*Repo, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	r, err := newRepo(pool, cfg.View)
	if err != nil {
		pool.Close()
		return nil, err
	}
	r.pool = pool
	return r, nil
}

func newRepo(q querier, view string) (*Repo, error) {
	qs, err := buildQueries(view)
	if err != nil {
		return nil, err
	}
	return &Repo{db: q, queries: qs}, nil
}

// Ping checks connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if r.pool == nil {
		return errors.New("postgres pool is not open")
	}
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close closes the pool.
func (r *Repo) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// MatchKeywords returns candidates in scope whose skills contain any term or whose search text mentions one.
// Candidates matching more terms come first.
func (r *Repo) MatchKeywords(
	ctx context.Context, scope string, terms []string, limit int,
) ([]candidate.CompetencyView, error) {
	if strings.TrimSpace(scope) == "" {
		return nil, fmt.Errorf("match keywords: %w", domain.ErrScopeRequired)
	}
	terms = normalizeTerms(terms)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	like, words := textPatterns(terms)
	rows, err := r.db.Query(ctx, r.queries.matchKeywords, scope, terms, like, words, limit)
	if err != nil {
		return nil, resumeErr("match keywords", err)
	}
	return collectViews(rows)
}

// FetchCompetencyViews loads views for ids. Unknown ids are skipped; order is unspecified.
func (r *Repo) FetchCompetencyViews(ctx context.Context, ids []string) ([]candidate.CompetencyView, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, r.queries.fetchMany, ids)
	if err != nil {
		return nil, resumeErr("fetch competency views", err)
	}
	return collectViews(rows)
}

// FetchCompetencyView loads a single view.
func (r *Repo) FetchCompetencyView(ctx context.Context, id string) (candidate.CompetencyView, error) {
	var v candidate.CompetencyView
	err := r.db.QueryRow(ctx, r.queries.fetchOne, id).
		Scan(&v.ID, &v.ScopeID, &v.Headline, &v.Skills, &v.ExperienceYears)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return candidate.CompetencyView{}, fmt.Errorf("candidate %s: %w", id, domain.ErrCandidateNotFound)
		}
		return candidate.CompetencyView{}, resumeErr("fetch competency view", err)
	}
	return v, nil
}

// Page lists documents in scope ordered by id, starting after the given id. Used for reindexing.
func (r *Repo) Page(ctx context.Context, scope, after string, limit int) ([]Document, error) {
	if strings.TrimSpace(scope) == "" {
		return nil, fmt.Errorf("page documents: %w", domain.ErrScopeRequired)
	}
	rows, err := r.db.Query(ctx, r.queries.page, scope, after, limit)
	if err != nil {
		return nil, resumeErr("page documents", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(
			&d.View.ID, &d.View.ScopeID, &d.View.Headline, &d.View.Skills, &d.View.ExperienceYears, &d.SearchText,
		); err != nil {
			return nil, resumeErr("scan document", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, resumeErr("page documents", err)
	}
	return out, nil
}

func collectViews(rows pgx.Rows) ([]candidate.CompetencyView, error) {
	defer rows.Close()

	var out []candidate.CompetencyView
	for rows.Next() {
		var v candidate.CompetencyView
		if err := rows.Scan(&v.ID, &v.ScopeID, &v.Headline, &v.Skills, &v.ExperienceYears); err != nil {
			return nil, resumeErr("scan competency view", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, resumeErr("read competency views", err)
	}
	return out, nil
}

func resumeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrResumeStoreUnavailable, err)
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Word edges for short terms. A symbol suffix such as the # in c# has no regex word end after it,
// so the edge is any non-alphanumeric character instead.
const (
	wordStart = `(^|[^[:alnum:]])`
	wordEnd   = `($|[^[:alnum:]])`
)

// textPatterns splits terms into ILIKE substring patterns and whole-word regexes.
// Terms of one or two characters (r, go, c#) must stand alone as words.
func textPatterns(terms []string) (like, words []string) {
	like = make([]string, 0, len(terms))
	words = make([]string, 0, len(terms))
	for _, t := range terms {
		if utf8.RuneCountInString(t) <= 2 {
			words = append(words, wordStart+regexp.QuoteMeta(t)+wordEnd)
			continue
		}
		like = append(like, "%"+likeEscaper.Replace(t)+"%")
	}
	return like, words
}
