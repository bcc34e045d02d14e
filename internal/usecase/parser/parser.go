// Package parser decomposes a recruiter query into skills, seniority, roles and experience.
package parser

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/skillrank/internal/domain/ontology"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
)

var experienceRe = regexp.MustCompile(`(\d+)\s*\+?\s*(?:years?|yrs?)(?:\s+of\s+experience)?\b`)

const shortTermLen = 2

// Parser is pure and safe for concurrent use; it only reads the shared ontology.
type Parser struct {
	ont *ontology.Ontology
}

// New creates a parser over a shared ontology.
func New(ont *ontology.Ontology) *Parser {
	return &Parser{ont: ont}
}

type itemKind int

const (
	itemSkill itemKind = iota
	itemRole
	itemSeniority
	itemRemaining
)

type item struct {
	start, end int // token span, end exclusive
	kind       itemKind
	value      string
}

// Parse decomposes text. Garbage input yields an empty Parsed, never an error.
func (p *Parser) Parse(text string) query.Parsed {
	out := p.parse(query.Normalize(text))
	out.OriginalQuery = text
	return out
}

// ParseCorrected parses the corrected text while keeping the original query and the corrections.
func (p *Parser) ParseCorrected(original, corrected string, corrections []query.Correction) query.Parsed {
	out := p.parse(query.Normalize(corrected))
	out.OriginalQuery = original
	if len(corrections) > 0 {
		c := corrected
		out.CorrectedQuery = &c
		out.Corrections = slices.Clone(corrections)
	}
	return out
}

func (p *Parser) parse(normalized string) query.Parsed {
	out := query.Parsed{Skills: []string{}, Roles: []string{}, RemainingTerms: []string{}}

	working := normalized
	if m := experienceRe.FindStringSubmatch(working); m != nil {
		if years, err := strconv.Atoi(m[1]); err == nil {
			out.ExperienceYears = &years
		}
		working = experienceRe.ReplaceAllString(working, " ")
	}

	tokens := query.Tokenize(working)
	items := p.matchPhrases(tokens)
	claimed := make([]bool, len(tokens))
	for _, it := range items {
		for i := it.start; i < it.end; i++ {
			claimed[i] = true
		}
	}

	for i, tok := range tokens {
		if claimed[i] {
			continue
		}
		if it, ok := p.classify(tok, i); ok {
			items = append(items, it)
		}
	}
	slices.SortFunc(items, func(a, b item) int { return a.start - b.start })

	p.assemble(&out, items)
	return out
}

// matchPhrases claims multi-token terms, longest first; a token belongs to at most one phrase.
func (p *Parser) matchPhrases(tokens []string) []item {
	var items []item
	claimed := make([]bool, len(tokens))
	for _, ph := range p.ont.Phrases() {
		n := len(ph.Tokens)
		for i := 0; i+n <= len(tokens); i++ {
			if !slices.Equal(tokens[i:i+n], ph.Tokens) || slices.Contains(claimed[i:i+n], true) {
				continue
			}
			for j := i; j < i+n; j++ {
				claimed[j] = true
			}
			kind := itemSkill
			if ph.Kind == ontology.KindRole {
				kind = itemRole
			}
			items = append(items, item{start: i, end: i + n, kind: kind, value: ph.Canonical})
		}
	}
	return items
}

func (p *Parser) classify(tok string, pos int) (item, bool) {
	it := item{start: pos, end: pos + 1}
	switch {
	case p.resolveSkill(tok, &it):
		it.kind = itemSkill
	case p.resolveSeniority(tok, &it):
		it.kind = itemSeniority
	case p.ont.IsRole(tok):
		it.kind, it.value = itemRole, tok
	case p.ont.IsStopWord(tok) || !hasLetter(tok):
		return item{}, false
	default:
		it.kind, it.value = itemRemaining, tok
	}
	return it, true
}

func (p *Parser) resolveSkill(tok string, it *item) bool {
	c, ok := p.ont.ResolveSkill(tok)
	it.value = c
	return ok
}

func (p *Parser) resolveSeniority(tok string, it *item) bool {
	s, ok := p.ont.Seniority(tok)
	it.value = s
	return ok
}

func (p *Parser) assemble(out *query.Parsed, items []item) {
	seenSkill := make(map[string]struct{})
	seenRole := make(map[string]struct{})
	seenTerm := make(map[string]struct{})
	var skillItems, roleItems []item

	for _, it := range items {
		switch it.kind {
		case itemSkill:
			if _, dup := seenSkill[it.value]; dup {
				continue
			}
			seenSkill[it.value] = struct{}{}
			out.Skills = append(out.Skills, it.value)
			skillItems = append(skillItems, it)
		case itemRole:
			roleItems = append(roleItems, it)
			if _, dup := seenRole[it.value]; dup {
				continue
			}
			seenRole[it.value] = struct{}{}
			out.Roles = append(out.Roles, it.value)
		case itemSeniority:
			if out.Seniority == nil {
				s := it.value
				out.Seniority = &s
			}
		case itemRemaining:
			if _, dup := seenTerm[it.value]; dup {
				continue
			}
			seenTerm[it.value] = struct{}{}
			out.RemainingTerms = append(out.RemainingTerms, it.value)
		}
	}

	if primary, ok := primarySkill(skillItems, roleItems); ok {
		out.PrimarySkill = &primary
	}
}

// primarySkill prefers a skill overlapping a role name, then a skill right before a role, then the first skill.
func primarySkill(skills, roles []item) (string, bool) {
	if len(skills) == 0 {
		return "", false
	}
	for _, s := range skills {
		for _, r := range roles {
			if containsTerm(r.value, s.value) || containsTerm(s.value, r.value) {
				return s.value, true
			}
		}
	}
	for _, s := range skills {
		for _, r := range roles {
			if s.end == r.start {
				return s.value, true
			}
		}
	}
	return skills[0].value, true
}

// containsTerm is substring containment, except that one- and two-letter terms must be whole tokens.
func containsTerm(haystack, needle string) bool {
	if len(needle) <= shortTermLen {
		return slices.Contains(query.Tokenize(haystack), needle)
	}
	return strings.Contains(haystack, needle)
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
