// Package ontology is the read-only skill vocabulary: canonical skills and aliases,
// seniority terms, role types, curated misspellings and stop words.
//
// An Ontology is built once at startup and never mutated; share it by pointer.
package ontology

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/skillrank/internal/domain"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
)

//go:embed default.yaml
var defaultDocument []byte

// Document is the YAML form of an ontology.
type Document struct {
	Skills       []SkillEntry        `yaml:"skills"`
	Seniority    map[string][]string `yaml:"seniority"`
	Roles        []string            `yaml:"roles"`
	Misspellings map[string]string   `yaml:"misspellings"`
	StopWords    []string            `yaml:"stop_words"`
}

// SkillEntry is a canonical skill with its aliases.
type SkillEntry struct {
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Aliases  []string `yaml:"aliases"`
}

// Kind tells what a multi-word phrase resolves to.
type Kind int

const (
	// KindSkill is a skill phrase ("machine learning").
	KindSkill Kind = iota
	// KindRole is a role phrase ("data scientist").
	KindRole
)

// Phrase is a multi-token term matched as a whole.
type Phrase struct {
	Tokens    []string
	Canonical string
	Kind      Kind
}

// Ontology is the immutable lookup structure built from a Document.
type Ontology struct {
	skills       map[string]string   // term -> canonical
	aliases      map[string][]string // canonical -> alias terms
	categories   map[string]string // canonical -> category
	seniority    map[string]string // term -> canonical seniority
	roles        map[string]struct{}
	misspellings map[string]string
	stopWords    map[string]struct{}
	phrases      []Phrase
	vocabulary   []string
	known        map[string]struct{}
}

// Default returns the ontology compiled into the binary.
func Default() *Ontology {
	o, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded ontology: %v", err))
	}
	return o
}

// LoadFile reads an ontology YAML file.
func LoadFile(path string) (*Ontology, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open ontology %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load parses an ontology from a reader.
func Load(r io.Reader) (*Ontology, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read ontology: %w", err)
	}
	return Parse(data)
}

// Parse builds an Ontology from YAML.
func Parse(data []byte) (*Ontology, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidOntology, err)
	}
	return New(doc)
}

// New validates a Document and builds the lookup tables.
func New(doc Document) (*Ontology, error) {
	o := &Ontology{
		skills:       make(map[string]string),
		aliases:      make(map[string][]string),
		categories:   make(map[string]string),
		seniority:    make(map[string]string),
		roles:        make(map[string]struct{}),
		misspellings: make(map[string]string),
		stopWords:    make(map[string]struct{}),
		known:        make(map[string]struct{}),
	}

	for _, s := range doc.Skills {
		canonical := query.Normalize(s.Name)
		if canonical == "" {
			return nil, fmt.Errorf("%w: skill name is required", domain.ErrInvalidOntology)
		}
		o.categories[canonical] = s.Category
		for _, term := range append([]string{s.Name}, s.Aliases...) {
			if err := o.addSkillTerm(query.Normalize(term), canonical); err != nil {
				return nil, err
			}
		}
	}

	for level, aliases := range doc.Seniority {
		canonical := query.Normalize(level)
		for _, term := range append([]string{level}, aliases...) {
			term = query.Normalize(term)
			if _, clash := o.skills[term]; clash {
				return nil, fmt.Errorf("%w: seniority term %q is also a skill", domain.ErrInvalidOntology, term)
			}
			o.seniority[term] = canonical
			o.addTerm(term, canonical, KindRole, false)
		}
	}

	for _, role := range doc.Roles {
		term := query.Normalize(role)
		if term == "" {
			continue
		}
		o.roles[term] = struct{}{}
		o.addTerm(term, term, KindRole, true)
	}

	for _, w := range doc.StopWords {
		o.stopWords[query.Normalize(w)] = struct{}{}
	}

	for from, to := range doc.Misspellings {
		to = query.Normalize(to)
		if _, ok := o.known[to]; !ok {
			return nil, fmt.Errorf("%w: misspelling %q targets unknown term %q", domain.ErrInvalidOntology, from, to)
		}
		o.misspellings[query.Normalize(from)] = to
	}

	sort.SliceStable(o.phrases, func(i, j int) bool {
		if len(o.phrases[i].Tokens) != len(o.phrases[j].Tokens) {
			return len(o.phrases[i].Tokens) > len(o.phrases[j].Tokens)
		}
		return o.phrases[i].Canonical < o.phrases[j].Canonical
	})
	sort.Strings(o.vocabulary)

	return o, nil
}

func (o *Ontology) addSkillTerm(term, canonical string) error {
	if term == "" {
		return nil
	}
	existing, ok := o.skills[term]
	if ok && existing != canonical {
		return fmt.Errorf("%w: term %q maps to both %q and %q", domain.ErrInvalidOntology, term, existing, canonical)
	}
	if !ok && term != canonical {
		o.aliases[canonical] = append(o.aliases[canonical], term)
	}
	o.skills[term] = canonical
	o.addTerm(term, canonical, KindSkill, true)
	return nil
}

// addTerm registers term as known vocabulary; multi-token terms become phrases.
func (o *Ontology) addTerm(term, canonical string, kind Kind, phrase bool) {
	tokens := query.Tokenize(term)
	if len(tokens) > 1 {
		if phrase {
			o.phrases = append(o.phrases, Phrase{Tokens: tokens, Canonical: canonical, Kind: kind})
		}
		return
	}
	if _, dup := o.known[term]; dup {
		return
	}
	o.known[term] = struct{}{}
	o.vocabulary = append(o.vocabulary, term)
}

// ResolveSkill maps a term (canonical or alias) to its canonical skill.
func (o *Ontology) ResolveSkill(term string) (string, bool) {
	c, ok := o.skills[strings.ToLower(term)]
	return c, ok
}

// Aliases returns the alias terms of a canonical skill in document order. The slice must not be modified.
func (o *Ontology) Aliases(canonical string) []string {
	return o.aliases[strings.ToLower(canonical)]
}

// ExpandSkills appends the aliases of every canonical skill in terms, right after the skill itself.
// Stored candidate data may spell a skill any way the ontology knows.
func (o *Ontology) ExpandSkills(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	add := func(t string) {
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range terms {
		add(t)
		for _, a := range o.Aliases(t) {
			add(a)
		}
	}
	return out
}

// Category returns the category of a canonical skill.
func (o *Ontology) Category(canonical string) string {
	return o.categories[canonical]
}

// Seniority maps a term to its canonical seniority level.
func (o *Ontology) Seniority(term string) (string, bool) {
	s, ok := o.seniority[strings.ToLower(term)]
	return s, ok
}

// IsRole reports whether term is a known role type.
func (o *Ontology) IsRole(term string) bool {
	_, ok := o.roles[strings.ToLower(term)]
	return ok
}

// IsStopWord reports whether term carries no search meaning.
func (o *Ontology) IsStopWord(term string) bool {
	_, ok := o.stopWords[strings.ToLower(term)]
	return ok
}

// IsKnown reports whether term is exact single-token vocabulary (skill, alias, seniority or role).
func (o *Ontology) IsKnown(term string) bool {
	_, ok := o.known[strings.ToLower(term)]
	return ok
}

// Misspelling returns the curated correction for a known misspelling.
func (o *Ontology) Misspelling(term string) (string, bool) {
	to, ok := o.misspellings[strings.ToLower(term)]
	return to, ok
}

// Phrases returns multi-token terms, longest first. The slice must not be modified.
func (o *Ontology) Phrases() []Phrase { return o.phrases }

// Vocabulary returns single-token terms for fuzzy matching, sorted. The slice must not be modified.
func (o *Ontology) Vocabulary() []string { return o.vocabulary }

// CanonicalizeAll resolves candidate skills to canonical names where known and drops case-folded duplicates.
// Unknown skills are kept lowercased so substring matching can still see them.
func (o *Ontology) CanonicalizeAll(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		norm := query.Normalize(s)
		if norm == "" {
			continue
		}
		if c, ok := o.skills[norm]; ok {
			norm = c
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}
