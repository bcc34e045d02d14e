package parser

import (
	"reflect"
	"slices"
	"testing"

	"github.com/kailas-cloud/skillrank/internal/domain/ontology"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	return New(ontology.Default())
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func TestParse_NoSubstringSkillLeak(t *testing.T) {
	got := newParser(t).Parse("Senior Python Developer with AWS")

	if !slices.Equal(got.Skills, []string{"python", "aws"}) {
		t.Errorf("skills = %v, want [python aws]", got.Skills)
	}
	if slices.Contains(got.Skills, "r") {
		t.Error("skills must not contain r")
	}
	if deref(got.Seniority) != "senior" {
		t.Errorf("seniority = %s", deref(got.Seniority))
	}
	if !slices.Equal(got.Roles, []string{"developer"}) {
		t.Errorf("roles = %v", got.Roles)
	}
	if deref(got.PrimarySkill) != "python" {
		t.Errorf("primary = %s", deref(got.PrimarySkill))
	}
	if len(got.RemainingTerms) != 0 {
		t.Errorf("remaining = %v", got.RemainingTerms)
	}
	if got.OriginalQuery != "Senior Python Developer with AWS" || got.CorrectedQuery != nil {
		t.Errorf("original = %q corrected = %v", got.OriginalQuery, got.CorrectedQuery)
	}
}

func TestParse_RoleWordsNeverYieldSkills(t *testing.T) {
	p := newParser(t)
	for _, q := range []string{"developer", "engineer programmer", "Ruby Developer", "React Engineer"} {
		got := p.Parse(q)
		for _, s := range got.Skills {
			if s == "r" || s == "c" || s == "go" {
				t.Errorf("Parse(%q) leaked skill %q", q, s)
			}
		}
	}
}

func TestParseCorrected_TypoScenario(t *testing.T) {
	corrections := []query.Correction{{From: "pythonn", To: "python", Confidence: 0.86}}
	got := newParser(t).ParseCorrected("Pythonn Developer", "python developer", corrections)

	if got.OriginalQuery != "Pythonn Developer" {
		t.Errorf("original = %q", got.OriginalQuery)
	}
	if deref(got.CorrectedQuery) != "python developer" {
		t.Errorf("corrected = %s", deref(got.CorrectedQuery))
	}
	if !slices.Equal(got.Skills, []string{"python"}) {
		t.Errorf("skills = %v", got.Skills)
	}
	if !slices.Equal(got.Roles, []string{"developer"}) {
		t.Errorf("roles = %v", got.Roles)
	}
	if len(got.Corrections) != 1 || got.Corrections[0].From != "pythonn" {
		t.Errorf("corrections = %+v", got.Corrections)
	}
}

func TestParseCorrected_NoCorrectionsLeavesCorrectedNil(t *testing.T) {
	got := newParser(t).ParseCorrected("Python Developer", "python developer", nil)
	if got.CorrectedQuery != nil {
		t.Errorf("corrected = %q, want nil", *got.CorrectedQuery)
	}
}

func TestParse_ExperienceYears(t *testing.T) {
	tests := []struct {
		in        string
		years     int
		skills    []string
		remaining []string
	}{
		{"5+ years of experience in Go and Kubernetes", 5, []string{"go", "kubernetes"}, []string{}},
		{"python 3 yrs", 3, []string{"python"}, []string{}},
		{"10 year fintech java", 10, []string{"java"}, []string{"fintech"}},
	}
	p := newParser(t)
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := p.Parse(tc.in)
			if got.ExperienceYears == nil || *got.ExperienceYears != tc.years {
				t.Fatalf("years = %v, want %d", got.ExperienceYears, tc.years)
			}
			if !slices.Equal(got.Skills, tc.skills) {
				t.Errorf("skills = %v, want %v", got.Skills, tc.skills)
			}
			if !slices.Equal(got.RemainingTerms, tc.remaining) {
				t.Errorf("remaining = %v, want %v", got.RemainingTerms, tc.remaining)
			}
		})
	}
}

func TestParse_MultiWordSkillsLongestFirst(t *testing.T) {
	got := newParser(t).Parse("Machine Learning Engineer, PyTorch and Ruby on Rails")

	if !slices.Equal(got.Skills, []string{"machine learning", "pytorch", "rails"}) {
		t.Errorf("skills = %v", got.Skills)
	}
	if !slices.Equal(got.Roles, []string{"engineer"}) {
		t.Errorf("roles = %v", got.Roles)
	}
	if deref(got.PrimarySkill) != "machine learning" {
		t.Errorf("primary = %s", deref(got.PrimarySkill))
	}
	if slices.Contains(got.RemainingTerms, "ruby") || slices.Contains(got.Skills, "ruby") {
		t.Errorf("ruby should be claimed by the rails phrase: %+v", got)
	}
}

func TestParse_SymbolSkills(t *testing.T) {
	got := newParser(t).Parse("C++ / C# and Node.js")
	if !slices.Equal(got.Skills, []string{"c++", "c#", "node.js"}) {
		t.Errorf("skills = %v", got.Skills)
	}
}

func TestParse_AliasDedup(t *testing.T) {
	got := newParser(t).Parse("golang Go GO k8s Kubernetes")
	if !slices.Equal(got.Skills, []string{"go", "kubernetes"}) {
		t.Errorf("skills = %v", got.Skills)
	}
}

func TestParse_SeniorityFirstWins(t *testing.T) {
	got := newParser(t).Parse("sr. junior data scientist python")
	if deref(got.Seniority) != "senior" {
		t.Errorf("seniority = %s", deref(got.Seniority))
	}
	if !slices.Equal(got.Roles, []string{"data scientist"}) {
		t.Errorf("roles = %v", got.Roles)
	}
	if deref(got.PrimarySkill) != "python" {
		t.Errorf("primary = %s", deref(got.PrimarySkill))
	}
}

func TestParse_PrimarySkillOverlapsRole(t *testing.T) {
	ont, err := ontology.New(ontology.Document{
		Skills: []ontology.SkillEntry{{Name: "sql"}, {Name: "salesforce"}},
		Roles:  []string{"salesforce developer"},
	})
	if err != nil {
		t.Fatalf("ontology: %v", err)
	}
	got := New(ont).Parse("sql and salesforce for salesforce developer")
	if deref(got.PrimarySkill) != "salesforce" {
		t.Errorf("primary = %s, want salesforce", deref(got.PrimarySkill))
	}
	if !slices.Equal(got.Roles, []string{"salesforce developer"}) {
		t.Errorf("roles = %v", got.Roles)
	}
}

func TestParse_RoleShorthand(t *testing.T) {
	p := newParser(t)

	got := p.Parse("Sr. C# dev")
	if !slices.Equal(got.Skills, []string{"c#"}) || !slices.Equal(got.Roles, []string{"dev"}) {
		t.Errorf("skills = %v roles = %v", got.Skills, got.Roles)
	}
	if deref(got.Seniority) != "senior" || len(got.RemainingTerms) != 0 {
		t.Errorf("seniority = %s remaining = %v", deref(got.Seniority), got.RemainingTerms)
	}

	// c# sits right before the role, so it wins over the first skill.
	got = p.Parse("python and c# dev")
	if deref(got.PrimarySkill) != "c#" {
		t.Errorf("primary = %s, want c#", deref(got.PrimarySkill))
	}
}

func TestParse_Garbage(t *testing.T) {
	p := newParser(t)
	for _, q := range []string{"", "   ", "!!! ???", "2024 --- 42"} {
		got := p.Parse(q)
		if len(got.Skills) != 0 || len(got.Roles) != 0 || len(got.RemainingTerms) != 0 {
			t.Errorf("Parse(%q) = %+v, want empty", q, got)
		}
		if got.PrimarySkill != nil || got.Seniority != nil || got.ExperienceYears != nil {
			t.Errorf("Parse(%q) set pointers: %+v", q, got)
		}
	}
}

func TestParse_Deterministic(t *testing.T) {
	p := newParser(t)
	q := "Senior Golang engineer, 7+ yrs, kafka postgres fintech"
	if a, b := p.Parse(q), p.Parse(q); !reflect.DeepEqual(a, b) {
		t.Errorf("non-deterministic:\n%+v\n%+v", a, b)
	}
}
