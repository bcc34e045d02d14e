package scoring

import (
	"math"
	"slices"
	"testing"

	"github.com/kailas-cloud/skillrank/internal/domain/candidate"
	"github.com/kailas-cloud/skillrank/internal/domain/ontology"
	"github.com/kailas-cloud/skillrank/internal/domain/query"
	"github.com/kailas-cloud/skillrank/internal/domain/search/result"
)

const eps = 1e-9

func almostEqual(a, b float64) bool { return math.Abs(a-b) < eps }

func TestScore_Tiers(t *testing.T) {
	s := New(FiveTier, nil)
	required := []string{"python", "aws", "docker", "go"}

	tests := []struct {
		name      string
		skills    []string
		base      float64
		wantTier  result.Tier
		wantScore float64
	}{
		{"perfect", []string{"Python", "AWS", "Docker", "Go"}, 0.5, result.TierPerfect, 0.65},
		{"perfect capped", []string{"python", "aws", "docker", "go"}, 0.9, result.TierPerfect, 1.0},
		{"three of four", []string{"python", "aws", "docker"}, 0.5, result.TierStrong, 0.5 * (0.2 + 0.75*0.4)},
		{"half", []string{"python", "aws"}, 0.5, result.TierStrong, 0.5 * 0.4},
		{"quarter", []string{"python"}, 0.5, result.TierPartial, 0.15},
		{"none", []string{"ruby"}, 0.5, result.TierNoMatch, 0.15},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := s.Score(required, tc.skills, tc.base)
			if out.Tier != tc.wantTier {
				t.Errorf("tier = %d, want %d", out.Tier, tc.wantTier)
			}
			if !almostEqual(out.FinalScore, tc.wantScore) {
				t.Errorf("final = %v, want %v", out.FinalScore, tc.wantScore)
			}
		})
	}
}

func TestScore_ThreeTierFoldsZeroMatch(t *testing.T) {
	out := New(ThreeTier, nil).Score([]string{"python"}, []string{"java"}, 0.8)
	if out.Tier != result.TierPartial {
		t.Errorf("tier = %d, want 3", out.Tier)
	}
	if !almostEqual(out.FinalScore, 0.24) {
		t.Errorf("final = %v, want 0.24", out.FinalScore)
	}
}

func TestScore_NoRequiredSkills(t *testing.T) {
	for _, mode := range []Mode{ThreeTier, FiveTier} {
		out := New(mode, nil).Score(nil, []string{"python"}, 0.42)
		if out.Tier != result.TierUnconstrained || out.FinalScore != 0.42 {
			t.Errorf("mode %d: outcome = %+v", mode, out)
		}
	}
}

func TestScore_ClampsBase(t *testing.T) {
	s := New(FiveTier, nil)
	if out := s.Score(nil, nil, 1.7); out.FinalScore != 1 {
		t.Errorf("final = %v, want 1", out.FinalScore)
	}
	if out := s.Score(nil, nil, -3); out.FinalScore != 0 {
		t.Errorf("final = %v, want 0", out.FinalScore)
	}
	if out := s.Score(nil, nil, math.NaN()); out.FinalScore != 0 {
		t.Errorf("final = %v, want 0", out.FinalScore)
	}
}

func TestScore_PerfectMatchBoost(t *testing.T) {
	s := New(FiveTier, nil)
	for _, base := range []float64{0, 0.1, 0.5, 0.75, 0.76, 0.77, 0.99, 1} {
		out := s.Score([]string{"go"}, []string{"go"}, base)
		if want := math.Min(1, base*1.3); out.FinalScore != want {
			t.Errorf("base %v: final = %v, want %v", base, out.FinalScore, want)
		}
	}
}

func TestScore_ShortSkillsNeedWholeToken(t *testing.T) {
	s := New(FiveTier, nil)

	if out := s.Score([]string{"r"}, []string{"Ruby", "React", "Docker"}, 0.8); len(out.Matched) != 0 {
		t.Errorf("r matched %v", out.Matched)
	}
	if out := s.Score([]string{"go"}, []string{"MongoDB", "Django"}, 0.8); len(out.Matched) != 0 {
		t.Errorf("go matched %v", out.Matched)
	}
	if out := s.Score([]string{"r"}, []string{"R", "statistics"}, 0.8); out.Tier != result.TierPerfect {
		t.Errorf("r vs R: tier = %d", out.Tier)
	}
}

func TestScore_SubstringMatch(t *testing.T) {
	out := New(FiveTier, nil).Score([]string{"python"}, []string{"Python 3.11"}, 0.5)
	if out.Tier != result.TierPerfect {
		t.Errorf("tier = %d, want perfect", out.Tier)
	}
}

func TestScore_ResolvesCandidateAliases(t *testing.T) {
	s := New(FiveTier, ontology.Default())
	out := s.Score([]string{"kubernetes", "go"}, []string{"K8s", "Golang"}, 0.5)
	if out.Tier != result.TierPerfect {
		t.Errorf("tier = %d, want perfect; matched %v", out.Tier, out.Matched)
	}
}

// X has every required skill with a lower base; Y has half with a higher base. X must rank first.
func TestScenario_PerfectBeatsPartialWithHigherBase(t *testing.T) {
	s := New(FiveTier, ontology.Default())
	parsed := &query.Parsed{Skills: []string{"python", "aws"}}

	x := s.Apply(parsed, candidate.CompetencyView{ID: "x", Skills: []string{"Python", "AWS", "Django"}}, 0.75,
		result.SourceVector)
	y := s.Apply(parsed, candidate.CompetencyView{ID: "y", Skills: []string{"AWS", "Kubernetes", "Ruby"}}, 0.85,
		result.SourceVector)

	if x.Tier != result.TierPerfect || !almostEqual(x.FinalScore, 0.975) {
		t.Errorf("x = tier %d final %v, want tier 1 final 0.975", x.Tier, x.FinalScore)
	}
	if y.Tier != result.TierStrong || !almostEqual(y.FinalScore, 0.34) {
		t.Errorf("y = tier %d final %v, want tier 2 final 0.34", y.Tier, y.FinalScore)
	}
	if !slices.Equal(y.MatchedSkills, []string{"aws"}) {
		t.Errorf("y matched = %v", y.MatchedSkills)
	}

	ranked := []result.ScoredCandidate{y, x}
	Sort(ranked)
	if ranked[0].ID != "x" {
		t.Errorf("order = %s, %s; want x first", ranked[0].ID, ranked[1].ID)
	}
}

func TestSort_TierMonotonicity(t *testing.T) {
	in := []result.ScoredCandidate{
		{ID: "a", Tier: result.TierNoMatch, FinalScore: 1},
		{ID: "b", Tier: result.TierPartial, FinalScore: 0.9},
		{ID: "c", Tier: result.TierStrong, FinalScore: 0.8},
		{ID: "d", Tier: result.TierPerfect, FinalScore: 0.01},
		{ID: "e", Tier: result.TierUnconstrained, FinalScore: 1},
		{ID: "f", Tier: result.TierPerfect, FinalScore: 0.5},
	}
	Sort(in)
	for i := 1; i < len(in); i++ {
		prev, cur := in[i-1], in[i]
		if prev.Tier > cur.Tier {
			t.Fatalf("tier %d ranked above tier %d", prev.Tier, cur.Tier)
		}
		if prev.Tier == cur.Tier && prev.FinalScore < cur.FinalScore {
			t.Fatalf("within tier %d: %v before %v", cur.Tier, prev.FinalScore, cur.FinalScore)
		}
	}
	if in[0].ID != "f" {
		t.Errorf("first = %s, want f", in[0].ID)
	}
}

func TestSort_PanicsOnInvalidTier(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Sort([]result.ScoredCandidate{{ID: "bad", Tier: 7}})
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("three"); err != nil || m != ThreeTier {
		t.Errorf("ParseMode(three) = %v, %v", m, err)
	}
	if m, err := ParseMode("five"); err != nil || m != FiveTier {
		t.Errorf("ParseMode(five) = %v, %v", m, err)
	}
	if _, err := ParseMode("four"); err == nil {
		t.Error("expected error")
	}
}
