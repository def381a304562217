package score_test

import (
	"testing"

	"github.com/cayfen/webscan/internal/model"
	"github.com/cayfen/webscan/internal/score"
)

// ─── Score ─────────────────────────────────────────────────────────────

func TestScore_Rounding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		checks model.Checks
		want   int
	}{
		{"all passed", model.Checks{Total: 10, Passed: 10}, 100},
		{"none passed", model.Checks{Total: 10, Passed: 0, Failed: 10}, 0},
		{"two thirds", model.Checks{Total: 3, Passed: 2, Failed: 1}, 67},
		{"one third", model.Checks{Total: 3, Passed: 1, Failed: 2}, 33},
		{"half up", model.Checks{Total: 8, Passed: 5, Failed: 3}, 63},
		{"no checks", model.Checks{}, 0},
		{"negative total", model.Checks{Total: -1}, 0},
	}
	for _, tc := range cases {
		if got := score.Score(tc.checks); got != tc.want {
			t.Errorf("%s: Score(%+v) = %d, want %d", tc.name, tc.checks, got, tc.want)
		}
	}
}

func TestScore_Bounds(t *testing.T) {
	t.Parallel()

	for passed := 0; passed <= 20; passed++ {
		checks := model.Checks{Total: 20, Passed: passed, Failed: 20 - passed}
		got := score.Score(checks)
		if got < 0 || got > 100 {
			t.Fatalf("Score(%+v) = %d, out of [0,100]", checks, got)
		}
	}
}

// ─── DeriveSeverity ────────────────────────────────────────────────────

func TestDeriveSeverity_MaxOverFindings(t *testing.T) {
	t.Parallel()

	findings := []model.Finding{
		{Severity: model.SeverityMedium},
		{Severity: model.SeverityHigh},
		{Severity: model.SeverityLow},
	}
	if got := score.DeriveSeverity(findings); got != model.SeverityHigh {
		t.Errorf("expected high, got %s", got)
	}
}

func TestDeriveSeverity_PermutationInvariant(t *testing.T) {
	t.Parallel()

	a := []model.Finding{
		{Severity: model.SeverityCritical},
		{Severity: model.SeverityLow},
		{Severity: model.SeverityMedium},
	}
	b := []model.Finding{a[2], a[0], a[1]}
	if score.DeriveSeverity(a) != score.DeriveSeverity(b) {
		t.Error("severity depends on finding order")
	}
}

func TestDeriveSeverity_NoFindings(t *testing.T) {
	t.Parallel()

	if got := score.DeriveSeverity(nil); got != model.SeverityLow {
		t.Errorf("expected low for clean scan, got %s", got)
	}
}

// ─── Recommendations ───────────────────────────────────────────────────

func TestRecommendations_DedupesAndOrdersBySeverity(t *testing.T) {
	t.Parallel()

	findings := []model.Finding{
		{Severity: model.SeverityMedium, Recommendation: "set headers"},
		{Severity: model.SeverityCritical, Recommendation: "use prepared statements"},
		{Severity: model.SeverityMedium, Recommendation: "set headers"},
		{Severity: model.SeverityHigh, Recommendation: "encode output"},
	}

	got := score.Recommendations(findings)
	want := []string{"use prepared statements", "encode output", "set headers"}
	if len(got) != len(want) {
		t.Fatalf("expected %d recommendations, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recommendation %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRecommendations_SkipsEmpty(t *testing.T) {
	t.Parallel()

	findings := []model.Finding{
		{Severity: model.SeverityHigh, Recommendation: ""},
		{Severity: model.SeverityLow, Recommendation: "tidy up"},
	}
	got := score.Recommendations(findings)
	if len(got) != 1 || got[0] != "tidy up" {
		t.Errorf("expected [tidy up], got %v", got)
	}
}
