package quality

import (
	"testing"

	"github.com/finsight-hq/finsight/profile"
)

func TestScore_EmptyContent(t *testing.T) {
	if got := Score("", profile.Generic); got != 0 {
		t.Errorf("Score(\"\") = %d, want 0", got)
	}
	if got := Score("   \n\t ", profile.Generic); got != 0 {
		t.Errorf("whitespace-only content scored %d, want 0", got)
	}
}

func TestScore_Weights(t *testing.T) {
	p := profile.Profile{
		Keywords:       []string{"dividend"},
		TableSelectors: []string{"table"},
	}

	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"one currency", "price is $12.50 today", 2},
		{"one percentage", "up 3.45% this week", 1},
		{"one numeric date", "paid on 01/15/2024", 1},
		{"one keyword", "the dividend was raised", 3},
		{"table bonus only", "<table><tr><td>a</td></tr></table>", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.content, p)
			if got != tt.want {
				t.Errorf("Score(%q) = %d, want %d", tt.content, got, tt.want)
			}
		})
	}
}

func TestScore_Composite(t *testing.T) {
	p := profile.Profile{
		Keywords:       []string{"yield"},
		TableSelectors: []string{"table"},
	}
	// 1 keyword (3) + 1 percentage (1) + table bonus (5) = 9.
	content := `<table><tr><td>Yield</td><td>3.45%</td></tr></table>`
	if got := Score(content, p); got != 9 {
		t.Errorf("Score = %d, want 9", got)
	}
}

func TestScore_NonNegativeAndMonotonic(t *testing.T) {
	p := profile.Generic

	base := "some page text with $1.00 and a dividend mention"
	baseScore := Score(base, p)
	if baseScore < 0 {
		t.Fatalf("score is negative: %d", baseScore)
	}

	additions := []string{" $2.00", " 5%", " 2024-01-15", " yield", " earnings report"}
	for _, add := range additions {
		grown := Score(base+add, p)
		if grown < baseScore {
			t.Errorf("adding %q decreased score: %d -> %d", add, baseScore, grown)
		}
	}
}

func TestScore_TableBonusAppliedOnce(t *testing.T) {
	p := profile.Profile{TableSelectors: []string{"table", `[role="table"]`}}
	one := Score("<table></table>", p)
	two := Score(`<table></table><div role="table"></div>`, p)
	if one != 5 {
		t.Fatalf("single table scored %d, want 5", one)
	}
	if two != 5 {
		t.Errorf("two selector matches scored %d, want 5 (bonus is flat)", two)
	}
}

func TestScore_Deterministic(t *testing.T) {
	content := `<table><tr><td>$0.25</td><td>01/15/2024</td><td>3.1%</td></tr></table> dividend yield`
	a := Score(content, profile.Generic)
	b := Score(content, profile.Generic)
	if a != b {
		t.Errorf("same input scored differently: %d vs %d", a, b)
	}
}

func TestLooksFinancial(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"currency", "paid $0.25 per share", true},
		{"percentage", "yield of 3.45%", true},
		{"iso date", "record date 2024-01-15", true},
		{"keyword", "upcoming Dividend schedule", true},
		{"nothing", "about our leadership team", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksFinancial(tt.text, []string{"dividend"}); got != tt.want {
				t.Errorf("LooksFinancial(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
