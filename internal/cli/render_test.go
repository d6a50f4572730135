package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ConfabulousDev/resume-insights/internal/insights"
)

func TestRenderDashboard(t *testing.T) {
	d := insights.Build(testRecords(), insights.DateRange{})

	var buf bytes.Buffer
	RenderDashboard(&buf, d, "")
	out := buf.String()

	for _, want := range []string{"all time", "Match scores", "Skill counts", "Strong skills", "Weak skills", "b.pdf", "█"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderDashboard_Message(t *testing.T) {
	var buf bytes.Buffer
	RenderDashboard(&buf, insights.Build(nil, insights.DateRange{}), "Failed to load analytics data.")
	out := buf.String()
	if !strings.Contains(out, "Failed to load analytics data.") || !strings.Contains(out, "0 of 0") {
		t.Errorf("output = %s", out)
	}
}

func TestBarLine(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		full float64
		bars int
	}{
		{"zero", 0, 10, 0},
		{"full", 10, 10, barWidth},
		{"tiny value still visible", 0.1, 100, 1},
		{"over full is clamped", 150, 100, barWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := barLine("x", tt.v, tt.full, "#000000", "v")
			if got := strings.Count(line, "█"); got != tt.bars {
				t.Errorf("bars = %d, want %d", got, tt.bars)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short.pdf"); got != "short.pdf" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("a-very-long-resume-filename.pdf"); len([]rune(got)) != 17 || !strings.HasSuffix(got, "…") {
		t.Errorf("truncate long = %q", got)
	}
}
