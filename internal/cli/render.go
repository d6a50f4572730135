package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ConfabulousDev/resume-insights/internal/insights"
)

// barWidth is the length of the longest bar in a chart.
const barWidth = 30

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle = lipgloss.NewStyle().Width(18)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8"))
)

// RenderDashboard writes the summary and every chart as text.
func RenderDashboard(w io.Writer, d *insights.Dashboard, message string) {
	if message != "" {
		fmt.Fprintln(w, errorStyle.Render(message))
		fmt.Fprintln(w)
	}
	if d == nil {
		return
	}

	rangeText := "all time"
	if d.DateRange.Start != "" || d.DateRange.End != "" {
		rangeText = orDots(d.DateRange.Start) + " to " + orDots(d.DateRange.End)
	}
	fmt.Fprintln(w, titleStyle.Render("Resume Analytics"), mutedStyle.Render("("+rangeText+")"))
	fmt.Fprintf(w, "Records:          %d of %d\n", d.Summary.FilteredRecords, d.Summary.TotalRecords)
	fmt.Fprintf(w, "Avg match score:  %d\n", d.Summary.AvgMatchScoreRounded)
	fmt.Fprintf(w, "Strong skills:    %d\n", d.Summary.StrongSkillCount)
	fmt.Fprintf(w, "Weak skills:      %d\n", d.Summary.WeakSkillCount)

	if d.Summary.FilteredRecords == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No records in this range."))
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Match scores"))
	for i, label := range d.MatchScores.Labels {
		v := d.MatchScores.Values[i]
		fmt.Fprintln(w, barLine(label, v, 100, "#06B6D4", strconv.FormatFloat(v, 'f', -1, 64)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Skill counts (strong / weak)"))
	for i, label := range d.SkillCounts.Labels {
		fmt.Fprintf(w, "%s %d / %d\n", labelStyle.Render(truncate(label)), d.SkillCounts.Strong[i], d.SkillCounts.Weak[i])
	}

	renderDistribution(w, "Strong skills", d.StrongSkills)
	renderDistribution(w, "Weak skills", d.WeakSkills)
}

func renderDistribution(w io.Writer, title string, dist insights.Distribution) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(title))
	if len(dist.Labels) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("none"))
		return
	}
	peak := 0
	for _, v := range dist.Values {
		if v > peak {
			peak = v
		}
	}
	for i, label := range dist.Labels {
		fmt.Fprintln(w, barLine(label, float64(dist.Values[i]), float64(peak), dist.Colors[i], strconv.Itoa(dist.Values[i])))
	}
}

// barLine renders "label ████ value" with the bar scaled against full.
func barLine(label string, v, full float64, color, value string) string {
	n := 0
	if full > 0 && v > 0 {
		n = int(v / full * barWidth)
		n = min(max(n, 1), barWidth)
	}
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", n))
	return labelStyle.Render(truncate(label)) + " " + bar + " " + value
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= 17 {
		return s
	}
	return string(r[:16]) + "…"
}

func orDots(s string) string {
	if s == "" {
		return "..."
	}
	return s
}
