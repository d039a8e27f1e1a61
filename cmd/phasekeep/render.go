package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/charmbracelet/lipgloss"
)

// Styles for output
var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	})
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	})
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	})
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	})
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	})
	boldStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle = mutedStyle.Width(10)
)

// renderSequence draws the workflow with the current phase highlighted.
func renderSequence(seq []string, current string) string {
	parts := make([]string, len(seq))
	reached := true
	for i, p := range seq {
		switch {
		case p == current:
			parts[i] = accentStyle.Bold(true).Render("[" + p + "]")
			reached = false
		case reached:
			parts[i] = passStyle.Render(p)
		default:
			parts[i] = mutedStyle.Render(p)
		}
	}
	return strings.Join(parts, mutedStyle.Render(" → "))
}

// renderDetection formats a detected phase with its sub-phase and cycle.
func renderDetection(d phase.DetectionResult) string {
	out := boldStyle.Render(d.Phase)
	switch {
	case d.Subphase != "" && d.Cycle > 0:
		out += fmt.Sprintf(" (%s, cycle %d)", d.Subphase, d.Cycle)
	case d.Subphase != "":
		out += fmt.Sprintf(" (%s)", d.Subphase)
	}
	return out + "  " + confidenceStyle(d.Confidence).Render(fmt.Sprintf("[%s · %s]", d.Source, d.Confidence))
}

func confidenceStyle(c phase.Confidence) lipgloss.Style {
	switch c {
	case phase.ConfidenceHigh:
		return passStyle
	case phase.ConfidenceMedium:
		return accentStyle
	default:
		return warnStyle
	}
}

// renderTransition formats one audit trail entry.
func renderTransition(t phase.Transition) string {
	line := fmt.Sprintf("%s  %s → %s",
		mutedStyle.Render(t.Timestamp.Format("2006-01-02 15:04")),
		t.FromPhase, boldStyle.Render(t.ToPhase))
	if t.Forced {
		line += "  " + warnStyle.Render("forced: "+t.Reason)
	}
	return line
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label), value)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
