package workflow

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/sentinelcare/sentinel/plugin/evolution"
)

const nightSystemPrompt = `You are a clinical night-surveillance assistant.
Write a concise markdown report of the patient's night from the structured
facts provided. Start with a one-paragraph summary, then detail each alert.
Do not invent observations that are not in the facts.`

const daySystemPrompt = `You are a clinical consultation assistant.
Write a concise markdown consultation report from the structured facts
provided. Start with a one-paragraph summary, then assessment and follow-up.
Do not invent observations that are not in the facts.`

// buildNightPrompt assembles the structured facts for the night report.
func buildNightPrompt(state *State) string {
	var b strings.Builder
	b.WriteString("Patient context:\n")
	b.WriteString(state.PatientContext)
	b.WriteString("\n")

	if state.Night == nil || len(state.Night.Events) == 0 {
		b.WriteString("Night events: none recorded.\n")
	} else {
		fmt.Fprintf(&b, "Sleep quality score: %.0f/100\n", state.Night.SleepQuality)
		b.WriteString("Night events:\n")
		for _, event := range state.Night.Events {
			fmt.Fprintf(&b, "- %s (%s, value %.1f", event.Name, event.Severity, event.Value)
			if event.Promoted {
				fmt.Fprintf(&b, ", corroborated by %s", strings.Join(event.Sources[1:], "+"))
			}
			b.WriteString(")\n")
		}
	}
	return b.String()
}

// buildDayPrompt assembles the structured facts for the day report,
// including the evolution against the night.
func buildDayPrompt(state *State, delta *evolution.Delta) string {
	var b strings.Builder
	b.WriteString("Patient context:\n")
	b.WriteString(state.PatientContext)
	b.WriteString("\n")

	if state.Day != nil {
		fmt.Fprintf(&b, "Consultation mode: %s\n", state.Day.Mode)
		if len(state.Day.Symptoms) > 0 {
			fmt.Fprintf(&b, "Reported symptoms: %s\n", strings.Join(state.Day.Symptoms, ", "))
		}
		if state.Day.ExamNotes != "" {
			fmt.Fprintf(&b, "Examination notes: %s\n", state.Day.ExamNotes)
		}
		if state.Day.Severity > 0 {
			fmt.Fprintf(&b, "Assessed severity: %s\n", state.Day.Severity)
		}
		for _, d := range state.Day.Differential {
			fmt.Fprintf(&b, "- differential: %s\n", d)
		}
		for _, a := range state.Day.Actions {
			fmt.Fprintf(&b, "- recommended action: %s\n", a)
		}
	}
	if delta != nil {
		fmt.Fprintf(&b, "Evolution since night report: %s\n", delta.Trend)
		for _, f := range delta.New {
			fmt.Fprintf(&b, "- new finding: %s (%s)\n", f.Name, f.Severity)
		}
		for _, f := range delta.Resolved {
			fmt.Fprintf(&b, "- resolved: %s\n", f.Name)
		}
	}
	return b.String()
}

// fallbackReport renders a deterministic template when the completion
// provider is unavailable. The session still produces a usable document.
func fallbackReport(title, facts string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s generated without language model assistance.\n\n", title)
	b.WriteString("## Recorded facts\n\n")
	b.WriteString(facts)
	b.WriteString("\n## Note\n\nAutomated narrative unavailable; review the facts above directly.\n")
	return b.String()
}

// extractSummary returns the first paragraph of a markdown document,
// skipping headings. Used as the report digest stored in patient memory.
func extractSummary(markdown string) string {
	source := []byte(markdown)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		paragraph, ok := node.(*ast.Paragraph)
		if !ok {
			continue
		}
		var b strings.Builder
		for line := 0; line < paragraph.Lines().Len(); line++ {
			segment := paragraph.Lines().At(line)
			b.Write(segment.Value(source))
			b.WriteString(" ")
		}
		summary := strings.TrimSpace(b.String())
		if summary != "" {
			return summary
		}
	}
	return strings.TrimSpace(strings.Split(markdown, "\n")[0])
}
