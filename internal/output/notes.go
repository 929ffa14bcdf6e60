package output

import (
	"fmt"
	"strings"

	"github.com/reputebot/reputebot/internal/analysis"
)

// metricRow is one line of the report summary shared by table and markdown.
type metricRow struct {
	Metric string
	Value  string
}

func metricRows(report *Report) []metricRow {
	a := report.Assessment
	rows := []metricRow{
		{"Recommendation", recommendationLabel(a.Recommendation)},
		{"Posts analyzed", fmt.Sprintf("%d", a.PostsAnalyzed)},
		{"Posts per day", fmt.Sprintf("%.1f", a.PostsPerDay)},
		{"Sentiment", fmt.Sprintf("%s (%+.3f)", a.Sentiment.Label, a.Sentiment.Compound)},
		{"Vibe", fmt.Sprintf("%s (%+.2f)", a.VibeLabel, a.Vibe)},
		{"Persona", a.Persona},
		{"Category", a.Category},
		{"Suggested feed", a.Feed},
	}
	if a.Summary.Archetype != "" {
		rows = append(rows, metricRow{"Archetype", a.Summary.Archetype})
	}
	return rows
}

func recommendationLabel(value string) string {
	switch value {
	case analysis.RecommendYes:
		return "follow"
	case analysis.RecommendNo:
		return "skip"
	case analysis.RecommendMaybe:
		return "maybe"
	case "":
		return "unknown"
	default:
		return value
	}
}

func displayHandle(report *Report) string {
	handle := strings.TrimPrefix(strings.TrimSpace(report.Handle), "@")
	if handle == "" {
		handle = report.Assessment.Handle
	}
	if handle == "" {
		return "unknown"
	}
	return "@" + handle
}

type reportSection struct {
	Title string
	Lines []string
}

func reportSections(report *Report) []reportSection {
	if report == nil {
		return nil
	}

	sections := make([]reportSection, 0, 3)
	ind := report.Assessment.Sentiment.Indicators
	sections = append(sections, reportSection{
		Title: "Emotional Indicators",
		Lines: []string{
			fmt.Sprintf("Exclamations: %d, questions: %d, ellipses: %d", ind.Exclamations, ind.Questions, ind.Ellipses),
			fmt.Sprintf("All-caps words: %d, repeated letters: %d, emoticons: %d", ind.AllCapsWords, ind.RepeatedLetters, ind.Emoticons),
		},
	})

	if len(report.Feeds) > 0 {
		lines := make([]string, 0, len(report.Feeds))
		for _, feed := range report.Feeds {
			lines = append(lines, fmt.Sprintf("%s: %d", feed.Name, feed.Score))
		}
		sections = append(sections, reportSection{Title: "Feed Matches", Lines: lines})
	}

	if reply := strings.TrimSpace(report.Reply); reply != "" {
		sections = append(sections, reportSection{Title: "Reply Preview", Lines: strings.Split(reply, "\n")})
	}
	return sections
}

func renderSections(sections []reportSection, markdown bool) string {
	if len(sections) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, section := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		if markdown {
			sb.WriteString(fmt.Sprintf("\n\n### %s\n", section.Title))
			for _, line := range section.Lines {
				sb.WriteString(fmt.Sprintf("- %s\n", line))
			}
		} else {
			sb.WriteString(fmt.Sprintf("\n\n%s:\n", section.Title))
			for _, line := range section.Lines {
				sb.WriteString(fmt.Sprintf("  %s\n", line))
			}
		}
	}
	return sb.String()
}
