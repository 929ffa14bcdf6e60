package output

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders reports as a markdown table.
type MarkdownFormatter struct{}

// FormatReport renders a report as Markdown.
func (f *MarkdownFormatter) FormatReport(report *Report) (string, error) {
	if report == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s reputation\n\n", escapeMarkdownCell(displayHandle(report))))
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	for _, row := range metricRows(report) {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", escapeMarkdownCell(row.Metric), escapeMarkdownCell(row.Value)))
	}

	sb.WriteString(renderSections(reportSections(report), true))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
