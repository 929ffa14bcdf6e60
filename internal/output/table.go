package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/reputebot/reputebot/internal/core"
)

// TableFormatter renders reports as an ASCII table.
type TableFormatter struct{}

// FormatReport renders a report as a table followed by detail sections.
func (f *TableFormatter) FormatReport(report *Report) (string, error) {
	if report == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(displayHandle(report))
	t.AppendHeader(table.Row{"Metric", "Value"})
	for _, row := range metricRows(report) {
		t.AppendRow(table.Row{row.Metric, row.Value})
	}

	rendered := t.Render()
	rendered += renderSections(reportSections(report), false)
	return rendered, nil
}

// RateLimitTable renders live rate window usage and queue counters.
func RateLimitTable(statuses []core.RateLimitStatus, stats *core.QueueStats) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Category", "Limit", "Window", "Used", "Wait"})
	for _, status := range statuses {
		t.AppendRow(table.Row{
			status.Category.String(),
			status.Window.RequestsPerWindow,
			status.Window.WindowDuration.String(),
			status.Used,
			status.Wait.String(),
		})
	}
	if stats != nil {
		t.AppendFooter(table.Row{
			"queue",
			fmt.Sprintf("%d pending", stats.QueueLength),
			"",
			fmt.Sprintf("%d/%d ok", stats.SuccessfulRequests, stats.TotalRequests),
			fmt.Sprintf("%d retries", stats.Retries),
		})
	}
	return t.Render()
}
