package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/reputebot/reputebot/internal/analysis"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Report is the result of analyzing one account without replying.
type Report struct {
	Handle      string               `json:"handle"`
	GeneratedAt time.Time            `json:"generated_at"`
	Assessment  analysis.Assessment  `json:"assessment"`
	Feeds       []analysis.FeedScore `json:"feeds,omitempty"`
	Reply       string               `json:"reply"`
}

// Formatter renders reports.
type Formatter interface {
	FormatReport(report *Report) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// FormatReports renders multiple reports using the requested format. JSON
// output is a single array.
func FormatReports(format Format, reports []*Report) (string, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	formatter := NewFormatter(format)
	rendered := make([]string, 0, len(reports))
	for _, report := range reports {
		if report == nil {
			continue
		}
		value, err := formatter.FormatReport(report)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		rendered = append(rendered, value)
	}

	return strings.Join(rendered, "\n\n"), nil
}
