package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reputebot/reputebot/internal/output"
)

// stdout receives output when no file target is set.
var stdout io.Writer = os.Stdout

// outputTarget is where a command writes its result: one file (Path), one
// file per item under Dir, or stdout when both are empty.
type outputTarget struct {
	Path string
	Dir  string
}

var nonFilename = regexp.MustCompile(`[^a-z0-9._-]+`)

func sanitizeFilename(value string) string {
	clean := nonFilename.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	if clean = strings.Trim(clean, "-."); clean == "" {
		return "output"
	}
	return clean
}

func formatExtension(format output.Format) string {
	switch format {
	case output.FormatJSON:
		return "json"
	case output.FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// outputFlags reads --output-format, --out and --out-dir.
func outputFlags(cmd *cobra.Command) (output.Format, outputTarget, error) {
	flags := cmd.Flags()
	raw, err := flags.GetString("output-format")
	if err != nil {
		return "", outputTarget{}, err
	}
	format, err := output.ParseFormat(raw)
	if err != nil {
		return "", outputTarget{}, err
	}
	path, err := flags.GetString("out")
	if err != nil {
		return "", outputTarget{}, err
	}
	dir, err := flags.GetString("out-dir")
	if err != nil {
		return "", outputTarget{}, err
	}
	target, err := newOutputTarget(path, dir)
	return format, target, err
}

func newOutputTarget(path, dir string) (outputTarget, error) {
	target := outputTarget{Path: strings.TrimSpace(path), Dir: strings.TrimSpace(dir)}
	if target.Path != "" && target.Dir != "" {
		return outputTarget{}, fmt.Errorf("--out and --out-dir are mutually exclusive")
	}
	return target, nil
}

// itemPath names the file for one item under Dir, creating Dir if needed.
func (t outputTarget) itemPath(name string, format output.Format) (string, error) {
	if err := os.MkdirAll(t.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return filepath.Join(t.Dir, sanitizeFilename(name)+"."+formatExtension(format)), nil
}

// write sends content to Path, to Dir under fallbackName, or to stdout.
func (t outputTarget) write(fallbackName string, format output.Format, content string) error {
	path := t.Path
	if t.Dir != "" {
		var err error
		if path, err = t.itemPath(fallbackName, format); err != nil {
			return err
		}
	}
	return writeOutput(path, content)
}

// writeOutput writes content plus a trailing newline to path; "" or "-" is stdout.
func writeOutput(path, content string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprintln(stdout, content)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(file, content); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
