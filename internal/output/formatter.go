package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Formatter renders a report in one output format.
type Formatter interface {
	Name() string
	Format(r *Report) ([]byte, error)
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc struct {
	ID string
	F  func(r *Report) ([]byte, error)
}

func (f FormatterFunc) Name() string                     { return f.ID }
func (f FormatterFunc) Format(r *Report) ([]byte, error) { return f.F(r) }

var formatters = map[string]Formatter{
	"console":      ConsoleFormatter{},
	"console-lite": ConsoleFormatter{Plain: true},
	"json":         JSONFormatter{Pretty: true},
	"json-compact": JSONFormatter{},
	"csv":          CSVFormatter{},
	"html":         HTMLFormatter{},
	"xlsx":         FormatterFunc{ID: "xlsx", F: formatWorkbook},
}

var formatAliases = map[string]string{
	"verbose":         "console",
	"console-verbose": "console",
	"text":            "console-lite",
	"plain":           "console-lite",
}

// GetFormatterByName returns the formatter registered under name or an
// alias, or nil.
func GetFormatterByName(name string) Formatter {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := formatAliases[key]; ok {
		key = alias
	}
	return formatters[key]
}

// AvailableFormats lists the canonical format names.
func AvailableFormats() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases lists the accepted alternative names.
func AvailableFormatAliases() []string {
	names := make([]string, 0, len(formatAliases))
	for name := range formatAliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Write renders r with f to w.
func Write(w io.Writer, f Formatter, r *Report) error {
	data, err := f.Format(r)
	if err != nil {
		return eris.Wrapf(err, "output: format %s", f.Name())
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "output: write report")
	}
	return nil
}

// WriteFormatted renders r into a timestamped file in dir and returns its
// path.
func WriteFormatted(dir string, f Formatter, r *Report) (string, error) {
	data, err := f.Format(r)
	if err != nil {
		return "", eris.Wrapf(err, "output: format %s", f.Name())
	}
	if dir == "" {
		dir = "."
	}
	path := fmt.Sprintf("%s/tax_report_%s.%s", strings.TrimRight(dir, "/"), time.Now().Format("20060102_150405"), extension(f.Name()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", eris.Wrapf(err, "output: write %s", path)
	}
	return path, nil
}

func extension(format string) string {
	switch format {
	case "json", "csv", "html", "xlsx":
		return format
	case "json-compact":
		return "json"
	}
	return "txt"
}
