// Package output renders dispatch results, event fragments, and
// documentation listings to the operational console.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format represents output format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format string
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// Printer handles formatted output
type Printer struct {
	format  Format
	writer  io.Writer
	noColor bool
	quiet   bool
}

// NewPrinter creates a new printer
func NewPrinter(format Format) *Printer {
	return &Printer{
		format:  format,
		writer:  os.Stdout,
		noColor: os.Getenv("NO_COLOR") != "",
	}
}

// SetWriter sets the output writer
func (p *Printer) SetWriter(w io.Writer) {
	p.writer = w
}

// SetQuiet suppresses all rendering. Results are still returned as
// values by the dispatch layer.
func (p *Printer) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// Render writes one labeled payload in the configured format. A label
// of "" renders the payload bare.
func (p *Printer) Render(label string, payload any) error {
	if p.quiet {
		return nil
	}
	if label != "" {
		fmt.Fprintf(p.writer, "%s\n", p.Colorize(Bold, label+":"))
	}
	switch p.format {
	case FormatJSON:
		return p.printJSON(payload)
	case FormatYAML:
		return p.printYAML(payload)
	default:
		return p.printText(payload)
	}
}

// RenderError writes a normalized failure.
func (p *Printer) RenderError(msg string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.writer, p.Colorize(Red, msg))
}

// RenderDocs writes a sorted name/doc listing.
func (p *Printer) RenderDocs(docs map[string]string) error {
	if p.quiet {
		return nil
	}
	if p.format == FormatJSON || p.format == FormatYAML {
		return p.Render("", docs)
	}
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	w := p.TableWriter()
	for _, name := range names {
		doc := docs[name]
		if doc == "" {
			doc = "(undocumented)"
		}
		fmt.Fprintf(w, "%s\t%s\n", p.Colorize(Cyan, name), doc)
	}
	return w.Flush()
}

func (p *Printer) printJSON(data any) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (p *Printer) printYAML(data any) error {
	enc := yaml.NewEncoder(p.writer)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(data)
}

func (p *Printer) printText(data any) error {
	switch v := data.(type) {
	case nil:
		_, err := fmt.Fprintln(p.writer, "None")
		return err
	case string:
		_, err := fmt.Fprintln(p.writer, v)
		return err
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		w := p.TableWriter()
		for _, k := range keys {
			fmt.Fprintf(w, "%s:\t%v\n", p.Colorize(Cyan, k), v[k])
		}
		return w.Flush()
	default:
		_, err := fmt.Fprintf(p.writer, "%v\n", v)
		return err
	}
}

// Color codes
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// Colorize adds color to text
func (p *Printer) Colorize(color, text string) string {
	if p.noColor {
		return text
	}
	return color + text + Reset
}

// TableWriter creates a tabwriter for aligned output
func (p *Printer) TableWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
}
