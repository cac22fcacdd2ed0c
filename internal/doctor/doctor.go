// Package doctor checks that committed generated code matches its schema.
//
// The check command regenerates every file in memory and compares it against
// the files on disk. A mismatch is classified from the generated header: a
// different schema fingerprint means the schema changed since generation, a
// different generator version means nodegen was upgraded, and anything else
// means the file was edited by hand.
//
// Example usage:
//
//	d := doctor.New(doctor.Options{Schema: "sqltree.proto", Root: "Node", Output: "."})
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pthm/nodegen/internal/codegen"
	"github.com/pthm/nodegen/internal/logging"
	"github.com/pthm/nodegen/pkg/descriptor"
	"github.com/pthm/nodegen/pkg/schema"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates generated code that does not match the schema.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single check.
type CheckResult struct {
	// Category groups related checks ("Schema", "Generated Code").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	// Group checks by category
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Options configures a Doctor.
type Options struct {
	Schema      string
	ImportPaths []string
	Root        string

	// Target is the generator whose output is compared.
	Target string
	// Output is the directory holding the committed files.
	Output string
	// Config is passed to the generator unchanged.
	Config *codegen.Config
}

// Doctor compares committed generated files against fresh output.
type Doctor struct {
	opts Options

	// Cached data from checks (populated during Run)
	analysis *schema.Analysis
	gen      codegen.Generator
	expected map[string][]byte
}

// New creates a new Doctor instance.
func New(opts Options) *Doctor {
	if opts.Target == "" {
		opts.Target = "go"
	}
	return &Doctor{opts: opts}
}

// Run executes all checks and returns a report. Check failures are reported,
// not returned; the error is reserved for I/O failures reading the output
// directory.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if !d.checkSchema(ctx, report) {
		return report, nil
	}
	if !d.checkGenerate(report) {
		return report, nil
	}
	if err := d.checkFiles(ctx, report); err != nil {
		return nil, fmt.Errorf("checking generated files: %w", err)
	}
	return report, nil
}

// checkSchema loads and analyzes the schema.
func (d *Doctor) checkSchema(ctx context.Context, report *Report) bool {
	catalog, err := descriptor.Load(ctx, d.opts.Schema, d.opts.ImportPaths...)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: "Schema",
			Name:     "loaded",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Schema could not be loaded from %s", d.opts.Schema),
			Details:  err.Error(),
			FixHint:  "Run 'nodegen validate' to see detailed errors",
		})
		return false
	}

	report.AddCheck(CheckResult{
		Category: "Schema",
		Name:     "loaded",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Schema loaded (%d messages, %d enums)", len(catalog.Messages), len(catalog.Enums)),
	})

	an, err := schema.Analyze(catalog, d.opts.Root)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: "Schema",
			Name:     "analyzed",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Root %s cannot be generated", d.opts.Root),
			Details:  err.Error(),
			FixHint:  "Run 'nodegen analyze' to inspect the union",
		})
		return false
	}
	d.analysis = an

	boxed := 0
	for _, v := range an.Variants {
		if v.Boxed {
			boxed++
		}
	}
	report.AddCheck(CheckResult{
		Category: "Schema",
		Name:     "analyzed",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Union %s has %d variants (%d boxed)", an.Root.Name, len(an.Variants), boxed),
	})

	if len(an.Skipped) > 0 {
		report.AddCheck(CheckResult{
			Category: "Schema",
			Name:     "skipped",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d root fields are not variants", len(an.Skipped)),
			Details:  strings.Join(an.Skipped, "\n"),
			FixHint:  "Only singular message fields of the root become variants",
		})
	}
	return true
}

// checkGenerate renders the expected files in memory.
func (d *Doctor) checkGenerate(report *Report) bool {
	g := codegen.Get(d.opts.Target)
	if g == nil {
		report.AddCheck(CheckResult{
			Category: "Generated Code",
			Name:     "target",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Unknown target %q", d.opts.Target),
			FixHint:  "Available targets: " + strings.Join(codegen.List(), ", "),
		})
		return false
	}

	files, err := g.Generate(d.analysis, d.opts.Config)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: "Generated Code",
			Name:     "generate",
			Status:   StatusFail,
			Message:  "Generation failed",
			Details:  err.Error(),
		})
		return false
	}
	d.gen = g
	d.expected = files
	return true
}

// checkFiles compares each expected file with its committed copy.
func (d *Doctor) checkFiles(ctx context.Context, report *Report) error {
	log := logging.FromContext(ctx)

	names := make([]string, 0, len(d.expected))
	for name := range d.expected {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		path := filepath.Join(d.opts.Output, name)
		want := d.expected[name]

		got, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			report.AddCheck(CheckResult{
				Category: "Generated Code",
				Name:     name,
				Status:   StatusFail,
				Message:  fmt.Sprintf("%s is missing", path),
				FixHint:  "Run 'nodegen generate' and commit the result",
			})
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		log.Debug("comparing generated file", "path", path, "bytes", len(got))

		report.AddCheck(d.compare(path, name, got, want))
	}
	return nil
}

// compare classifies a committed file against the expected output. A file
// whose only difference is the generator version is re-rendered with that
// version; it passes with a warning only if the bytes then match.
func (d *Doctor) compare(path, name string, got, want []byte) CheckResult {
	result := CheckResult{Category: "Generated Code", Name: name}
	if bytes.Equal(got, want) {
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%s is up to date", path)
		return result
	}

	have, gen := ParseStamp(got), ParseStamp(want)
	if have.Fingerprint == gen.Fingerprint && have.Version != gen.Version {
		if rendered := d.renderAs(name, have.Version); rendered != nil {
			want = rendered
		}
	}
	switch {
	case have.Fingerprint != gen.Fingerprint:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s was generated from a different schema", path)
		result.Details = fmt.Sprintf("File fingerprint:   %s\nSchema fingerprint: %s", orNone(have.Fingerprint), gen.Fingerprint)
		result.FixHint = "Run 'nodegen generate' to regenerate"
	case have.Version != gen.Version && bytes.Equal(got, want):
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s was generated by a different nodegen version", path)
		result.Details = fmt.Sprintf("File: %s, current: %s", orNone(have.Version), gen.Version)
		result.FixHint = "Run 'nodegen generate' to regenerate with this version"
	default:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s was modified after generation", path)
		result.Details = fmt.Sprintf("First difference at line %d", firstDiffLine(got, want))
		result.FixHint = "Generated files must not be edited; run 'nodegen generate'"
	}
	return result
}

// renderAs regenerates name stamped with version. It returns nil when the
// version is unknown or generation fails, which never matches a file.
func (d *Doctor) renderAs(name, version string) []byte {
	if version == "" {
		return nil
	}
	cfg := codegen.Resolve(d.opts.Config, d.gen.DefaultConfig())
	cfg.Version = version
	files, err := d.gen.Generate(d.analysis, cfg)
	if err != nil {
		return nil
	}
	return files[name]
}

// Stamp is the provenance recorded in a generated file.
type Stamp struct {
	Version     string
	Fingerprint string
}

var (
	versionRe     = regexp.MustCompile(`(?m)^(?://\s*Code generated by nodegen (\S+)\. DO NOT EDIT\.|generator: "?nodegen ([^\s"]+)"?)\s*$`)
	fingerprintRe = regexp.MustCompile(`(?m)^(?://\s*Schema fingerprint: |fingerprint: "?)blake3:([0-9a-f]+)"?\s*$`)
)

// ParseStamp extracts the generator version and schema fingerprint from a Go
// header or a manifest. Missing values are empty.
func ParseStamp(src []byte) Stamp {
	var s Stamp
	if m := versionRe.FindSubmatch(src); m != nil {
		s.Version = string(m[1]) + string(m[2])
	}
	if m := fingerprintRe.FindSubmatch(src); m != nil {
		s.Fingerprint = string(m[1])
	}
	return s
}

func firstDiffLine(a, b []byte) int {
	al, bl := bytes.Split(a, []byte("\n")), bytes.Split(b, []byte("\n"))
	for i := range min(len(al), len(bl)) {
		if !bytes.Equal(al[i], bl[i]) {
			return i + 1
		}
	}
	return min(len(al), len(bl)) + 1
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
