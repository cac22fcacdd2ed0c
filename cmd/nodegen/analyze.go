package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/nodegen/internal/cli"
	"github.com/pthm/nodegen/internal/codegen"
	"github.com/pthm/nodegen/internal/codegen/manifest"
	"github.com/pthm/nodegen/internal/version"
	"github.com/pthm/nodegen/pkg/schema"
)

var (
	analyzeSchema schemaFlags
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Show variants and boxing decisions",
	Long: `Show the union variants of the root message, every boxed field with the
containment cycle that forces it, and the root fields that are not variants.`,
	Example: `  # Print a table of variants and boxed fields
  nodegen analyze --schema sqltree.proto --root Node

  # Print the analysis as YAML
  nodegen analyze --schema sqltree.proto --format yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		an, source, err := analyzeSchema.load(cmd.Context())
		if err != nil {
			return err
		}

		switch analyzeFormat {
		case "", "text":
			printAnalysis(cmd.OutOrStdout(), an)
			return nil
		case "yaml":
			m := manifest.Build(an, &codegen.Config{Version: version.Short(), Source: filepath.ToSlash(source)})
			out, err := yaml.Marshal(m)
			if err != nil {
				return cli.GeneralError("encoding analysis", err)
			}
			_, _ = cmd.OutOrStdout().Write(out)
			return nil
		default:
			return cli.ConfigError(fmt.Sprintf("unknown format %q (want text or yaml)", analyzeFormat), nil)
		}
	},
}

func init() {
	f := analyzeCmd.Flags()
	analyzeSchema.register(f)
	f.StringVar(&analyzeFormat, "format", "text", "output format: text or yaml")
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
	boxedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func printAnalysis(w io.Writer, an *schema.Analysis) {
	_, _ = fmt.Fprintf(w, "%s %s (%d variants)\n\n", headingStyle.Render("Root"), an.Root.Name, len(an.Variants))

	header := []string{"TAG", "FIELD", "#", "PAYLOAD", "BOXED"}
	rows := make([][]string, 0, len(an.Variants))
	for _, v := range an.Variants {
		boxed := ""
		if v.Boxed {
			boxed = "yes"
		}
		rows = append(rows, []string{v.Tag, v.Field, strconv.Itoa(int(v.Number)), v.Payload, boxed})
	}
	writeTable(w, header, rows)

	boxed := an.BoxedFields()
	_, _ = fmt.Fprintf(w, "\n%s (%d)\n", headingStyle.Render("Boxed fields"), len(boxed))
	for _, b := range boxed {
		_, _ = fmt.Fprintf(w, "  %s\n", boxedStyle.Render(b.String()))
	}

	if rec := an.RecursiveMessages(); len(rec) > 0 {
		_, _ = fmt.Fprintf(w, "\n%s (%d)\n", headingStyle.Render("Recursive messages"), len(rec))
		for _, name := range rec {
			_, _ = fmt.Fprintf(w, "  %s\n", name)
		}
	}

	if len(an.Skipped) > 0 {
		_, _ = fmt.Fprintf(w, "\n%s (%d)\n", headingStyle.Render("Skipped root fields"), len(an.Skipped))
		for _, s := range an.Skipped {
			_, _ = fmt.Fprintf(w, "  %s\n", faintStyle.Render(s))
		}
	}
}

// writeTable renders left-aligned columns sized to their widest cell.
func writeTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style.Width(widths[i]).Render(cell)
		}
		return strings.TrimRight("  "+strings.Join(parts, "  "), " ")
	}

	_, _ = fmt.Fprintln(w, render(header, headerStyle))
	plain := lipgloss.NewStyle()
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, render(row, plain))
	}
}
