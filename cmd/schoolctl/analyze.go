package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/school-map-service/internal/adapter/udir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newAnalyzeCmd(_ *env) *cobra.Command {
	var writeMapping string
	cmd := &cobra.Command{
		Use:   "analyze <csv>",
		Short: "Show the structure of a UDIR export and suggest a column mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := udir.ReadFile(args[0])
			if err != nil {
				return err
			}
			a := udir.Analyze(t)
			if err := printAnalysis(cmd.OutOrStdout(), args[0], a); err != nil {
				return err
			}
			if writeMapping == "" {
				return nil
			}
			data, err := yaml.Marshal(a.Mapping)
			if err != nil {
				return fmt.Errorf("encode mapping: %w", err)
			}
			if err := os.WriteFile(writeMapping, data, 0o644); err != nil {
				return fmt.Errorf("write mapping: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nmapping written to %s\n", writeMapping)
			return nil
		},
	}
	cmd.Flags().StringVar(&writeMapping, "write-mapping", "", "write the suggested mapping as YAML to this path")
	return cmd
}

func printAnalysis(w io.Writer, path string, a udir.Analysis) error {
	var b strings.Builder
	fmt.Fprintf(&b, "File:      %s\n", path)
	fmt.Fprintf(&b, "Encoding:  %s\n", a.Format.Encoding)
	fmt.Fprintf(&b, "Delimiter: %s\n", a.Format.DelimiterName())
	if a.Format.SepLine {
		b.WriteString("Sep line:  yes\n")
	}
	fmt.Fprintf(&b, "Rows:      %d\n\n", a.RowCount)

	fmt.Fprintf(&b, "Columns (%d):\n", len(a.Columns))
	for i, col := range a.Columns {
		sample := a.Sample[col]
		if len(sample) > 40 {
			sample = sample[:40] + "..."
		}
		fmt.Fprintf(&b, "  %2d. %-40s %s\n", i+1, col, sample)
	}

	b.WriteString("\nSuggested columns:\n")
	for _, field := range udir.SuggestionFields {
		cols := a.Suggestions[field]
		if len(cols) == 0 {
			fmt.Fprintf(&b, "  %-13s (none found)\n", field)
			continue
		}
		fmt.Fprintf(&b, "  %-13s %s\n", field, strings.Join(cols, ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
