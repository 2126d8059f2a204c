package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"geomancer/core/merge"
	"geomancer/core/output"
	"geomancer/core/spreadsheet"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	mergeColumns string
	mergeType    string
	mergeAppend  []string
	mergeOutDir  string
)

// mergeCmd runs one merge locally without the queue.
var mergeCmd = &cobra.Command{
	Use:   "merge [file]",
	Short: "Merge data into a local spreadsheet",
	Long: `Runs one merge job in-process and writes the result next to the input
or into --out. Example:

  geomancer merge people.csv --columns "3;4" --type "city;state" --append B01003,B19013`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMerge(cmd.Context(), args[0])
	},
}

func runMerge(ctx context.Context, path string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	sheet, err := spreadsheet.Read(path, data, a.cfg.Upload)
	if err != nil {
		return err
	}
	field, err := merge.ParseFieldDefinition(mergeColumns, merge.FieldSpec{Type: mergeType, AppendColumns: mergeAppend})
	if err != nil {
		return err
	}

	outDir := mergeOutDir
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	store, err := output.NewLocalStore(outDir, func(name string) string { return filepath.Join(outDir, name) })
	if err != nil {
		return err
	}

	in := merge.Input{Header: sheet.Header, Rows: sheet.Rows, Field: *field, Filename: filepath.Base(path)}
	a.log.Info("Merging", zap.String("file", path), zap.Int("rows", len(in.Rows)))
	summary, err := a.engine(store).Run(ctx, a.builder.Roster(), in, merge.NewResolutionCache())
	if err != nil {
		return err
	}

	if isJSONOutput(cmdOutput) {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}
	table := tablewriter.NewTable(os.Stdout)
	table.Header("Field", "Value")
	rows := [][]any{
		{"Output", summary.DownloadURL},
		{"Geography", summary.GeographyColumn},
		{"Rows", summary.NumRows},
		{"Matched", summary.NumMatches},
		{"Missing", summary.NumMissing},
		{"Columns added", strings.Join(summary.ColsAdded, "\n")},
	}
	if len(summary.Errors) > 0 {
		rows = append(rows, []any{"Warnings", strings.Join(summary.Errors, "\n")})
	}
	for _, row := range rows {
		if err := table.Append(row...); err != nil {
			return err
		}
	}
	return table.Render()
}

func init() {
	mergeCmd.Flags().StringVar(&mergeColumns, "columns", "", "0-based source column index, \";\"-separated for two-column geographies")
	mergeCmd.Flags().StringVar(&mergeType, "type", "", "Geography type, e.g. zip_5 or city;state")
	mergeCmd.Flags().StringSliceVar(&mergeAppend, "append", nil, "Table ids to append")
	mergeCmd.Flags().StringVar(&mergeOutDir, "out", "", "Output directory (defaults to the input directory)")
	_ = mergeCmd.MarkFlagRequired("columns")
	_ = mergeCmd.MarkFlagRequired("type")
	_ = mergeCmd.MarkFlagRequired("append")
	RootCmd.AddCommand(mergeCmd)
}
