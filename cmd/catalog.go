package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"geomancer/feature/catalog"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	cmdOutput  string
	cmdGeoType string
)

func isJSONOutput(format string) bool {
	return strings.EqualFold(format, "json")
}

// geotypesCmd lists the supported geography types.
var geotypesCmd = &cobra.Command{
	Use:   "geotypes",
	Short: "List supported geography types",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := catalog.NewService(nil, nil)
		types, err := svc.GeoTypes(cmdGeoType)
		if err != nil {
			return err
		}
		if isJSONOutput(cmdOutput) {
			return writeJSON(os.Stdout, types)
		}

		table := tablewriter.NewTable(os.Stdout)
		table.Header("Machine Name", "Name", "Description", "Example", "Validated")
		for _, t := range types {
			if err := table.Append(string(t.Kind), t.Name, t.Description, t.Example, t.HasValidator()); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

// sourcesCmd lists the data sources and their tables.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List data sources and their tables",
	Long:  `Lists every registered data source. Sources missing an API key are shown with the construction error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.log.Sync()

		sources, err := catalog.NewService(a.builder, a.log).DataSources(ctx, cmdGeoType)
		if err != nil {
			return err
		}
		if isJSONOutput(cmdOutput) {
			return writeJSON(os.Stdout, sources)
		}

		table := tablewriter.NewTable(os.Stdout)
		table.Header("Source", "Table", "Name", "Geography Types")
		for _, s := range sources {
			if s.Error != "" {
				if err := table.Append(s.ID, "-", s.Error, ""); err != nil {
					return err
				}
				continue
			}
			for _, t := range s.Tables {
				kinds := make([]string, len(t.GeoTypes))
				for i, k := range t.GeoTypes {
					kinds[i] = string(k)
				}
				if err := table.Append(s.ID, t.TableID, t.HumanName, strings.Join(kinds, ", ")); err != nil {
					return err
				}
			}
		}
		return table.Render()
	},
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{geotypesCmd, sourcesCmd} {
		c.Flags().StringVar(&cmdGeoType, "geo-type", "", "Only entries supporting this geography type")
		RootCmd.AddCommand(c)
	}
	RootCmd.PersistentFlags().StringVarP(&cmdOutput, "output", "o", "table", "Output format (table, json)")
}
