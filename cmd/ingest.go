package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesloom-cli/internal/ingest"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

var (
	ingName string
	ingJSON bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest CSV/XLSX sales exports into storage",
	Example: `  salesloom ingest sales-2024.csv
  salesloom ingest q1.xlsx q2.xlsx --user 3
  salesloom ingest export.csv --name "March export" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingName != "" && len(args) > 1 {
			return fmt.Errorf("--name can only be used with a single file")
		}
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		svc := ingest.NewService(st, appLog())

		out := cmd.OutOrStdout()
		var results []*ingest.Result
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			name := filepath.Base(path)
			if ingName != "" {
				name = ingName
			}
			res, err := svc.Ingest(ctx, data, name, owner())
			if err != nil {
				return err
			}
			results = append(results, res)
			if ingJSON {
				continue
			}
			if res.DuplicateUpload {
				fmt.Fprintf(out, "⚠ %s: already uploaded, skipped (%s)\n", name, res.Fingerprint[:12])
				continue
			}
			fmt.Fprintf(out, "✓ %s: %d rows stored (%d processed)\n", name, res.RowsStored, res.RowsProcessed)
			for _, n := range res.Notes {
				fmt.Fprintf(out, "  · %s\n", n)
			}
			for _, in := range res.Insights {
				fmt.Fprintf(out, "  - %s\n", in)
			}
		}
		if ingJSON {
			var v any = results
			if len(results) == 1 {
				v = results[0]
			}
			b, err := utils.PrettyJSON(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingName, "name", "", "display name stored for the upload (default: file name)")
	ingestCmd.Flags().BoolVar(&ingJSON, "json", false, "print the ingestion result as JSON")
}
