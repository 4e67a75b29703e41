package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesloom-cli/internal/ingest"
	"github.com/KaramelBytes/salesloom-cli/internal/report"
	"github.com/KaramelBytes/salesloom-cli/internal/store"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

var (
	genFile      string
	genProvider  string
	genModel     string
	genMaxTokens int
	genTemp      float64
	genDryRun    bool
	genJSON      bool
	genOutputDir string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draft persona reports from the stored sales summary",
	Example: `  salesloom generate --dry-run
  salesloom generate --file march.csv
  salesloom generate --provider openrouter --model openai/gpt-4o-mini --json
  salesloom generate --output ./reports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loaded()
		if err != nil {
			return err
		}
		maxTokens, temp := c.MaxTokens, c.Temperature
		if cmd.Flags().Changed("max-tokens") && genMaxTokens > 0 {
			maxTokens = genMaxTokens
		}
		if cmd.Flags().Changed("temperature") {
			temp = genTemp
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if genFile != "" {
			data, err := os.ReadFile(genFile)
			if err != nil {
				return fmt.Errorf("read %s: %w", genFile, err)
			}
			res, err := ingest.NewService(st, appLog()).Ingest(ctx, data, filepath.Base(genFile), owner())
			if err != nil {
				return fmt.Errorf("file processing failed: %w", err)
			}
			if !genJSON {
				fmt.Fprintf(out, "✓ Ingested %s: %d rows stored\n", filepath.Base(genFile), res.RowsStored)
			}
		}

		if genDryRun {
			return dryRun(cmd, st, maxTokens, temp)
		}

		gen, err := newGenerator(ctx, genProvider, genModel)
		if err != nil {
			return err
		}
		d := report.NewDrafter(gen, st, appLog(), report.WithLimits(maxTokens, temp))
		if !genJSON {
			fmt.Fprintf(out, "⚙ Generating %d persona reports ...\n", len(report.Personas))
		}
		round, err := d.Run(ctx, owner())
		if errors.Is(err, report.ErrNoData) {
			return err
		}
		if err != nil {
			return fmt.Errorf("generation failed: %w", err)
		}
		if genOutputDir != "" {
			if err := writeDrafts(genOutputDir, round.Articles); err != nil {
				return err
			}
		}
		if genJSON {
			b, err := utils.PrettyJSON(round)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "✓ %d of %d reports generated (%s)\n", round.ArticlesGenerated, len(report.Personas), round.GenerationDate)
		for _, a := range round.Articles {
			fmt.Fprintf(out, "\n## %s\n\n%s\n", a.Title, a.Body)
		}
		if genOutputDir != "" {
			fmt.Fprintf(out, "\n✓ Wrote reports to %s\n", genOutputDir)
		}
		return nil
	},
}

func dryRun(cmd *cobra.Command, st store.Store, maxTokens int, temp float64) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	s, err := st.Aggregate(ctx, owner())
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	if s.RecordCount == 0 {
		return report.ErrNoData
	}
	d := report.NewDrafter(nil, st, appLog(), report.WithLimits(maxTokens, temp))
	prompts := d.Prompts(s)
	fmt.Fprintln(out, "--dry-run: no API call will be made. Prompt preview below --")
	fmt.Fprintf(out, "Request ID (dry-run): %s\n", uuid.NewString())
	for i, p := range report.Personas {
		fmt.Fprintf(out, "\n=== %s (max_tokens=%d temperature=%.2f, tokens≈%d) ===\n", p.Name,
			prompts[i].MaxTokens, prompts[i].Temperature, utils.CountTokens(prompts[i].Instructions+prompts[i].Context))
		fmt.Fprintln(out, prompts[i].Instructions)
		fmt.Fprintln(out)
		fmt.Fprintln(out, prompts[i].Context)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&genFile, "file", "f", "", "ingest this file before generating")
	generateCmd.Flags().StringVar(&genProvider, "provider", "", "text provider: gemini, openrouter or ollama (default from config)")
	generateCmd.Flags().StringVar(&genModel, "model", "", "model name (default from config)")
	generateCmd.Flags().IntVar(&genMaxTokens, "max-tokens", 0, "max output tokens per report (default from config)")
	generateCmd.Flags().Float64Var(&genTemp, "temperature", 0, "sampling temperature (default from config)")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "print the persona prompts without calling a provider")
	generateCmd.Flags().BoolVar(&genJSON, "json", false, "print the generation round as JSON")
	generateCmd.Flags().StringVarP(&genOutputDir, "output", "o", "", "also write each report as markdown into this directory")
}
