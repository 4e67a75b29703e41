package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesloom-cli/internal/sales"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

var (
	drDays   int
	drOutput string
	drJSON   bool
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List recently generated reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		if drDays < 1 || drDays > 365 {
			return fmt.Errorf("--days must be between 1 and 365")
		}
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		drafts, err := st.RecentDrafts(ctx, time.Now().AddDate(0, 0, -drDays), owner())
		if err != nil {
			appLog().WithError(err).Error("recent drafts failed")
			drafts = []sales.Draft{}
		}
		out := cmd.OutOrStdout()
		if drOutput != "" {
			if err := writeDrafts(drOutput, drafts); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote %d reports to %s\n", len(drafts), drOutput)
			return nil
		}
		if drJSON {
			b, err := utils.PrettyJSON(drafts)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if len(drafts) == 0 {
			fmt.Fprintln(out, "(no reports)")
			return nil
		}
		for _, d := range drafts {
			fmt.Fprintf(out, "- #%d %s [%s] %s, %s words\n", d.ID, d.Title, d.Persona,
				humanize.Time(d.CreatedAt), humanize.Comma(int64(len(strings.Fields(d.Body)))))
		}
		return nil
	},
}

// writeDrafts saves each draft as <date>-<persona>[-<id>].md under dir.
func writeDrafts(dir string, drafts []sales.Draft) error {
	for _, d := range drafts {
		name := fmt.Sprintf("%s-%s", d.GeneratedOn.Format(sales.DateLayout), d.Persona)
		if d.ID > 0 {
			name += fmt.Sprintf("-%d", d.ID)
		}
		body := fmt.Sprintf("# %s\n\n%s\n", d.Title, strings.TrimSpace(d.Body))
		if err := utils.SafeWriteFile(filepath.Join(dir, name+".md"), []byte(body)); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(draftsCmd)
	draftsCmd.Flags().IntVar(&drDays, "days", 7, "look back this many days (1..365)")
	draftsCmd.Flags().StringVarP(&drOutput, "output", "o", "", "write the reports as markdown files into this directory")
	draftsCmd.Flags().BoolVar(&drJSON, "json", false, "print reports as JSON")
}
