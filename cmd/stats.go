package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesloom-cli/internal/aggregate"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show storage status, the summary and recent report count",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		info := st.Info(ctx)
		s, err := st.Aggregate(ctx, owner())
		if err != nil {
			appLog().WithError(err).Error("aggregate failed")
			s = aggregate.Empty()
		}
		recent, err := st.RecentDrafts(ctx, time.Now().AddDate(0, 0, -30), owner())
		if err != nil {
			appLog().WithError(err).Error("recent drafts failed")
		}
		out := cmd.OutOrStdout()
		if statsJSON {
			b, err := utils.PrettyJSON(map[string]any{
				"status":                "success",
				"storage":               info,
				"data_summary":          s,
				"recent_articles_count": len(recent),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "Storage: %s (connected=%t, files=%d, users=%d)\n", info.Type, info.Connected, info.FileCount, info.UserCount)
		fmt.Fprintf(out, "Reports in the last 30 days: %d\n", len(recent))
		printSummary(out, s)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print stats as JSON")
}
