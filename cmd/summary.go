package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesloom-cli/internal/aggregate"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

var sumJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the aggregate summary of stored sales",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		s, err := st.Aggregate(ctx, owner())
		if err != nil {
			appLog().WithError(err).Error("aggregate failed")
			s = aggregate.Empty()
		}
		if sumJSON {
			b, err := utils.PrettyJSON(s)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		printSummary(cmd.OutOrStdout(), s)
		return nil
	},
}

func printSummary(w io.Writer, s aggregate.Summary) {
	if s.RecordCount == 0 {
		fmt.Fprintln(w, "(no sales data)")
		return
	}
	fmt.Fprintf(w, "Total sales:   %s\n", aggregate.FormatMoney(s.TotalSales))
	fmt.Fprintf(w, "Transactions:  %s\n", humanize.Comma(int64(s.RecordCount)))
	fmt.Fprintf(w, "Average order: %s\n", aggregate.FormatMoney(s.AverageSales))
	fmt.Fprintf(w, "Products:      %d\n", s.UniqueProducts)
	fmt.Fprintf(w, "Regions:       %d\n", s.UniqueRegions)
	if s.DateRange != nil {
		fmt.Fprintf(w, "Period:        %s to %s (%d days)\n", s.DateRange.Start, s.DateRange.End, s.DateRange.Days())
	}
	if len(s.TopProducts) > 0 {
		fmt.Fprintln(w, "Top products:")
		for i, p := range s.TopProducts {
			fmt.Fprintf(w, "  %d. %s  %s\n", i+1, p.Product, aggregate.FormatMoney(p.TotalSales))
		}
	}
	if len(s.Insights) > 0 {
		fmt.Fprintln(w, "Insights:")
		for _, in := range s.Insights {
			fmt.Fprintf(w, "  - %s\n", in)
		}
	}
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().BoolVar(&sumJSON, "json", false, "print the summary as JSON")
}
