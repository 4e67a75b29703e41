package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all uploads, sales rows and reports of one user",
	Example: `  salesloom clear --user 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o := owner()
		if o == nil {
			return fmt.Errorf("--user is required")
		}
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		counts, err := st.Clear(ctx, o)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared user %d: %d sales rows, %d reports, %d uploads\n",
			*o, counts.SalesData, counts.Articles, counts.FileUploads)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
