package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

var usersJSON bool

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users that own uploads and reports",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <username> <email>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		u, err := st.CreateUser(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created user %s (id %d)\n", u.Username, u.ID)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		users, err := st.ListUsers(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if usersJSON {
			b, err := utils.PrettyJSON(users)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if len(users) == 0 {
			fmt.Fprintln(out, "(no users)")
			return nil
		}
		for _, u := range users {
			fmt.Fprintf(out, "- %d: %s <%s>\n", u.ID, u.Username, u.Email)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersListCmd)
	usersListCmd.Flags().BoolVar(&usersJSON, "json", false, "print users as JSON")
}
