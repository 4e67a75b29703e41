package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesloom-cli/internal/ingest"
	"github.com/KaramelBytes/salesloom-cli/internal/report"
	"github.com/KaramelBytes/salesloom-cli/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API (upload, generate, reports, stats, users)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loaded()
		if err != nil {
			return err
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		gen, err := newGenerator(ctx, "", "")
		if err != nil {
			return err
		}
		srv := server.New(server.Options{
			Store:          st,
			Ingest:         ingest.NewService(st, appLog()),
			Drafter:        report.NewDrafter(gen, st, appLog(), report.WithLimits(c.MaxTokens, c.Temperature)),
			Log:            appLog(),
			AllowedOrigins: c.CORSAllowedOrigins,
		})
		addr := c.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8000)")
}
