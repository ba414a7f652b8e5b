package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"estate-recommender/dashboard"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.HTTPAddr = serveAddr
		}
		if !strings.EqualFold(cfg.LogLevel, "debug") {
			gin.SetMode(gin.ReleaseMode)
		}

		loader, err := newLoader()
		if err != nil {
			return err
		}
		ds, err := loader.Load()
		if err != nil {
			return err
		}

		server, err := dashboard.NewServer(logger, loader, ds, dashboard.Options{CORSOrigins: cfg.CORSOrigins})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.Run(ctx, cfg.HTTPAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: HTTP_ADDR or :8501)")
	rootCmd.AddCommand(serveCmd)
}
