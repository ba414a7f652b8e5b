package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"estate-recommender/dashboard"
	"estate-recommender/snapshot"
)

var (
	snapshotURL string
	snapshotOut string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture PNG screenshots of the dashboard views",
	Long: `snapshot opens the price, grade and recommendation views of the dashboard
in headless Chrome and saves a full-page PNG of each. Without --url it
serves the configured dataset on a local ephemeral port first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("out") {
			cfg.SnapshotDir = snapshotOut
		}

		base := snapshotURL
		if base == "" {
			url, shutdown, err := serveLocally()
			if err != nil {
				return err
			}
			defer shutdown()
			base = url
		}

		results, err := snapshot.New(cfg, logger).Capture(cmd.Context(), base, snapshot.DefaultViews())
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  ✗ %-15s %v\n", r.View, r.Err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  ✓ %-15s %s (%d bytes)\n", r.View, r.Path, r.Bytes)
		}
		return err
	},
}

// serveLocally starts the dashboard on 127.0.0.1 with an OS-assigned port.
func serveLocally() (string, func(), error) {
	gin.SetMode(gin.ReleaseMode)

	loader, err := newLoader()
	if err != nil {
		return "", nil, err
	}
	ds, err := loader.Load()
	if err != nil {
		return "", nil, err
	}
	server, err := dashboard.NewServer(logger, loader, ds, dashboard.Options{})
	if err != nil {
		return "", nil, err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("snapshot: listen: %w", err)
	}
	srv := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[snapshot] Local dashboard stopped: %v", err)
		}
	}()

	url := "http://" + ln.Addr().String() + "/"
	logger.Info("[snapshot] Serving dataset %s at %s", ds.ID, url)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return url, shutdown, nil
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotURL, "url", "", "dashboard base URL (default: serve locally)")
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "", "PNG output directory (default: SNAPSHOT_DIR)")
	rootCmd.AddCommand(snapshotCmd)
}
