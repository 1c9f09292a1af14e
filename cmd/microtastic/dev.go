package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seriva/microtastic/internal/config"
	"github.com/seriva/microtastic/internal/dev"
)

func devCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with live reload.

The server watches for file changes and automatically refreshes
connected browsers. Errors show up as an overlay in the page.

Examples:
  microtastic dev
  microtastic dev --port=8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port, host)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from app.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from app.json)")

	return cmd
}

func runDev(port int, host string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}

	printBanner()
	fmt.Println("  dev")
	fmt.Println()

	server := dev.NewServer(cfg, dev.Options{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	info("serving %s", cfg.Src)
	info("metrics at http://%s/metrics", server.Addr())
	return server.Start(ctx)
}
