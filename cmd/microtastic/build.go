package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seriva/microtastic/internal/build"
	"github.com/seriva/microtastic/internal/config"
)

func buildCmd() *cobra.Command {
	var (
		noMinify   bool
		sourceMaps bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Create a production build",
		Long: `Create a production build in the output directory.

The entry module is bundled through esbuild, assets get content-hashed
names, and index.html is rewritten to match.

Examples:
  microtastic build
  microtastic build --no-minify --sourcemaps`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(noMinify, sourceMaps)
		},
	}

	cmd.Flags().BoolVar(&noMinify, "no-minify", false, "Skip minification")
	cmd.Flags().BoolVar(&sourceMaps, "sourcemaps", false, "Generate source maps")

	return cmd
}

func runBuild(noMinify, sourceMaps bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	printBanner()
	fmt.Println("  build")
	fmt.Println()

	minify := *cfg.Build.Minify && !noMinify
	builder := build.New(cfg, build.Options{
		Minify:     minify,
		SourceMaps: sourceMaps || cfg.Build.SourceMaps,
		Hash:       true,
		OnProgress: func(step string) { info("%s", step) },
	})

	result, err := builder.Build(context.Background())
	if err != nil {
		return err
	}

	success("Built %d files in %s", len(result.Manifest)+2, result.Duration.Round(time.Millisecond))
	info("bundle: %s (%d bytes)", result.Bundle, result.BundleSize)
	info("output: %s", cfg.Dist)
	return nil
}
