package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seriva/microtastic/internal/config"
	"github.com/seriva/microtastic/internal/deploy"
)

func deployCmd() *cobra.Command {
	var (
		bucket string
		prefix string
		region string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Upload the build output to S3",
		Long: `Upload the contents of the output directory to an S3 bucket.

Credentials come from the standard AWS credential chain. Bucket,
prefix and region default to the deploy section of app.json.

Examples:
  microtastic deploy
  microtastic deploy --bucket=my-site --prefix=v2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(bucket, prefix, region)
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "S3 bucket (default from app.json)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix (default from app.json)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default from app.json)")

	return cmd
}

func runDeploy(bucket, prefix, region string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if bucket != "" {
		cfg.Deploy.Bucket = bucket
	}
	if prefix != "" {
		cfg.Deploy.Prefix = prefix
	}
	if region != "" {
		cfg.Deploy.Region = region
	}

	printBanner()
	fmt.Println("  deploy")
	fmt.Println()

	ctx := context.Background()
	publisher, err := deploy.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	publisher.OnUpload = func(up deploy.Upload) {
		info("uploaded %s (%d bytes)", up.Key, up.Size)
	}

	uploads, err := publisher.Publish(ctx, cfg.DistDir())
	if err != nil {
		return err
	}

	success("Deployed %d files to s3://%s/%s", len(uploads), cfg.Deploy.Bucket, cfg.Deploy.Prefix)
	return nil
}
