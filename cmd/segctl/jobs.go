package main

import (
	"github.com/spf13/cobra"

	"github.com/dataseg/data-segmentation-api/internal/boot"
	"github.com/dataseg/data-segmentation-api/internal/validate"
)

func newCategorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categorize s3://bucket/path/to/file",
		Short: "Start a categorization job for an S3 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := validate.SourcePath(args[0]); err != nil {
				return err
			}

			aws, cfg := env()
			runner := boot.InitGlue(aws, cfg)
			handle, err := runner.StartCategorization(cmd.Context(), args[0], cfg.InferenceFunction)
			if err != nil {
				return err
			}
			return printJSON(handle)
		},
	}
}

func newStatusCmd() *cobra.Command {
	var jobType string

	cmd := &cobra.Command{
		Use:   "status <jobRunId>",
		Short: "Show the state of a job run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aws, cfg := env()
			runner := boot.InitGlue(aws, cfg)

			rs, err := runner.JobStatus(cmd.Context(), args[0], runner.JobNameFor(jobType))
			if err != nil {
				return err
			}
			return printJSON(rs)
		},
	}
	cmd.Flags().StringVar(&jobType, "type", "categorize", "job type: categorize or segmentation")
	return cmd
}
