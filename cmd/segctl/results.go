package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dataseg/data-segmentation-api/internal/boot"
	"github.com/dataseg/data-segmentation-api/internal/resultstore"
)

func newResultsCmd() *cobra.Command {
	var withScript bool

	cmd := &cobra.Command{
		Use:   "results [jobName]",
		Short: "Show the most recent stored result record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aws, cfg := env()
			store := boot.InitResultStore(aws, cfg)

			jobName := cfg.CategorizationJob
			if len(args) == 1 {
				jobName = args[0]
			}

			latest := func() (*resultstore.Record, error) {
				if withScript {
					return store.LatestWithScript(cmd.Context())
				}
				return store.Latest(cmd.Context(), jobName)
			}
			rec, err := latest()
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no result records found")
			}
			return printJSON(rec)
		},
	}
	cmd.Flags().BoolVar(&withScript, "with-script", false, "select the latest record with a generated script, any job")
	return cmd
}
