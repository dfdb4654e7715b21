// segctl is an operator CLI for the data segmentation pipeline. It talks to
// the same AWS backends as the Lambdas: start jobs, poll runs, inspect
// stored results, and exercise the inference function directly.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dataseg/data-segmentation-api/internal/boot"
	"github.com/dataseg/data-segmentation-api/internal/config"
	"github.com/dataseg/data-segmentation-api/internal/logging"
)

func main() {
	root := &cobra.Command{
		Use:           "segctl",
		Short:         "Operate the data segmentation pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newCategorizeCmd(),
		newStatusCmd(),
		newResultsCmd(),
		newInferCmd(),
	)

	logging.Init()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env builds the shared AWS and service configuration every subcommand
// needs. Called from RunE so flag parsing errors surface first.
func env() (boot.AWSClients, *config.Config) {
	return boot.InitAWS(), boot.InitConfig()
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
