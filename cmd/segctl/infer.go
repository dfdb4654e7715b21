package main

import (
	"encoding/json"
	"fmt"
	"os"

	svclambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/spf13/cobra"
)

// newInferCmd invokes the inference function directly with an event read
// from a JSON file, bypassing Glue. Useful for prompt and model debugging.
func newInferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "infer <event.json>",
		Short: "Invoke the inference function with an event payload file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if !json.Valid(payload) {
				return fmt.Errorf("%s is not valid JSON", args[0])
			}

			aws, cfg := env()
			out, err := svclambda.NewFromConfig(aws.Config).Invoke(cmd.Context(), &svclambda.InvokeInput{
				FunctionName: &cfg.InferenceFunction,
				Payload:      payload,
			})
			if err != nil {
				return err
			}
			if out.FunctionError != nil {
				return fmt.Errorf("inference function error: %s: %s", *out.FunctionError, out.Payload)
			}

			var resp map[string]any
			if err := json.Unmarshal(out.Payload, &resp); err != nil {
				return fmt.Errorf("decode inference response: %w", err)
			}
			return printJSON(resp)
		},
	}
}
