// The inference-lambda binary is invoked directly by the categorization
// Glue job. It calls Bedrock to categorize sampled rows, generates a
// segmentation script, uploads it to S3, and records the result in DynamoDB.
package main

import (
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/dataseg/data-segmentation-api/internal/boot"
	"github.com/dataseg/data-segmentation-api/internal/logging"
)

var h *handler

func init() {
	initStart := time.Now()
	logging.Init()

	aws := boot.InitAWS()
	cfg := boot.InitConfig()

	h = newHandler(
		boot.InitInference(aws, cfg),
		boot.InitResultStore(aws, cfg),
		boot.InitS3(aws),
		cfg,
	)

	boot.StartupLog("inference-lambda", initStart, cfg).Log()
}

func main() {
	lambda.Start(h.Handle)
}
