// The api-lambda binary serves the data segmentation HTTP API behind an
// API Gateway HTTP API (payload format v2). It validates requests, starts
// AWS Glue job runs, and reads job results back from DynamoDB.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/go-chi/cors"

	"github.com/dataseg/data-segmentation-api/internal/boot"
	"github.com/dataseg/data-segmentation-api/internal/logging"
)

var adapter *httpadapter.HandlerAdapterV2

func init() {
	initStart := time.Now()
	logging.Init()

	aws := boot.InitAWS()
	cfg := boot.InitConfig()

	srv := newServer(
		boot.InitGlue(aws, cfg),
		boot.InitResultStore(aws, cfg),
		boot.InitS3(aws),
		cfg.InferenceFunction,
	)

	handler := withRequestID(withMetrics(withCORS(srv.routes())))
	adapter = httpadapter.NewV2(handler)

	boot.StartupLog("api-lambda", initStart, cfg).
		LambdaFunc("inference", cfg.InferenceFunction).
		Log()
}

// withCORS allows the local frontend during development. API Gateway does
// not terminate CORS for this API, so the Lambda answers preflights itself.
func withCORS(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Special-Header"},
		AllowCredentials: true,
		MaxAge:           600,
	})(next)
}

func handleRequest(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return adapter.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handleRequest)
}
