// Package boot provides shared Lambda cold-start bootstrap logic.
//
// Both entry points need some subset of: AWS config, Glue, S3, DynamoDB,
// Bedrock, SSM parameter resolution, and startup logging. This package keeps
// each Lambda's init() a short composition of helpers.
package boot

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/dataseg/data-segmentation-api/internal/config"
	"github.com/dataseg/data-segmentation-api/internal/gluejob"
	"github.com/dataseg/data-segmentation-api/internal/inference"
	"github.com/dataseg/data-segmentation-api/internal/logging"
	"github.com/dataseg/data-segmentation-api/internal/resultstore"
)

// AWSClients holds the shared AWS config and the SSM client every entry
// point may need for parameter resolution.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config. Fatals on failure: a Lambda without
// credentials cannot serve anything.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitConfig reads the service configuration from the environment.
func InitConfig() *config.Config {
	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read environment configuration")
	}
	return cfg
}

// InitGlue creates the job runner from the shared config.
func InitGlue(aws AWSClients, cfg *config.Config) *gluejob.Runner {
	return gluejob.NewRunner(glue.NewFromConfig(aws.Config),
		cfg.CategorizationJob, cfg.SegmentationJob, cfg.ScratchBucket)
}

// InitResultStore creates the metadata store client.
func InitResultStore(aws AWSClients, cfg *config.Config) *resultstore.Store {
	return resultstore.New(dynamodb.NewFromConfig(aws.Config), cfg.MetadataTable)
}

// InitS3 creates the S3 client.
func InitS3(aws AWSClients) *s3.Client {
	return s3.NewFromConfig(aws.Config)
}

// InitInference creates the Bedrock adapter, resolving the model ID first.
func InitInference(aws AWSClients, cfg *config.Config) *inference.Client {
	return inference.NewClient(bedrockruntime.NewFromConfig(aws.Config), LoadModelID(aws.SSM, cfg))
}

// LoadModelID resolves the Bedrock model ID: the BEDROCK_MODEL_ID env value
// wins, then the SSM parameter named by SSM_MODEL_ID_PARAM. Fatals when
// neither is configured; there is no sensible default model.
func LoadModelID(ssmClient *ssm.Client, cfg *config.Config) string {
	if cfg.ModelID != "" {
		return cfg.ModelID
	}

	paramName := logging.EnvOrDefault("SSM_MODEL_ID_PARAM", "/data-segmentation/prod/bedrock-model-id")
	start := time.Now()
	result, err := ssmClient.GetParameter(context.Background(), &ssm.GetParameterInput{
		Name: aws.String(paramName),
	})
	if err != nil {
		log.Fatal().Err(err).Str("param", paramName).Msg("Failed to read Bedrock model ID from SSM")
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(start)).Msg("Bedrock model ID loaded from SSM")
	return aws.ToString(result.Parameter.Value)
}

// StartupLog begins a startup log entry for the given entry point, seeded
// with the init duration and the non-sensitive configuration values.
func StartupLog(name string, initStart time.Time, cfg *config.Config) *logging.StartupLogger {
	return logging.NewStartupLogger(name).
		InitDuration(time.Since(initStart)).
		GlueJob("categorization", cfg.CategorizationJob).
		GlueJob("segmentation", cfg.SegmentationJob).
		DynamoTable("metadata", cfg.MetadataTable).
		S3Bucket("scratch", cfg.ScratchBucket).
		Config("region", cfg.Region).
		Config("scriptPrefix", cfg.ScriptPrefix)
}
