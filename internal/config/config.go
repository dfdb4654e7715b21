// Package config resolves service configuration from the environment.
//
// Job names, region, table, bucket, and model ID are distinct keys on
// purpose: nothing may derive one from another.
package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds every environment-derived setting for the API and the
// inference entry point.
type Config struct {
	Region string `envconfig:"AWS_REGION" default:"eu-west-1"`

	// Glue job definitions started by the API.
	CategorizationJob string `envconfig:"CATEGORIZATION_GLUE_JOB" default:"data-categorization-job"`
	SegmentationJob   string `envconfig:"SEGMENTATION_GLUE_JOB" default:"data-segmentation-job"`

	// Lambda function the categorization Glue job calls for inference.
	InferenceFunction string `envconfig:"INFERENCE_FUNCTION_NAME" default:"data-categorization-inference"`

	// DynamoDB table owning result records.
	MetadataTable string `envconfig:"METADATA_TABLE_NAME" default:"data-categorization-file-metadata"`

	// S3 bucket for generated scripts and segmentation output.
	ScratchBucket string `envconfig:"SCRATCH_BUCKET_NAME" default:"data-categorization-temp"`
	ScriptPrefix  string `envconfig:"SCRIPT_PREFIX" default:"glue-scripts"`

	// Bedrock model (or inference profile ARN). May instead be resolved
	// from SSM at cold start, see boot.LoadModelID.
	ModelID string `envconfig:"BEDROCK_MODEL_ID"`

	LogLevel string `envconfig:"SEG_LOG_LEVEL" default:"info"`
}

// New reads the configuration from the environment.
func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
