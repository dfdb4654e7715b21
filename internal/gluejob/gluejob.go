// Package gluejob starts and polls Glue job runs for categorization and
// segmentation. It is a thin translation layer: every Glue failure is mapped
// onto a domain error and nothing is retried.
package gluejob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"

	"github.com/dataseg/data-segmentation-api/internal/apperr"
)

// Status is a Glue job run state as reported by the backend, plus the
// synthetic STARTED returned right after launch. The service only observes
// states; it never drives transitions.
type Status string

const (
	StatusStarted   Status = "STARTED"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
	StatusStopped   Status = "STOPPED"
	StatusTimeout   Status = "TIMEOUT"
)

// Terminal reports whether s is a terminal failure state.
func (s Status) Terminal() bool {
	return s == StatusFailed || s == StatusStopped || s == StatusTimeout
}

// Handle identifies a launched job run. Immutable once created.
type Handle struct {
	JobRunID string `json:"jobRunId"`
	JobName  string `json:"jobName"`
	Status   Status `json:"status"`
}

// RunStatus is the observed state of a job run.
type RunStatus struct {
	JobRunID     string `json:"jobRunId"`
	Status       Status `json:"status"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// API is the subset of the Glue client this package uses.
type API interface {
	StartJobRun(ctx context.Context, params *glue.StartJobRunInput, optFns ...func(*glue.Options)) (*glue.StartJobRunOutput, error)
	GetJobRun(ctx context.Context, params *glue.GetJobRunInput, optFns ...func(*glue.Options)) (*glue.GetJobRunOutput, error)
}

// Runner launches and polls Glue jobs using injected client and job names.
type Runner struct {
	client            API
	categorizationJob string
	segmentationJob   string
	scratchBucket     string
}

// NewRunner builds a Runner. The job names must be distinct configuration
// values; they are never derived from the region.
func NewRunner(client API, categorizationJob, segmentationJob, scratchBucket string) *Runner {
	return &Runner{
		client:            client,
		categorizationJob: categorizationJob,
		segmentationJob:   segmentationJob,
		scratchBucket:     scratchBucket,
	}
}

// CategorizationJob returns the configured categorization job name.
func (r *Runner) CategorizationJob() string { return r.categorizationJob }

// SegmentationJob returns the configured segmentation job name.
func (r *Runner) SegmentationJob() string { return r.segmentationJob }

// JobNameFor maps a job type query value to the configured job name.
// Anything other than "segmentation" selects the categorization job.
func (r *Runner) JobNameFor(jobType string) string {
	if jobType == "segmentation" {
		return r.segmentationJob
	}
	return r.categorizationJob
}

// StartCategorization starts the categorization job for the given source
// path, passing the inference function name the job invokes.
func (r *Runner) StartCategorization(ctx context.Context, sourcePath, inferenceFunction string) (*Handle, error) {
	log.Info().
		Str("job", r.categorizationJob).
		Str("sourcePath", sourcePath).
		Msg("Starting categorization Glue job")

	out, err := r.client.StartJobRun(ctx, &glue.StartJobRunInput{
		JobName: aws.String(r.categorizationJob),
		Arguments: map[string]string{
			"--S3_FILE_PATH":         sourcePath,
			"--LAMBDA_FUNCTION_NAME": inferenceFunction,
		},
	})
	if err != nil {
		return nil, r.translateStartError(err, r.categorizationJob)
	}

	handle := &Handle{
		JobRunID: aws.ToString(out.JobRunId),
		JobName:  r.categorizationJob,
		Status:   StatusStarted,
	}
	log.Info().Str("jobRunId", handle.JobRunID).Msg("Categorization Glue job started")
	return handle, nil
}

// StartSegmentation starts the segmentation job with a timestamped output
// path and the serialized criteria from the most recent categorization run.
func (r *Runner) StartSegmentation(ctx context.Context, sourcePath string, criteria map[string]any) (*Handle, error) {
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return nil, apperr.Service(apperr.KindServer, "Failed to serialize segmentation criteria", err)
	}

	outputPath := fmt.Sprintf("s3://%s/segmentation-output/%s",
		r.scratchBucket, time.Now().UTC().Format(time.RFC3339))

	log.Info().
		Str("job", r.segmentationJob).
		Str("sourcePath", sourcePath).
		Str("outputPath", outputPath).
		Msg("Starting segmentation Glue job")

	out, err := r.client.StartJobRun(ctx, &glue.StartJobRunInput{
		JobName: aws.String(r.segmentationJob),
		Arguments: map[string]string{
			"--s3_input_path":         sourcePath,
			"--s3_output_path":        outputPath,
			"--segmentation_criteria": string(criteriaJSON),
		},
	})
	if err != nil {
		return nil, r.translateStartError(err, r.segmentationJob)
	}

	handle := &Handle{
		JobRunID: aws.ToString(out.JobRunId),
		JobName:  r.segmentationJob,
		Status:   StatusStarted,
	}
	log.Info().Str("jobRunId", handle.JobRunID).Msg("Segmentation Glue job started")
	return handle, nil
}

// JobStatus polls a job run. Unknown runs map to NotFoundError; terminal
// failure states carry the backend's error message through.
func (r *Runner) JobStatus(ctx context.Context, jobRunID, jobName string) (*RunStatus, error) {
	out, err := r.client.GetJobRun(ctx, &glue.GetJobRunInput{
		JobName: aws.String(jobName),
		RunId:   aws.String(jobRunID),
	})
	if err != nil {
		var nfe *types.EntityNotFoundException
		if errors.As(err, &nfe) {
			return nil, apperr.NotFound(apperr.KindGlue, "Job run not found",
				fmt.Sprintf("The job run '%s' does not exist.", jobRunID))
		}
		return nil, apperr.Service(apperr.KindServer, "Error checking job status", err)
	}

	status := Status(out.JobRun.JobRunState)
	rs := &RunStatus{JobRunID: jobRunID, Status: status}
	if status.Terminal() {
		rs.ErrorMessage = aws.ToString(out.JobRun.ErrorMessage)
	}

	log.Info().
		Str("jobRunId", jobRunID).
		Str("job", jobName).
		Str("status", string(status)).
		Msg("Job run status observed")
	return rs, nil
}

// translateStartError maps a StartJobRun failure: a missing job definition
// is a configuration problem, any other API error a backend failure.
func (r *Runner) translateStartError(err error, jobName string) error {
	var nfe *types.EntityNotFoundException
	if errors.As(err, &nfe) {
		return apperr.Configuration(apperr.KindGlue, "Glue job not found",
			fmt.Sprintf("The Glue job '%s' does not exist. Please check your configuration.", jobName))
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apperr.Service(apperr.KindGlue, "AWS Glue service error", err)
	}
	return apperr.Service(apperr.KindServer, "Unexpected error starting Glue job", err)
}
