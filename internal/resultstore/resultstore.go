// Package resultstore persists inference result records in DynamoDB and
// retrieves the most recent record for a job.
//
// Selection scans the whole table and takes the max timestamp. That is
// acceptable for this corpus size only; a table keyed on job_name with a
// timestamp sort key is the shape to grow into.
package resultstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/dataseg/data-segmentation-api/internal/apperr"
)

// Record is a stored inference result. Immutable once written.
type Record struct {
	FileID               string         `json:"fileId" dynamodbav:"file_id"`
	FileName             string         `json:"fileName" dynamodbav:"file_name"`
	Timestamp            string         `json:"timestamp" dynamodbav:"timestamp"`
	JobName              string         `json:"jobName" dynamodbav:"job_name"`
	SuggestedCategories  []string       `json:"suggestedCategories" dynamodbav:"suggested_categories"`
	Reasoning            string         `json:"reasoning" dynamodbav:"reasoning"`
	SegmentationCriteria map[string]any `json:"segmentationCriteria" dynamodbav:"segmentation_criteria"`
	ScriptPath           string         `json:"scriptPath,omitempty" dynamodbav:"generated_script_path,omitempty"`
	SampleDataCount      int            `json:"sampleDataCount" dynamodbav:"sample_data_count"`
	Schema               []string       `json:"schema" dynamodbav:"schema"`
}

// API is the subset of the DynamoDB client this package uses.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store reads and writes result records in a single DynamoDB table.
type Store struct {
	client API
	table  string
}

// New creates a Store for the given table.
func New(client API, table string) *Store {
	return &Store{client: client, table: table}
}

// Put writes a record. The file ID is synthesized as {fileName}_{timestamp}
// so records are unique without a generated identifier. Timestamp and FileID
// are filled in if unset; the stored record is returned untouched otherwise.
func (s *Store) Put(ctx context.Context, rec *Record) (string, error) {
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if rec.FileID == "" {
		rec.FileID = fmt.Sprintf("%s_%s", rec.FileName, rec.Timestamp)
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return "", apperr.Service(apperr.KindServer, "Failed to marshal result record", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return "", apperr.Service(apperr.KindServer, "Failed to store results in DynamoDB", err)
	}

	log.Info().
		Str("fileId", rec.FileID).
		Str("job", rec.JobName).
		Msg("Result record stored")
	return rec.FileID, nil
}

// Latest returns the record with the greatest timestamp for jobName, or nil
// when the job has no records.
func (s *Store) Latest(ctx context.Context, jobName string) (*Record, error) {
	return s.scanLatest(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("job_name = :jobName"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":jobName": &types.AttributeValueMemberS{Value: jobName},
		},
	})
}

// LatestWithScript returns the most recent record that carries a generated
// script path, regardless of job name, or nil when none exists. The
// segmentation endpoint uses this to reuse whatever categorization run last
// produced a script.
func (s *Store) LatestWithScript(ctx context.Context) (*Record, error) {
	return s.scanLatest(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("attribute_exists(generated_script_path)"),
	})
}

// scanLatest runs a paginated scan and keeps the record with the maximum
// timestamp string.
func (s *Store) scanLatest(ctx context.Context, input *dynamodb.ScanInput) (*Record, error) {
	var latest *Record

	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, apperr.Service(apperr.KindServer, "Failed to read results from DynamoDB", err)
		}

		for _, item := range out.Items {
			var rec Record
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				log.Warn().Err(err).Msg("Skipping unreadable result record")
				continue
			}
			if latest == nil || rec.Timestamp > latest.Timestamp {
				r := rec
				latest = &r
			}
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	return latest, nil
}
