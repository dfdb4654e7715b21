// Package s3util covers the object-store shuttling this API does: checking
// that a source object exists and uploading generated scripts.
package s3util

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"

	"github.com/dataseg/data-segmentation-api/internal/apperr"
)

// scriptContentType marks uploaded scripts as Python source.
const scriptContentType = "text/x-python"

// API is the subset of the S3 client this package uses.
type API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// EnsureObject verifies that the object exists. A missing object is a
// validation failure — the caller supplied a path to nothing — while any
// other S3 failure is a backend error.
func EnsureObject(ctx context.Context, client API, bucket, key string) error {
	_, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return apperr.Validation("S3 file not found",
				fmt.Sprintf("The file 's3://%s/%s' does not exist in S3. Please check the file path and ensure the file has been uploaded.", bucket, key))
		}
		return apperr.Service(apperr.KindS3, "Unable to access S3 file", err)
	}

	log.Debug().Str("bucket", bucket).Str("key", key).Msg("S3 object exists")
	return nil
}

// UploadScript writes script content to the bucket and returns its s3:// path.
func UploadScript(ctx context.Context, client API, bucket, key, script string) (string, error) {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(script),
		ContentType: aws.String(scriptContentType),
	})
	if err != nil {
		return "", apperr.Service(apperr.KindS3, "Failed to upload script to S3", err)
	}

	path := fmt.Sprintf("s3://%s/%s", bucket, key)
	log.Info().Str("scriptPath", path).Int("bytes", len(script)).Msg("Script uploaded")
	return path, nil
}

// ScriptKey generates the object key for a generated segmentation script.
func ScriptKey(prefix, timestamp string) string {
	return fmt.Sprintf("%s/segmentation-script-%s.py", prefix, timestamp)
}

// FileName extracts the final path element of an S3 path.
func FileName(s3Path string) string {
	if i := strings.LastIndex(s3Path, "/"); i >= 0 {
		return s3Path[i+1:]
	}
	return s3Path
}
