// Package validate checks request input before any backend call is made.
// All checks are pure; nothing here touches the network.
package validate

import (
	"fmt"
	"strings"

	"github.com/dataseg/data-segmentation-api/internal/apperr"
)

// s3Scheme is the object-store URI scheme prefix every source path must use.
const s3Scheme = "s3://"

// SourcePath validates an s3:// URI and splits it into bucket and key.
// The key may contain further slashes; only the first separates the bucket.
func SourcePath(path string) (bucket, key string, err error) {
	if path == "" {
		return "", "", apperr.Validation("S3 file path is required",
			"Please provide the S3 path to the file you want to process")
	}
	if !strings.HasPrefix(path, s3Scheme) {
		return "", "", apperr.Validation("Invalid S3 path format",
			"S3 path must start with 's3://'")
	}
	rest := strings.TrimPrefix(path, s3Scheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", apperr.Validation("Invalid S3 path format",
			"Expected s3://<bucket>/<key>")
	}
	return bucket, key, nil
}

// RequiredFields reports the first required field that is absent or falsy
// (nil, empty string, false, or zero number).
func RequiredFields(body map[string]any, fields ...string) error {
	for _, f := range fields {
		if falsy(body[f]) {
			return apperr.Validation(fmt.Sprintf("Missing %s parameter", f),
				fmt.Sprintf("The %s field is required", f))
		}
	}
	return nil
}

func falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	default:
		return false
	}
}
