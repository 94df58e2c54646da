package s3client

import (
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
)

// ErrBucketNotFound is returned when the destination bucket does not exist
var ErrBucketNotFound = errors.New("bucket not found")

var (
	notFoundCodes = map[string]bool{
		"NoSuchBucket": true,
		"NoSuchKey":    true,
		"NotFound":     true,
	}
	authCodes = map[string]bool{
		"AccessDenied":                 true,
		"InvalidAccessKeyId":           true,
		"SignatureDoesNotMatch":        true,
		"AuthorizationHeaderMalformed": true,
		"ExpiredToken":                 true,
	}
)

// errorResponse extracts the S3 error body carried by err, if any
func errorResponse(err error) (minio.ErrorResponse, bool) {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp, true
	}
	return resp, false
}

// IsNotFoundError reports a missing bucket or object
func IsNotFoundError(err error) bool {
	if errors.Is(err, ErrBucketNotFound) {
		return true
	}
	resp, ok := errorResponse(err)
	return ok && notFoundCodes[resp.Code]
}

// IsAuthError reports rejected or expired credentials. Retrying such an
// upload for the next frame will fail the same way.
func IsAuthError(err error) bool {
	resp, ok := errorResponse(err)
	return ok && authCodes[resp.Code]
}

// FormatError renders S3 error responses with their code
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	if resp, ok := errorResponse(err); ok {
		return fmt.Sprintf("S3 error: %s (code: %s)", resp.Message, resp.Code)
	}
	return err.Error()
}
