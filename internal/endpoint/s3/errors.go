package s3

import (
	"errors"
	"net/http"

	errs "github.com/javi11/remotefile/internal/errors"
	"github.com/javi11/remotefile/pkg/endpoint"
	"github.com/minio/minio-go/v7"
)

// classify marks object-store failures that a retry cannot fix. Throttling,
// timeouts, server errors and transport failures stay retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == 0 && resp.Code == "" {
		// Transport failure, no response.
		return err
	}

	switch resp.Code {
	case "SlowDown", "RequestTimeout", "RequestTimeTooSkewed", "InternalError", "ServiceUnavailable":
		return err
	}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return err
	}

	return errs.WrapNonRetryable(err)
}

// toStatus converts an object-store failure into an endpoint status. The
// errno is the HTTP status code of the response, 0 when none was received.
func toStatus(op string, err error) *endpoint.Status {
	var st *endpoint.Status
	if errors.As(err, &st) {
		return st
	}

	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return endpoint.NewStatus(endpoint.CodeConnection, 0, op, err)
	}

	code := endpoint.CodeIO
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		code = endpoint.CodeNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "AllAccessDisabled":
		code = endpoint.CodePermission
	case "BucketAlreadyExists", "BucketAlreadyOwnedByYou", "PreconditionFailed":
		code = endpoint.CodeAlreadyExists
	case "InvalidRange", "InvalidArgument", "InvalidBucketName", "XMinioInvalidObjectName":
		code = endpoint.CodeInvalidArgs
	case "NotImplemented":
		code = endpoint.CodeNotSupported
	default:
		if resp.StatusCode == http.StatusNotFound {
			code = endpoint.CodeNotFound
		}
	}

	return endpoint.NewStatus(code, resp.StatusCode, op, err)
}

func isNotFound(err error) bool {
	return toStatus("", err).Code == endpoint.CodeNotFound
}
