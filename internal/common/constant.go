package common

const (
	// AuthorizationHeaderName carries "Bearer <token>" on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// AuthorizationMetadataKey is the gRPC metadata key for the same value.
	// gRPC lower-cases metadata keys.
	AuthorizationMetadataKey = "authorization"

	// RequestIDHeaderName correlates a request across logs and responses.
	RequestIDHeaderName = "X-Request-ID"
)
