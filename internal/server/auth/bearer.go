package auth

import (
	"errors"
	"strings"
)

var (
	ErrNoToken     = errors.New("no token provided")
	ErrTokenFormat = errors.New("token error")
	ErrTokenScheme = errors.New("token malformatted")
)

// Messages returned to callers rejected by the bearer gate, over HTTP and
// gRPC alike.
const (
	MsgNoToken        = "No token provided"
	MsgTokenError     = "Token error"
	MsgTokenMalformed = "Token malformatted"
	MsgInvalidToken   = "Invalid token"
)

// ParseBearer extracts the token from an "Authorization: Bearer <token>"
// value. The header must split on single spaces into exactly two parts and
// the scheme must be Bearer (any case).
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return "", ErrTokenFormat
	}

	if !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrTokenScheme
	}

	if parts[1] == "" {
		return "", ErrTokenFormat
	}

	return parts[1], nil
}

// ParseBearerValues is ParseBearer over every value of the header (or
// metadata key). More than one value is a format error.
func ParseBearerValues(values []string) (string, error) {
	switch len(values) {
	case 0:
		return ParseBearer("")
	case 1:
		return ParseBearer(values[0])
	default:
		return "", ErrTokenFormat
	}
}

// RejectionMessage is the caller-facing text for a ParseBearer error.
// Anything else is a failed verification.
func RejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return MsgNoToken
	case errors.Is(err, ErrTokenScheme):
		return MsgTokenMalformed
	case errors.Is(err, ErrTokenFormat):
		return MsgTokenError
	default:
		return MsgInvalidToken
	}
}
