// Package errors provides structured application errors with HTTP mapping.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input errors
	CodeInvalidInput  Code = "INVALID_INPUT"
	CodeAlreadyExists Code = "ALREADY_EXISTS"

	// Authentication errors
	CodeUnauthenticated       Code = "UNAUTHENTICATED"
	CodeTokenExpired          Code = "TOKEN_EXPIRED"
	CodeTokenMalformed        Code = "TOKEN_MALFORMED"
	CodeTokenSignatureInvalid Code = "TOKEN_SIGNATURE_INVALID"

	// Authorization errors
	CodeForbidden          Code = "FORBIDDEN"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"

	// Storage errors
	CodeNotFound    Code = "NOT_FOUND"
	CodePersistence Code = "PERSISTENCE"

	// Collaborator errors
	CodeGeocodeFailed Code = "GEOCODE_FAILED"

	// Startup errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Unprocessable - validation failures, duplicate identities, unresolvable addresses
	case CodeInvalidInput,
		CodeAlreadyExists,
		CodeGeocodeFailed:
		return http.StatusUnprocessableEntity

	// Unauthorized - missing or unusable bearer token
	case CodeUnauthenticated,
		CodeTokenExpired,
		CodeTokenMalformed,
		CodeTokenSignatureInvalid:
		return http.StatusUnauthorized

	// Forbidden - known identity without rights, or rejected credentials
	case CodeForbidden,
		CodeInvalidCredentials:
		return http.StatusForbidden

	case CodeNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
