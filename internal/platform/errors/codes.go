// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// User errors
	CodeUserEmptyName       Code = "USER_EMPTY_NAME"
	CodeUserEmptyEmail      Code = "USER_EMPTY_EMAIL"
	CodeUserInvalidEmail    Code = "USER_INVALID_EMAIL"
	CodeUserInvalidRole     Code = "USER_INVALID_ROLE"
	CodeUserPasswordShort   Code = "USER_PASSWORD_TOO_SHORT"
	CodeUserPasswordLong    Code = "USER_PASSWORD_TOO_LONG"
	CodeUserEmailTaken      Code = "USER_EMAIL_TAKEN"
	CodeUserFederatedOnly   Code = "USER_FEDERATED_ONLY"
	CodeUserPasswordInvalid Code = "USER_CURRENT_PASSWORD_INVALID"

	// Authentication errors
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeAccountDisabled    Code = "ACCOUNT_DISABLED"
	CodeForbidden          Code = "FORBIDDEN"

	// OAuth errors
	CodeOAuthDisabled     Code = "OAUTH_DISABLED"
	CodeOAuthInvalidState Code = "OAUTH_INVALID_STATE"
	CodeOAuthFailed       Code = "OAUTH_FAILED"
	CodeOAuthMissingEmail Code = "OAUTH_MISSING_EMAIL"

	// Storage errors
	CodeNotFound    Code = "NOT_FOUND"
	CodeUnavailable Code = "UNAVAILABLE"

	// Rate limiting
	CodeTooManyRequests Code = "TOO_MANY_REQUESTS"

	// Routing
	CodeRouteNotFound    Code = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed Code = "METHOD_NOT_ALLOWED"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// 400 - validation failures, bad input, duplicates
	case CodeInvalidRequest,
		CodeUserEmptyName,
		CodeUserEmptyEmail,
		CodeUserInvalidEmail,
		CodeUserInvalidRole,
		CodeUserPasswordShort,
		CodeUserPasswordLong,
		CodeUserEmailTaken,
		CodeUserFederatedOnly,
		CodeUserPasswordInvalid,
		CodeOAuthInvalidState:
		return http.StatusBadRequest

	// 401 - missing or invalid identity
	case CodeInvalidCredentials,
		CodeUnauthenticated,
		CodeOAuthFailed,
		CodeOAuthMissingEmail:
		return http.StatusUnauthorized

	// 403 - identity established but not allowed
	case CodeAccountDisabled,
		CodeForbidden:
		return http.StatusForbidden

	case CodeNotFound,
		CodeOAuthDisabled,
		CodeRouteNotFound:
		return http.StatusNotFound

	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed

	case CodeTooManyRequests:
		return http.StatusTooManyRequests

	case CodeUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
