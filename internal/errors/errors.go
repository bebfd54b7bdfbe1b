package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated is returned when no valid identity can be resolved.
	ErrUnauthenticated = errors.New("please login to access this route")
	// ErrForbidden is returned when the resolved role is not allowed.
	ErrForbidden = errors.New("you are not authorized to access this route")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a token fails signature or expiry checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSessionNotFound is returned when a structurally valid token has no
	// live session snapshot behind it.
	ErrSessionNotFound = errors.New("session not found, please login again")
	// ErrInvalidActivationCode is returned when the emailed code does not match.
	ErrInvalidActivationCode = errors.New("invalid activation code")

	// ErrUserNotFound is returned when a user id resolves to nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrCourseNotFound is returned when a course id resolves to nothing.
	ErrCourseNotFound = errors.New("course not found")
	// ErrContentNotFound is returned when a content item is missing from a course.
	ErrContentNotFound = errors.New("course content not found")
	// ErrQuestionNotFound is returned when a question is missing from a content item.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrReviewNotFound is returned when a review is missing from a course.
	ErrReviewNotFound = errors.New("review not found")
	// ErrNotificationNotFound is returned when a notification id resolves to nothing.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrEmailExists is returned when registering or updating to a taken email.
	ErrEmailExists = errors.New("email already exists")
	// ErrAlreadyPurchased is returned when the buyer is already enrolled.
	ErrAlreadyPurchased = errors.New("course already purchased")

	// ErrInvalidInput is returned for malformed ids and missing required fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidRating is returned when a review rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrPaymentNotConfirmed is returned when the payment provider reports
	// anything other than success for the supplied reference.
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	// ErrDependencyFailure is returned when a downstream dependency is unavailable.
	ErrDependencyFailure = errors.New("service dependency unavailable")
)

// ErrorResponse is the JSON error envelope rendered at the boundary.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: e.Message,
		Code:    e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Stack traces and raw
// dependency errors never reach the response.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrCourseNotFound),
		errors.Is(err, ErrContentNotFound),
		errors.Is(err, ErrQuestionNotFound),
		errors.Is(err, ErrReviewNotFound),
		errors.Is(err, ErrNotificationNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, ErrEmailExists),
		errors.Is(err, ErrAlreadyPurchased):
		return NewHTTPError(http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidRating),
		errors.Is(err, ErrInvalidActivationCode):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_INPUT")
	case errors.Is(err, ErrPaymentNotConfirmed):
		return NewHTTPError(http.StatusPaymentRequired, err.Error(), "PAYMENT_NOT_CONFIRMED")
	case errors.Is(err, ErrDependencyFailure):
		return NewHTTPError(http.StatusServiceUnavailable, err.Error(), "DEPENDENCY_FAILURE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
