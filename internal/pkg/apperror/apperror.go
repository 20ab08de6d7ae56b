package apperror

import "errors"

// Kind classifies an AppError independently of its HTTP code so callers can
// branch on the business meaning of a failure.
type Kind string

const (
	KindValidation                Kind = "validation"
	KindResourceUnavailable       Kind = "resource_unavailable"
	KindHorizonExceeded           Kind = "horizon_exceeded"
	KindSchedulingConflict        Kind = "scheduling_conflict"
	KindCancellationWindowExpired Kind = "cancellation_window_expired"
	KindInvalidTransition         Kind = "invalid_transition"
	KindNotFound                  Kind = "not_found"
	KindPermissionDenied          Kind = "permission_denied"
	KindUnauthorized              Kind = "unauthorized"
	KindDuplicate                 Kind = "duplicate"
	KindResourceInUse             Kind = "resource_in_use"
)

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Kind    Kind   // Business category of the failure
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError carrying the same kind and message, so a wrapped
// copy still satisfies errors.Is against the package sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates a new AppError with a status code, kind and message.
func New(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the Kind of the first AppError in err's chain, or "" when
// err is not a business error (e.g. a store failure).
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
