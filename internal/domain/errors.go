package domain

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrRequestNotFound = errors.New("connection request not found")

	ErrSelfReference  = errors.New("user cannot reference itself")
	ErrSelfFollow     = errors.New("you cannot follow yourself")
	ErrSelfConnect    = errors.New("you cannot connect with yourself")
	ErrInvalidRequest = errors.New("invalid connection request")

	ErrAlreadyFollowing = errors.New("you are already following this user")
	ErrAlreadyConnected = errors.New("you are already connected with this user")
	ErrRequestPending   = errors.New("connection request pending")
	ErrAlreadyAccepted  = errors.New("connection already accepted")

	// ErrRequestExists is returned by repositories when a request already
	// exists for the unordered pair. Services translate it into
	// ErrRequestPending or ErrAlreadyConnected.
	ErrRequestExists = errors.New("connection request already exists")

	ErrRateLimitExceeded = errors.New("too many connection requests sent recently")
)

// ErrorKind groups domain errors by how a caller should react to them.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindRateLimit  ErrorKind = "rate_limit"
	KindInternal   ErrorKind = "internal"
)

// KindOf classifies err. Anything that is not a known domain error is internal.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrSelfReference),
		errors.Is(err, ErrSelfFollow),
		errors.Is(err, ErrSelfConnect),
		errors.Is(err, ErrInvalidRequest):
		return KindValidation
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrRequestNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyFollowing),
		errors.Is(err, ErrAlreadyConnected),
		errors.Is(err, ErrRequestPending),
		errors.Is(err, ErrAlreadyAccepted),
		errors.Is(err, ErrRequestExists):
		return KindConflict
	case errors.Is(err, ErrRateLimitExceeded):
		return KindRateLimit
	default:
		return KindInternal
	}
}
