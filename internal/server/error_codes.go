package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument = 1000
	ErrCodeInvalidJSON     = 1001
	ErrCodeRequestTooLarge = 1002
	ErrCodeInvalidID       = 1003
	ErrCodeInvalidURI      = 1004

	// Domain state (2xxx)
	ErrCodeImageNotFound = 2001

	// Limits (3xxx)
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal           = 4001
	ErrCodeWriteFailed        = 4002
	ErrCodeReadFailed         = 4003
	ErrCodeNotInitialized     = 4006
	ErrCodeStorageUnavailable = 4007
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 404:
		return ErrCodeImageNotFound
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	case 503:
		return ErrCodeReadFailed
	default:
		return 0
	}
}
