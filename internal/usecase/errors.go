package usecase

// DomainError is a client-caused failure (bad input, unknown lead, policy
// limit). Recoverable by the caller, never logged as a system fault.
type DomainError struct {
	Code    string
	Message string

	// Per-field details when Code is VALIDATION_ERROR, so the caller can
	// render field-level feedback instead of a generic message.
	Fields []ValidationError
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	_, ok := err.(*DomainError)
	return ok
}

// TechnicalError is a system-caused failure (store unreachable, constraint
// violation). Surfaced to the caller as a retryable internal error.
type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	_, ok := err.(*TechnicalError)
	return ok
}

// Verification outcomes. Each is a distinct user-facing result; the invalid
// one stays generic so a mismatch never hints how close the token was.
var (
	ErrInvalidToken        = &DomainError{Code: "INVALID_TOKEN", Message: "invalid verification token"}
	ErrVerificationExpired = &DomainError{Code: "VERIFICATION_EXPIRED", Message: "verification token expired"}
	ErrVerificationLocked  = &DomainError{Code: "VERIFICATION_LOCKED", Message: "too many failed attempts, verification locked"}
)
