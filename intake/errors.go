package intake

// ValidationError reports a rejected intake request.
// Message is the client-facing error text.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	errEmptyBody     = &ValidationError{Message: "empty body"}
	errInvalidJSON   = &ValidationError{Message: "invalid json"}
	errBodyTooLarge  = &ValidationError{Message: "body too large"}
	errInvalidUserID = &ValidationError{Field: "user_id", Message: "invalid user_id"}
)

func missing(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "missing " + field}
}
