package scoring

import "fmt"

// ResponseError indicates a provider returned a response that failed JSON
// parsing, schema validation, or field validation. The response is discarded
// entirely; a malformed response is never partially trusted.
type ResponseError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *ResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s response error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s response error: %s", e.Provider, e.Message)
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// AllProvidersFailedError indicates every provider exhausted its retries
// without producing a valid judgment. This is fatal for the scoring run.
type AllProvidersFailedError struct {
	Providers int
}

func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all %d providers failed to produce a valid score", e.Providers)
}
