package intent

type validationError struct{ reason string }

func (e *validationError) Error() string { return "invalid classification: " + e.reason }

type providerError struct{ err error }

func (e *providerError) Error() string { return "generate: " + e.err.Error() }

func (e *providerError) Unwrap() error { return e.err }
