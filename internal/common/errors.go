package common

import "errors"

// Sentinel errors shared across the chat layers. Handlers map these onto
// HTTP status codes / socket events, so services wrap them with
// fmt.Errorf("...: %w", Err...) instead of inventing new strings.
var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("not authorized")
	ErrNotFound   = errors.New("not found")
)

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsAuth(err error) bool       { return errors.Is(err, ErrAuth) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
