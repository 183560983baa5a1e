package larafront

import "errors"

// Sentinel errors for binding and route operations.
var (
	ErrRouteNotFound      = errors.New("larafront: route not found")
	ErrBinding            = errors.New("larafront: invalid handler signature")
	ErrHandlerPanic       = errors.New("larafront: handler panicked")
	ErrControllerNotFound = errors.New("larafront: controller not found")
	ErrUnsupportedMethod  = errors.New("larafront: unsupported HTTP method")
	ErrNotBooted          = errors.New("larafront: engine not booted")
)

// IsRouteNotFound checks if err is a route lookup failure.
func IsRouteNotFound(err error) bool {
	return errors.Is(err, ErrRouteNotFound)
}

// IsBindingError checks if err came from parsing a handler signature.
func IsBindingError(err error) bool {
	return errors.Is(err, ErrBinding)
}

// IsHandlerPanic checks if err wraps a recovered handler panic.
func IsHandlerPanic(err error) bool {
	return errors.Is(err, ErrHandlerPanic)
}
