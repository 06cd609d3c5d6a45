// Package reliability implements the connection retry policy.
//
// A Policy wraps transport-touching operations and retries them a bounded
// number of times when they fail during connection establishment. Errors are
// classified through an IsRetryable() bool capability; anything that does not
// declare itself retryable surfaces immediately.
package reliability
