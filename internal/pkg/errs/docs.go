// Package errs provides the typed errors shared by the order lifecycle service.
//
// Every error type follows the same pattern:
//   - a sentinel error variable (e.g. ErrObjectNotFound)
//   - a struct carrying the details of the failure
//   - constructors with and without cause
//   - Error() for formatting and Unwrap() returning the sentinel
//
// The sentinels double as the service's error taxonomy. KindOf classifies any
// error chain into a Kind, which the transport layer maps to a status code.
package errs
