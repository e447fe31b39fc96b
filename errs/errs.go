// Package errs defines the failure taxonomy shared by the cache, pipeline and
// entity packages. Every value is a *goerrors.Error so callers can inspect the
// category, text code and metadata uniformly.
package errs

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to the errors produced by this module.
const (
	TextCodeNotFound          = "NOT_FOUND"
	TextCodeValidation        = "QUERY_INVALID"
	TextCodeAlreadyLoaded     = "ALREADY_LOADED"
	TextCodeTransformMismatch = "TRANSFORM_MISMATCH"
)

// NotFound reports that every stage missed for the given type and query.
func NotFound(typeName string, query fmt.Stringer) *goerrors.Error {
	q := "<nil>"
	if query != nil {
		q = query.String()
	}
	return goerrors.New(fmt.Sprintf("%s not found for %s", typeName, q), goerrors.CategoryNotFound).
		WithTextCode(TextCodeNotFound).
		WithMetadata(map[string]any{"type": typeName, "query": q})
}

// Validation wraps a query validation failure. Ozzo field errors are kept as
// individual field errors on the result.
func Validation(typeName string, err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return goerrors.FromOzzoValidation(err, fmt.Sprintf("invalid query for %s", typeName)).
		WithTextCode(TextCodeValidation).
		WithMetadata(map[string]any{"type": typeName})
}

// AlreadyLoaded reports a load request for a group that is already loaded.
func AlreadyLoaded(kind, group string) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("%s: load group %q already loaded", kind, group), goerrors.CategoryConflict).
		WithTextCode(TextCodeAlreadyLoaded).
		WithMetadata(map[string]any{"kind": kind, "group": group})
}

// TransformMismatch reports a missing transformer path between two types.
func TransformMismatch(from, to string) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("no transformer from %s to %s", from, to), goerrors.CategoryInternal).
		WithTextCode(TextCodeTransformMismatch).
		WithMetadata(map[string]any{"from": from, "to": to})
}

// IsNotFound reports whether err, or anything it wraps, is a NotFound error.
func IsNotFound(err error) bool {
	return goerrors.HasCategory(err, goerrors.CategoryNotFound)
}

// IsValidation reports whether err is a query validation failure.
func IsValidation(err error) bool {
	return goerrors.HasCategory(err, goerrors.CategoryValidation)
}

// IsAlreadyLoaded reports whether err signals a duplicate group load.
func IsAlreadyLoaded(err error) bool {
	return hasTextCode(err, TextCodeAlreadyLoaded)
}

// IsTransformMismatch reports whether err signals a missing transformer.
func IsTransformMismatch(err error) bool {
	return hasTextCode(err, TextCodeTransformMismatch)
}

func hasTextCode(err error, code string) bool {
	for err != nil {
		var e *goerrors.Error
		if !goerrors.As(err, &e) {
			return false
		}
		if e.TextCode == code {
			return true
		}
		err = e.Source
	}
	return false
}
