// Package errutiltest asserts on oops-coded errors in tests. It lives apart
// from errutil so production binaries do not link testify.
package errutiltest

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/reward-auth/internal/errutil"
)

// Code fails t unless err carries the oops code want.
func Code(t testing.TB, err error, want string) bool {
	t.Helper()
	if !assert.Error(t, err) {
		return false
	}
	if _, ok := oops.AsOops(err); !ok {
		return assert.Fail(t, "error has no oops code", "want %s, got %T: %v", want, err, err)
	}
	return assert.Equal(t, want, errutil.Code(err), "oops code of %v", err)
}

// Context fails t unless err carries key=value in its oops context.
func Context(t testing.TB, err error, key string, value any) bool {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return assert.Fail(t, "error has no oops context", "got %T: %v", err, err)
	}
	return assert.Equal(t, value, oopsErr.Context()[key], "oops context %q of %v", key, err)
}
