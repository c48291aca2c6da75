package testutils

import "testing"

var _ TestingT = (testing.TB)(nil)

// TestingT is the part of testing.TB the helpers in this package need.
type TestingT interface {
	Helper()
	Log(args ...interface{})
	Logf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}
