// Package test provides assertion helpers shared by the package tests.
package test

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

// OK fails the test if err is not nil.
func OK(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatalf("%s unexpected error: %s", caller(), err)
	}
}

// Equals fails the test if exp is not deep equal to act.
func Equals(tb testing.TB, exp, act interface{}) {
	tb.Helper()
	if !reflect.DeepEqual(exp, act) {
		tb.Fatalf("%s\n\n\texp: %#v\n\n\tgot: %#v", caller(), exp, act)
	}
}

// Assert fails the test if the condition is false.
func Assert(tb testing.TB, condition bool, msg string, v ...interface{}) {
	tb.Helper()
	if !condition {
		tb.Fatalf("%s %s", caller(), fmt.Sprintf(msg, v...))
	}
}

// AssertNil fails the test if v is not nil.
func AssertNil(tb testing.TB, v interface{}) {
	tb.Helper()
	if v == nil {
		return
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return
		}
	}
	tb.Fatalf("%s expected nil got %#v", caller(), v)
}

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d:", filepath.Base(file), line)
}
