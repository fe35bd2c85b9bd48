package store

import (
	"errors"
	"strings"
	"testing"
)

func TestStoreErrorMessage(t *testing.T) {
	underlying := errors.New("connection refused")
	err := &StoreError{Op: "find", Collection: "watersample", Err: underlying}

	msg := err.Error()
	if !strings.Contains(msg, "find") || !strings.Contains(msg, "watersample") || !strings.Contains(msg, "connection refused") {
		t.Errorf("message = %q", msg)
	}
}

func TestStoreErrorUnwrap(t *testing.T) {
	underlying := errors.New("no reachable servers")
	err := &StoreError{Op: "aggregate", Collection: "watersample", Err: underlying}

	if !errors.Is(err, underlying) {
		t.Error("Unwrap should expose the underlying error")
	}

	var serr *StoreError
	if !errors.As(error(err), &serr) {
		t.Error("errors.As should match *StoreError")
	}
}
