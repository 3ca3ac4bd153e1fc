package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestHTTPStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeStructural, http.StatusBadRequest},
		{ErrorCodeDecode, http.StatusBadRequest},
		{ErrorCodeUnexpectedEOF, http.StatusBadRequest},
		{ErrorCodeSizeLimit, http.StatusRequestEntityTooLarge},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeIO, http.StatusInternalServerError},
		{ErrorCodePanic, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
		{9999, http.StatusInternalServerError}, // default branch
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestErrorTypeAndMethods(t *testing.T) {
	// nil *Error should render "<nil>"
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q, want <nil>", e.Error())
	}

	// New / Newf
	e1 := New(ErrorCodeValidation, "bad stuff")
	if CodeOf(e1) != ErrorCodeValidation {
		t.Fatalf("CodeOf(New) = %v", CodeOf(e1))
	}
	e2 := Newf(ErrorCodeDecode, "bad record %d", 12)
	if got := e2.Error(); got != "bad record 12" {
		t.Fatalf("Newf().Error = %q", got)
	}

	// Wrap / Wrapf / Unwrap
	src := stderrs.New("root")
	e3 := Wrap(src, ErrorCodeIO, "read failed")
	if u := stderrs.Unwrap(e3); u == nil || u.Error() != "root" {
		t.Fatalf("Wrap did not keep orig")
	}
	if CodeOf(e3) != ErrorCodeIO {
		t.Fatalf("CodeOf(Wrap) = %v", CodeOf(e3))
	}
	e4 := Wrapf(src, ErrorCodeStructural, "bad %s", "shape")
	// Error() includes message + ": " + orig
	if want := "bad shape: root"; e4.Error() != want {
		t.Fatalf("Wrapf().Error = %q, want %q", e4.Error(), want)
	}

	// As
	if got, ok := As(e4); !ok || got.Code() != ErrorCodeStructural {
		t.Fatalf("As() failed for our error")
	}
	if _, ok := As(src); ok {
		t.Fatalf("As() true for foreign error")
	}

	// WithField (copy-on-write) and WithOp
	e5 := Wrap(src, ErrorCodeInvalidArgument, "oops")
	e6 := WithField(e5, "source")
	e7 := WithOp(e6, "convert")
	if fe, ok := As(e6); !ok || fe.Field() != "source" {
		t.Fatalf("WithField failed")
	}
	if oe, ok := As(e7); !ok || oe.Op() != "convert" {
		t.Fatalf("WithOp failed")
	}
	// original unchanged
	if fe0, _ := As(e5); fe0.Field() != "" || fe0.Op() != "" {
		t.Fatalf("copy-on-write mutated original")
	}

	// Wire / WireFrom
	w := (&Error{code: ErrorCodeValidation, msg: "nope", field: "file"}).ToWire()
	if w.Code != ErrorCodeValidation || w.Message != "nope" || w.Field != "file" {
		t.Fatalf("ToWire mismatch: %+v", w)
	}
	if wf := WireFrom(nil); wf != (Wire{}) {
		t.Fatalf("WireFrom(nil) expected zero, got %+v", wf)
	}
	// WireFrom for foreign error -> Unknown with original message
	if wf := WireFrom(src); wf.Code != ErrorCodeUnknown || wf.Message != "root" {
		t.Fatalf("WireFrom(foreign) mismatch: %+v", wf)
	}
	// WireFrom for our error uses only e.msg (not "msg: orig")
	if wf := WireFrom(e4); wf.Code != ErrorCodeStructural || wf.Message != "bad shape" {
		t.Fatalf("WireFrom(ours) mismatch: %+v", wf)
	}

	// HTTP and HTTPStatus
	if st, _ := HTTP(nil); st != http.StatusOK {
		t.Fatalf("HTTP(nil) status = %d", st)
	}
	if st := HTTPStatus(e3); st != http.StatusInternalServerError {
		t.Fatalf("HTTPStatus mismatch")
	}

	// Helpers (sugar) and IsCode
	if !IsCode(NotFoundf("x"), ErrorCodeNotFound) ||
		!IsCode(InvalidArgf("x"), ErrorCodeInvalidArgument) ||
		!IsCode(Structuralf("x"), ErrorCodeStructural) ||
		!IsCode(UnexpectedEOFf("x"), ErrorCodeUnexpectedEOF) ||
		!IsCode(Decodef("x"), ErrorCodeDecode) ||
		!IsCode(PanicErrf("x"), ErrorCodePanic) ||
		!IsCode(Unavailablef("x"), ErrorCodeUnavailable) ||
		!IsCode(IOErrf(src, "x"), ErrorCodeIO) {
		t.Fatalf("sugar helpers code mismatch")
	}

	// SizeLimitf embeds both numbers
	sl := SizeLimitf(1024, 2048)
	if !IsCode(sl, ErrorCodeSizeLimit) {
		t.Fatalf("SizeLimitf code mismatch")
	}
	if msg := sl.Error(); !strings.Contains(msg, "2048") || !strings.Contains(msg, "1024") {
		t.Fatalf("SizeLimitf message missing sizes: %q", msg)
	}

	// WrapIf
	if WrapIf(nil, ErrorCodeIO, "ignored") != nil {
		t.Fatalf("WrapIf(nil) should return nil")
	}
	if WrapIf(src, ErrorCodeIO, "io") == nil {
		t.Fatalf("WrapIf(non-nil) should wrap")
	}

	// Root traversal
	deep := fmt.Errorf("level2: %w", fmt.Errorf("level1: %w", src))
	if got := Root(deep); got == nil || got.Error() != "root" {
		t.Fatalf("Root() failed, got %v", got)
	}

	// ErrNotFound sentinel behavior
	if !IsCode(ErrNotFound, ErrorCodeNotFound) {
		t.Fatalf("ErrNotFound code mismatch")
	}
}
