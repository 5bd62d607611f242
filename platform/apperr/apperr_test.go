package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errSentinel = errors.New("sentinel")

func TestHTTPStatusByKind(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindValidation, http.StatusBadRequest},
		{KindBadRequest, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindUnprocessable, http.StatusUnprocessableEntity},
		{KindUnavailable, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
		{KindUnknown, http.StatusBadRequest},
	}

	for _, tc := range cases {
		if got := New(tc.kind, "x").HTTPStatus(); got != tc.want {
			t.Errorf("kind %d: expected %d, got %d", tc.kind, tc.want, got)
		}
	}
}

func TestWrapKeepsSentinelReachable(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(KindConflict, "lead changed", errSentinel).WithOp("leads.update"))

	if !errors.Is(err, errSentinel) {
		t.Fatalf("expected sentinel to be reachable through wrapping")
	}
	if GetKind(err) != KindConflict {
		t.Fatalf("expected KindConflict, got %d", GetKind(err))
	}
	if !Is(err, KindConflict) {
		t.Fatalf("expected Is to match KindConflict")
	}
}

func TestErrorMessageIncludesOp(t *testing.T) {
	err := NotFound("lead not found").WithOp("leads.get")
	if err.Error() != "leads.get: lead not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if GetKind(errSentinel) != KindUnknown {
		t.Fatalf("plain errors must report KindUnknown")
	}
}
