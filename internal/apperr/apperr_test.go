package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("loading dashboard: %w", Timeout("orders sheet"))
	if got := KindOf(err); got != KindTimeout {
		t.Errorf("expected TIMEOUT, got %s", got)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Error("expected errors.Is(err, ErrTimeout)")
	}
}

func TestUpstreamDefaultsToSheetsUnavailable(t *testing.T) {
	err := Upstream("fetching parcels", nil)
	if !errors.Is(err, ErrSheetsUnavailable) {
		t.Error("expected ErrSheetsUnavailable in chain")
	}
	if KindOf(err) != KindUpstream {
		t.Errorf("expected UPSTREAM, got %s", KindOf(err))
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Errorf("expected INTERNAL, got %s", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindUpstream, http.StatusBadGateway},
		{KindTimeout, http.StatusGatewayTimeout},
		{KindConfiguration, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.kind); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(KindInternal, "aggregating", errors.New("bad state"))
	if err.Error() != "aggregating: bad state" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if Validation("bad date").Error() != "bad date" {
		t.Error("expected bare message without wrapped error")
	}
}
