package utils_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"bitbucket.org/mmdatafocus/distribution_backend/utils"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{utils.Validationf("bad input"), http.StatusBadRequest},
		{utils.NotFoundf("invoice 5 not found"), http.StatusNotFound},
		{utils.Conflictf("already cancelled"), http.StatusConflict},
		{utils.Upstream(errors.New("dial tcp: connection refused")), http.StatusBadGateway},
		{errors.New("some driver error"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		if got := utils.HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestClientMessageNeverLeaksRawErrors(t *testing.T) {
	raw := errors.New("Error 1045: Access denied for user 'root'")
	if got := utils.ClientMessage(raw); got != "internal error" {
		t.Fatalf("raw errors must not reach clients, got %q", got)
	}

	wrapped := utils.Upstream(raw)
	if got := utils.ClientMessage(wrapped); got != "upstream store unavailable" {
		t.Fatalf("got %q", got)
	}
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("posting failed: %w", utils.Conflictf("order 3 is already cancelled"))
	kind, ok := utils.KindOf(err)
	if !ok || kind != utils.ErrorKindConflict {
		t.Fatalf("KindOf = (%v, %v), want (Conflict, true)", kind, ok)
	}
}

func TestUpstreamNilPassesThrough(t *testing.T) {
	if utils.Upstream(nil) != nil {
		t.Fatal("Upstream(nil) must be nil")
	}
}
