package errs

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"new validation", New(KindValidation, "bad input"), KindValidation},
		{"newf conflict", Newf(KindConflict, "revision %d stale", 3), KindConflict},
		{"wrapped storage", Wrap(stderrs.New("boom"), KindStorage, "query failed"), KindStorage},
		{"outermost wins", Wrap(New(KindConflict, "lost race"), KindStorage, "gave up"), KindStorage},
		{"foreign error", stderrs.New("boom"), KindUnknown},
		{"fmt wrapped ours", fmt.Errorf("outer: %w", New(KindTimeout, "deadline")), KindTimeout},
		{"nil", nil, KindUnknown},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, KindOf(c.err))
		})
	}
}

func TestErrorRendering(t *testing.T) {
	var nilErr *Error
	require.Equal(t, "<nil>", nilErr.Error())

	plain := New(KindStorage, "query failed")
	require.Equal(t, "query failed", plain.Error())

	wrapped := Wrapf(stderrs.New("connection refused"), KindStorage, "query %s", "detections")
	require.Equal(t, "query detections: connection refused", wrapped.Error())
	require.Equal(t, "connection refused", stderrs.Unwrap(wrapped).Error())
}

func TestIsKind(t *testing.T) {
	err := Wrap(stderrs.New("boom"), KindTimeout, "deadline expired")
	require.True(t, IsKind(err, KindTimeout))
	require.False(t, IsKind(err, KindStorage))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(KindRequest, "bad body"), http.StatusBadRequest},
		{New(KindValidation, "bad field"), http.StatusBadRequest},
		{New(KindNotFound, "missing"), http.StatusNotFound},
		{New(KindConflict, "stale"), http.StatusConflict},
		{New(KindStorage, "db down"), http.StatusInternalServerError},
		{New(KindTimeout, "deadline"), http.StatusInternalServerError},
		{stderrs.New("foreign"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		require.Equal(t, c.want, HTTPStatus(c.err), "error %v", c.err)
	}
}
