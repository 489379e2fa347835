package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_PutsTextPlain(t *testing.T) {
	t.Parallel()

	var gotMethod, gotType, gotBody string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer s.Close()

	payload := "fake_latency_seconds{source=\"a\",target=\"b\",direction=\"fwd\"} 0.5\n"
	res, err := NewClient(s.URL+"/metrics/job/j", time.Second).Push(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "text/plain", gotType)
	require.Equal(t, payload, gotBody)
}

func TestClient_ErrorIncludesStatusAndBody(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom\n"))
	}))
	defer s.Close()

	res, err := NewClient(s.URL, time.Second).Push(context.Background(), "\n")
	require.Error(t, err)
	require.Equal(t, KindBadStatus, KindOf(err))
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	require.Equal(t, "boom", res.Body)

	var pe *PushError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, http.StatusInternalServerError, pe.StatusCode)
	require.Contains(t, err.Error(), "500")
	require.Contains(t, err.Error(), "boom")
}

func TestClient_AcceptedIsNotSuccess(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer s.Close()

	_, err := NewClient(s.URL, time.Second).Push(context.Background(), "\n")
	require.Equal(t, KindBadStatus, KindOf(err))
}

func TestClient_Unreachable(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.NotFoundHandler())
	addr := s.URL
	s.Close()

	_, err := NewClient(addr, time.Second).Push(context.Background(), "\n")
	require.Error(t, err)
	require.Equal(t, KindUnreachable, KindOf(err), "err=%v", err)
}

func TestClient_Timeout(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer s.Close()

	_, err := NewClient(s.URL, 50*time.Millisecond).Push(context.Background(), "\n")
	require.Error(t, err)
	require.Equal(t, KindTimeout, KindOf(err), "err=%v", err)
}

func TestClient_InvalidURLIsOther(t *testing.T) {
	t.Parallel()

	_, err := NewClient("http://[::1", time.Second).Push(context.Background(), "\n")
	require.Equal(t, KindOther, KindOf(err))
}

func TestClient_DefaultTimeout(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultTimeout, NewClient("http://x", 0).Timeout())
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, KindNone, KindOf(nil))
	require.Equal(t, KindOther, KindOf(errors.New("plain")))
	require.Equal(t, KindTimeout, KindOf(&PushError{Kind: KindTimeout}))
	require.Equal(t, "bad_status", KindBadStatus.String())
	require.Equal(t, "ok", KindNone.String())
}
