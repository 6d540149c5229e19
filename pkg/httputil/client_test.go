package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/catxpapa/catxframeup/pkg/errors"
)

func testClient() *Client {
	c := NewClient(time.Second)
	c.Delay = time.Millisecond
	return c
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("missing User-Agent")
		}
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	body, err := testClient().Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "hello" {
		t.Errorf("body = %q", body)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct{ OK bool }
	if err := testClient().GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !out.OK || calls.Load() != 3 {
		t.Errorf("ok = %v after %d calls, want true after 3", out.OK, calls.Load())
	}
}

func TestClientStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  errors.Code
		wantCalls int32
	}{
		{"not found", http.StatusNotFound, errors.ErrCodeNotFound, 1},
		{"bad request", http.StatusBadRequest, errors.ErrCodeInvalidInput, 1},
		{"server error exhausts retries", http.StatusInternalServerError, errors.ErrCodeNetwork, DefaultAttempts},
		{"rate limited", http.StatusTooManyRequests, errors.ErrCodeNetwork, DefaultAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := testClient().Get(context.Background(), srv.URL)
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err %v)", got, tt.wantCode, err)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestClientTimeouts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	t.Run("client timeout is retried", func(t *testing.T) {
		calls.Store(0)
		c := NewClient(50 * time.Millisecond)
		c.Delay = time.Millisecond
		_, err := c.Get(context.Background(), srv.URL)
		if got := errors.GetCode(err); got != errors.ErrCodeTimeout {
			t.Errorf("code = %q, want TIMEOUT (err %v)", got, err)
		}
		if calls.Load() != DefaultAttempts {
			t.Errorf("calls = %d, want %d", calls.Load(), DefaultAttempts)
		}
	})

	t.Run("caller deadline stops retries", func(t *testing.T) {
		calls.Store(0)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := testClient().Get(ctx, srv.URL)
		if got := errors.GetCode(err); got != errors.ErrCodeTimeout {
			t.Errorf("code = %q, want TIMEOUT (err %v)", got, err)
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})
}

func TestJoinURL(t *testing.T) {
	got, err := JoinURL("https://frames.example.com/base/", "api", "frames")
	if err != nil {
		t.Fatal(err)
	}
	if want := "https://frames.example.com/base/api/frames"; got != want {
		t.Errorf("JoinURL = %q, want %q", got, want)
	}
}
