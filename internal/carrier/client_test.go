package carrier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, url string, opts ...ClientOption) *Client {
	t.Helper()
	opts = append([]ClientOption{WithSleep(func(time.Duration) {})}, opts...)
	return NewClient(url, "test-token", "test-client", zap.NewNop(), opts...)
}

func TestSend_Success(t *testing.T) {
	var gotAuth, gotSrc string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSrc = r.Header.Get("transactionSrc")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	resp, err := c.Send(context.Background(), Request{Method: http.MethodGet, Path: "/ping"})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", resp.Code)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotSrc != "test-client" {
		t.Fatalf("transactionSrc = %q", gotSrc)
	}
}

func TestSend_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"message":"carrier unavailable"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithMaxRetries(2))
	_, err := c.Send(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if err == nil {
		t.Fatal("expected error")
	}

	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("error type = %T, want *HTTPError", err)
	}
	if he.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", he.Status)
	}
	if he.CarrierMessage != "carrier unavailable" {
		t.Fatalf("carrier message = %q", he.CarrierMessage)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("attempts = %d, want maxRetries+1 = 3", got)
	}
}

func TestSend_NoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid pincode"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithMaxRetries(3))
	_, err := c.Send(context.Background(), Request{Method: http.MethodPost, Path: "/x"})

	var he *HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("error type = %T, want *HTTPError", err)
	}
	if he.CarrierMessage != "invalid pincode" {
		t.Fatalf("carrier message = %q", he.CarrierMessage)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("attempts = %d, want exactly 1 for a 4xx", got)
	}
}

func TestSend_RecoversAfterRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithMaxRetries(2))
	resp, err := c.Send(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	if err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", resp.Code)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}
}

func TestSend_NotConfigured(t *testing.T) {
	c := NewClient("", "", "x", zap.NewNop())
	if _, err := c.Send(context.Background(), Request{Method: http.MethodGet, Path: "/x"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestExtractCarrierMessage(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"message":"plain"}`, "plain"},
		{`{"error":"stringy"}`, "stringy"},
		{`{"error":{"message":"nested"}}`, "nested"},
		{`{"rmk":"remark field"}`, "remark field"},
		{`{"errors":[{"message":"first of many"},{"message":"second"}]}`, "first of many"},
		{`not json at all`, "not json at all"},
		{`{}`, ""},
	}
	for _, tc := range cases {
		if got := extractCarrierMessage([]byte(tc.body)); got != tc.want {
			t.Errorf("extractCarrierMessage(%s) = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestDecode_InvalidBody(t *testing.T) {
	resp := &Response{Code: 200, Body: []byte("<html>gateway</html>")}
	var out struct{}
	err := resp.Decode(&out)
	var ire *InvalidResponseError
	if !errors.As(err, &ire) {
		t.Fatalf("error type = %T, want *InvalidResponseError", err)
	}
}
