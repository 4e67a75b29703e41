package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	s := &ipv4Server{URL: "http://" + ln.Addr().String(), srv: srv}
	t.Cleanup(s.Close)
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func chatServer(t *testing.T, statuses []int, headers []http.Header, content string) (*ipv4Server, *int32) {
	t.Helper()
	var idx int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		i := int(atomic.AddInt32(&idx, 1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		if i < len(headers) {
			for k, vals := range headers[i] {
				for _, v := range vals {
					w.Header().Add(k, v)
				}
			}
		}
		w.WriteHeader(statuses[i])
		if statuses[i] >= 200 && statuses[i] < 300 {
			_ = json.NewEncoder(w).Encode(ChatResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "try later"}})
	}))
	return srv, &idx
}

func TestGenerateRetriesOn429(t *testing.T) {
	srv, calls := chatServer(t, []int{429, 200}, []http.Header{{"Retry-After": {"0"}}, {}}, " ok ")
	c := NewClientWithBaseURL("test", "test-model", 2*time.Second, 3, 10*time.Millisecond, 100*time.Millisecond, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := c.Generate(ctx, Prompt{Instructions: "be brief", Context: "hi", MaxTokens: 10})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected output: %q", out)
	}
	if n := atomic.LoadInt32(calls); n != 2 {
		t.Fatalf("calls = %d, want 2", n)
	}
}

func TestRetryAfterHonored(t *testing.T) {
	srv, _ := chatServer(t, []int{429, 200}, []http.Header{{"Retry-After": {"1"}}, {}}, "ok")
	c := NewClientWithBaseURL("test", "test-model", 5*time.Second, 3, 0, 0, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	if _, err := c.Generate(ctx, Prompt{Context: "hi"}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Fatalf("expected at least ~1s delay due to Retry-After, got %v", elapsed)
	}
}

func TestRetryAfterCappedAtMaxDelay(t *testing.T) {
	srv, calls := chatServer(t, []int{429, 200}, []http.Header{{"Retry-After": {"30"}}, {}}, "ok")
	c := NewClientWithBaseURL("test", "test-model", 2*time.Second, 3, 10*time.Millisecond, 50*time.Millisecond, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if _, err := c.Generate(ctx, Prompt{Context: "hi"}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("Retry-After should be capped at the max delay, waited %v", elapsed)
	}
	if n := atomic.LoadInt32(calls); n != 2 {
		t.Fatalf("calls = %d, want 2", n)
	}
}

func TestServerErrorsExhaustRetries(t *testing.T) {
	srv, calls := chatServer(t, []int{503}, nil, "")
	c := NewClientWithBaseURL("test", "test-model", 2*time.Second, 2, time.Millisecond, 5*time.Millisecond, srv.URL)
	_, err := c.Generate(context.Background(), Prompt{Context: "hi"})
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %T %v", err, err)
	}
	if !Retryable(err) {
		t.Fatal("server errors should be retryable")
	}
	if n := atomic.LoadInt32(calls); n != 2 {
		t.Fatalf("calls = %d, want 2", n)
	}
}

func TestErrorIncludesRequestID(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req_test_123")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad req", "code": "bad_request"}})
	}))
	c := NewClientWithBaseURL("test", "test-model", 2*time.Second, 1, 10*time.Millisecond, 50*time.Millisecond, srv.URL)
	_, err := c.Generate(context.Background(), Prompt{Context: "hi"})
	var br *BadRequestError
	if !errors.As(err, &br) {
		t.Fatalf("expected BadRequestError, got %v", err)
	}
	if !strings.Contains(err.Error(), "req_test_123") {
		t.Fatalf("expected request id in error, got: %v", err)
	}
}

func TestAuthErrorClassified(t *testing.T) {
	srv, _ := chatServer(t, []int{401}, nil, "")
	c := NewClientWithBaseURL("bad", "m", time.Second, 3, time.Millisecond, time.Millisecond, srv.URL)
	_, err := c.Generate(context.Background(), Prompt{Context: "hi"})
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestMissingKeyAndEmptyResponse(t *testing.T) {
	c := NewClient("", "m", time.Second, 1, 0, 0)
	if _, err := c.Generate(context.Background(), Prompt{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	srv, _ := chatServer(t, []int{200}, nil, "   ")
	c = NewClientWithBaseURL("k", "m", time.Second, 1, 0, 0, srv.URL)
	if _, err := c.Generate(context.Background(), Prompt{}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateSendsSystemAndUserMessages(t *testing.T) {
	reqs := make(chan ChatRequest, 1)
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		reqs <- req
		_ = json.NewEncoder(w).Encode(ChatResponse{Choices: []Choice{{Message: Message{Content: "draft"}}}})
	}))
	c := NewClientWithBaseURL("key", "openai/gpt-4o-mini", time.Second, 1, 0, 0, srv.URL)
	if _, err := c.Generate(context.Background(), Prompt{Instructions: "sys", Context: "data", MaxTokens: 800, Temperature: 0.7}); err != nil {
		t.Fatal(err)
	}
	got := <-reqs
	if got.Model != "openai/gpt-4o-mini" || len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "data" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.MaxTokens != 800 || got.Temperature != 0.7 {
		t.Fatalf("limits not forwarded: %+v", got)
	}
}
