package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

type empty struct{}

// capture is a terminal handler recording the caller it saw.
func capture(seen *string) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		*seen = GetUserID(ctx)
		return connect.NewResponse(&empty{}), nil
	}
}

func request(authHeader string) *connect.Request[empty] {
	req := connect.NewRequest(&empty{})
	if authHeader != "" {
		req.Header().Set("Authorization", authHeader)
	}
	return req
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	token, _, err := tokens.Issue(&models.User{ID: "user-1", Email: "u@example.com"})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
		wantUser string
	}{
		{"valid token", "Bearer " + token, 0, "user-1"},
		{"lowercase scheme", "bearer " + token, 0, "user-1"},
		{"missing header", "", connect.CodeUnauthenticated, ""},
		{"wrong scheme", "Basic " + token, connect.CodeUnauthenticated, ""},
		{"bad token", "Bearer nope", connect.CodeUnauthenticated, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			_, err := RequireAuth(tokens)(capture(&seen))(context.Background(), request(tt.header))
			if tt.wantCode != 0 {
				if connect.CodeOf(err) != tt.wantCode {
					t.Fatalf("code = %v, want %v (err %v)", connect.CodeOf(err), tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seen != tt.wantUser {
				t.Errorf("user = %q, want %q", seen, tt.wantUser)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	token, _, _ := tokens.Issue(&models.User{ID: "user-1"})

	var seen string
	if _, err := OptionalAuth(tokens)(capture(&seen))(context.Background(), request("Bearer garbage")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "" {
		t.Errorf("invalid token should leave caller empty, got %q", seen)
	}

	if _, err := OptionalAuth(tokens)(capture(&seen))(context.Background(), request("Bearer "+token)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "user-1" {
		t.Errorf("user = %q, want user-1", seen)
	}
}

func TestRateLimiter(t *testing.T) {
	m := metrics.New()
	rl := NewRateLimiter(0.001, 2, m)
	var seen string
	call := rl.Interceptor()(capture(&seen))

	alice := WithUser(context.Background(), "alice", "")
	bob := WithUser(context.Background(), "bob", "")

	for i := 0; i < 2; i++ {
		if _, err := call(alice, request("")); err != nil {
			t.Fatalf("call %d rejected: %v", i, err)
		}
	}
	_, err := call(alice, request(""))
	if connect.CodeOf(err) != connect.CodeResourceExhausted {
		t.Fatalf("code = %v, want resource_exhausted", connect.CodeOf(err))
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}

	if _, err := call(bob, request("")); err != nil {
		t.Errorf("bob should have a separate bucket: %v", err)
	}

	if n, err := testutil.GatherAndCount(m.Registry(), "splitledger_rpc_rate_limited_total"); err != nil || n != 1 {
		t.Errorf("rate limited series = %d (err %v), want 1", n, err)
	}
}

func TestPeerKey(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"203.0.113.7:51000", "peer:203.0.113.7"},
		{"203.0.113.7:51001", "peer:203.0.113.7"},
		{"[2001:db8::1]:443", "peer:2001:db8::1"},
		{"@unix-socket", "peer:@unix-socket"},
		{"", "peer:"},
	}
	for _, tt := range tests {
		if got := peerKey(tt.addr); got != tt.want {
			t.Errorf("peerKey(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestRateLimiterSharesBucketAcrossPorts(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, nil)
	if !rl.allow(peerKey("198.51.100.4:40000")) {
		t.Fatal("first call rejected")
	}
	if rl.allow(peerKey("198.51.100.4:40001")) {
		t.Error("a new source port should not get a fresh bucket")
	}
	if !rl.allow(peerKey("198.51.100.5:40000")) {
		t.Error("a different host should have its own bucket")
	}
}

func TestRateLimiterEvict(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	rl.allow("old")
	now = now.Add(10 * time.Minute)
	rl.allow("fresh")

	if n := rl.Evict(5 * time.Minute); n != 1 {
		t.Errorf("evicted %d, want 1", n)
	}
	if _, ok := rl.visitors["fresh"]; !ok {
		t.Error("fresh visitor was evicted")
	}
}

func TestMetricsInterceptor(t *testing.T) {
	m := metrics.New()
	fail := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("gone"))
	}
	var seen string

	MetricsInterceptor(m)(capture(&seen))(context.Background(), request(""))
	MetricsInterceptor(m)(fail)(context.Background(), request(""))

	// One series per (procedure, code) pair: "ok" and "not_found".
	if n, err := testutil.GatherAndCount(m.Registry(), "splitledger_rpc_requests_total"); err != nil || n != 2 {
		t.Errorf("request series = %d (err %v), want 2", n, err)
	}
}
