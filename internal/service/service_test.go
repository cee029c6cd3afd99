package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/blob"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
)

const testDate = int64(1_700_000_000_000)

type testClients struct {
	ledger    api.LedgerServiceClient
	groups    api.GroupServiceClient
	auth      api.AuthServiceClient
	receipts  api.ReceiptServiceClient
	dashboard api.DashboardServiceClient
}

// setupTestServer wires every service over a temp SQLite database and a
// filesystem blob store, with the same interceptors the server uses.
func setupTestServer(t *testing.T) *testClients {
	t.Helper()

	dir := t.TempDir()
	store, err := sqlite.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	blobs, err := blob.NewFileStore(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	m := metrics.New()
	tokens := auth.NewTokenManager("service-test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store, bcrypt.MinCost)
	l := ledger.New(store, ledger.WithBlobStore(blobs), ledger.WithMetrics(m))

	required := connect.WithInterceptors(middleware.RequireAuth(tokens), middleware.LoggingInterceptor())
	optional := connect.WithInterceptors(middleware.OptionalAuth(tokens), middleware.LoggingInterceptor())

	mux := http.NewServeMux()
	mux.Handle(api.NewLedgerServiceHandler(NewLedgerService(l), required))
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store), required))
	mux.Handle(api.NewAuthServiceHandler(NewAuthService(authenticator, tokens, store), optional))
	mux.Handle(api.NewReceiptServiceHandler(NewReceiptService(blobs, 1024, m), required))
	mux.Handle(api.NewDashboardServiceHandler(NewDashboardService(l), required))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testClients{
		ledger:    api.NewLedgerServiceClient(http.DefaultClient, server.URL),
		groups:    api.NewGroupServiceClient(http.DefaultClient, server.URL),
		auth:      api.NewAuthServiceClient(http.DefaultClient, server.URL),
		receipts:  api.NewReceiptServiceClient(http.DefaultClient, server.URL),
		dashboard: api.NewDashboardServiceClient(http.DefaultClient, server.URL),
	}
}

type session struct {
	userID string
	token  string
}

func (c *testClients) register(t *testing.T, email, name string) session {
	t.Helper()
	resp, err := c.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:    email,
		Name:     name,
		Password: "correct-horse",
	}))
	if err != nil {
		t.Fatalf("Register %s failed: %v", email, err)
	}
	return session{userID: resp.Msg.User.ID, token: resp.Msg.Token}
}

func withToken[T any](s session, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if s.token != "" {
		req.Header().Set("Authorization", "Bearer "+s.token)
	}
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("code: expected %v, got %v (%v)", want, got, err)
	}
}

func halfAndHalf(payer, other string, amount float64) *api.CreateExpenseRequest {
	return &api.CreateExpenseRequest{
		Description:  "Dinner",
		Amount:       amount,
		Date:         testDate,
		PaidByUserID: payer,
		SplitType:    "equal",
		Splits: []api.Split{
			{UserID: payer, Amount: amount / 2, Paid: true},
			{UserID: other, Amount: amount / 2},
		},
	}
}
