package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "splitledger.v1.LedgerService"

// Procedure paths for LedgerService.
const (
	LedgerServiceCreateExpenseProcedure           = "/splitledger.v1.LedgerService/CreateExpense"
	LedgerServiceGetExpensesBetweenUsersProcedure = "/splitledger.v1.LedgerService/GetExpensesBetweenUsers"
	LedgerServiceDeleteExpenseProcedure           = "/splitledger.v1.LedgerService/DeleteExpense"
	LedgerServiceCreateSettlementProcedure        = "/splitledger.v1.LedgerService/CreateSettlement"
	LedgerServiceGetGroupBalancesProcedure        = "/splitledger.v1.LedgerService/GetGroupBalances"
	LedgerServiceCalculateSplitProcedure          = "/splitledger.v1.LedgerService/CalculateSplit"
)

// LedgerServiceHandler is implemented by the ledger RPC server.
type LedgerServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	GetExpensesBetweenUsers(context.Context, *connect.Request[GetExpensesBetweenUsersRequest]) (*connect.Response[GetExpensesBetweenUsersResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	CreateSettlement(context.Context, *connect.Request[CreateSettlementRequest]) (*connect.Response[CreateSettlementResponse], error)
	GetGroupBalances(context.Context, *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error)
	CalculateSplit(context.Context, *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	createExpense := connect.NewUnaryHandler(LedgerServiceCreateExpenseProcedure, svc.CreateExpense, opts...)
	getExpensesBetweenUsers := connect.NewUnaryHandler(LedgerServiceGetExpensesBetweenUsersProcedure, svc.GetExpensesBetweenUsers, opts...)
	deleteExpense := connect.NewUnaryHandler(LedgerServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...)
	createSettlement := connect.NewUnaryHandler(LedgerServiceCreateSettlementProcedure, svc.CreateSettlement, opts...)
	getGroupBalances := connect.NewUnaryHandler(LedgerServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...)
	calculateSplit := connect.NewUnaryHandler(LedgerServiceCalculateSplitProcedure, svc.CalculateSplit, opts...)

	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LedgerServiceCreateExpenseProcedure:
			createExpense.ServeHTTP(w, r)
		case LedgerServiceGetExpensesBetweenUsersProcedure:
			getExpensesBetweenUsers.ServeHTTP(w, r)
		case LedgerServiceDeleteExpenseProcedure:
			deleteExpense.ServeHTTP(w, r)
		case LedgerServiceCreateSettlementProcedure:
			createSettlement.ServeHTTP(w, r)
		case LedgerServiceGetGroupBalancesProcedure:
			getGroupBalances.ServeHTTP(w, r)
		case LedgerServiceCalculateSplitProcedure:
			calculateSplit.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// LedgerServiceClient is a client for the splitledger.v1.LedgerService service.
type LedgerServiceClient interface {
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	GetExpensesBetweenUsers(context.Context, *connect.Request[GetExpensesBetweenUsersRequest]) (*connect.Response[GetExpensesBetweenUsersResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	CreateSettlement(context.Context, *connect.Request[CreateSettlementRequest]) (*connect.Response[CreateSettlementResponse], error)
	GetGroupBalances(context.Context, *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error)
	CalculateSplit(context.Context, *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error)
}

// NewLedgerServiceClient constructs a client for the LedgerService service.
// baseURL is the server root, e.g. http://localhost:8080.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ledgerServiceClient{
		createExpense:           connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+LedgerServiceCreateExpenseProcedure, opts...),
		getExpensesBetweenUsers: connect.NewClient[GetExpensesBetweenUsersRequest, GetExpensesBetweenUsersResponse](httpClient, baseURL+LedgerServiceGetExpensesBetweenUsersProcedure, opts...),
		deleteExpense:           connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+LedgerServiceDeleteExpenseProcedure, opts...),
		createSettlement:        connect.NewClient[CreateSettlementRequest, CreateSettlementResponse](httpClient, baseURL+LedgerServiceCreateSettlementProcedure, opts...),
		getGroupBalances:        connect.NewClient[GetGroupBalancesRequest, GetGroupBalancesResponse](httpClient, baseURL+LedgerServiceGetGroupBalancesProcedure, opts...),
		calculateSplit:          connect.NewClient[CalculateSplitRequest, CalculateSplitResponse](httpClient, baseURL+LedgerServiceCalculateSplitProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	createExpense           *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	getExpensesBetweenUsers *connect.Client[GetExpensesBetweenUsersRequest, GetExpensesBetweenUsersResponse]
	deleteExpense           *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	createSettlement        *connect.Client[CreateSettlementRequest, CreateSettlementResponse]
	getGroupBalances        *connect.Client[GetGroupBalancesRequest, GetGroupBalancesResponse]
	calculateSplit          *connect.Client[CalculateSplitRequest, CalculateSplitResponse]
}

func (c *ledgerServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetExpensesBetweenUsers(ctx context.Context, req *connect.Request[GetExpensesBetweenUsersRequest]) (*connect.Response[GetExpensesBetweenUsersResponse], error) {
	return c.getExpensesBetweenUsers.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CreateSettlement(ctx context.Context, req *connect.Request[CreateSettlementRequest]) (*connect.Response[CreateSettlementResponse], error) {
	return c.createSettlement.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) CalculateSplit(ctx context.Context, req *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error) {
	return c.calculateSplit.CallUnary(ctx, req)
}
