package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// DashboardServiceName is the fully-qualified name of the DashboardService service.
const DashboardServiceName = "splitledger.v1.DashboardService"

// Procedure paths for DashboardService.
const (
	DashboardServiceGetUserBalancesProcedure    = "/splitledger.v1.DashboardService/GetUserBalances"
	DashboardServiceGetUserGroupsProcedure      = "/splitledger.v1.DashboardService/GetUserGroups"
	DashboardServiceGetTotalSpentProcedure      = "/splitledger.v1.DashboardService/GetTotalSpent"
	DashboardServiceGetMonthlySpendingProcedure = "/splitledger.v1.DashboardService/GetMonthlySpending"
)

// DashboardServiceHandler is implemented by the dashboard RPC server.
type DashboardServiceHandler interface {
	GetUserBalances(context.Context, *connect.Request[GetUserBalancesRequest]) (*connect.Response[GetUserBalancesResponse], error)
	GetUserGroups(context.Context, *connect.Request[GetUserGroupsRequest]) (*connect.Response[GetUserGroupsResponse], error)
	GetTotalSpent(context.Context, *connect.Request[GetTotalSpentRequest]) (*connect.Response[GetTotalSpentResponse], error)
	GetMonthlySpending(context.Context, *connect.Request[GetMonthlySpendingRequest]) (*connect.Response[GetMonthlySpendingResponse], error)
}

// NewDashboardServiceHandler builds an HTTP handler from the service implementation.
func NewDashboardServiceHandler(svc DashboardServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	getUserBalances := connect.NewUnaryHandler(DashboardServiceGetUserBalancesProcedure, svc.GetUserBalances, opts...)
	getUserGroups := connect.NewUnaryHandler(DashboardServiceGetUserGroupsProcedure, svc.GetUserGroups, opts...)
	getTotalSpent := connect.NewUnaryHandler(DashboardServiceGetTotalSpentProcedure, svc.GetTotalSpent, opts...)
	getMonthlySpending := connect.NewUnaryHandler(DashboardServiceGetMonthlySpendingProcedure, svc.GetMonthlySpending, opts...)

	return "/" + DashboardServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DashboardServiceGetUserBalancesProcedure:
			getUserBalances.ServeHTTP(w, r)
		case DashboardServiceGetUserGroupsProcedure:
			getUserGroups.ServeHTTP(w, r)
		case DashboardServiceGetTotalSpentProcedure:
			getTotalSpent.ServeHTTP(w, r)
		case DashboardServiceGetMonthlySpendingProcedure:
			getMonthlySpending.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// DashboardServiceClient is a client for the splitledger.v1.DashboardService service.
type DashboardServiceClient interface {
	GetUserBalances(context.Context, *connect.Request[GetUserBalancesRequest]) (*connect.Response[GetUserBalancesResponse], error)
	GetUserGroups(context.Context, *connect.Request[GetUserGroupsRequest]) (*connect.Response[GetUserGroupsResponse], error)
	GetTotalSpent(context.Context, *connect.Request[GetTotalSpentRequest]) (*connect.Response[GetTotalSpentResponse], error)
	GetMonthlySpending(context.Context, *connect.Request[GetMonthlySpendingRequest]) (*connect.Response[GetMonthlySpendingResponse], error)
}

// NewDashboardServiceClient constructs a client for the DashboardService service.
func NewDashboardServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) DashboardServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &dashboardServiceClient{
		getUserBalances:    connect.NewClient[GetUserBalancesRequest, GetUserBalancesResponse](httpClient, baseURL+DashboardServiceGetUserBalancesProcedure, opts...),
		getUserGroups:      connect.NewClient[GetUserGroupsRequest, GetUserGroupsResponse](httpClient, baseURL+DashboardServiceGetUserGroupsProcedure, opts...),
		getTotalSpent:      connect.NewClient[GetTotalSpentRequest, GetTotalSpentResponse](httpClient, baseURL+DashboardServiceGetTotalSpentProcedure, opts...),
		getMonthlySpending: connect.NewClient[GetMonthlySpendingRequest, GetMonthlySpendingResponse](httpClient, baseURL+DashboardServiceGetMonthlySpendingProcedure, opts...),
	}
}

type dashboardServiceClient struct {
	getUserBalances    *connect.Client[GetUserBalancesRequest, GetUserBalancesResponse]
	getUserGroups      *connect.Client[GetUserGroupsRequest, GetUserGroupsResponse]
	getTotalSpent      *connect.Client[GetTotalSpentRequest, GetTotalSpentResponse]
	getMonthlySpending *connect.Client[GetMonthlySpendingRequest, GetMonthlySpendingResponse]
}

func (c *dashboardServiceClient) GetUserBalances(ctx context.Context, req *connect.Request[GetUserBalancesRequest]) (*connect.Response[GetUserBalancesResponse], error) {
	return c.getUserBalances.CallUnary(ctx, req)
}

func (c *dashboardServiceClient) GetUserGroups(ctx context.Context, req *connect.Request[GetUserGroupsRequest]) (*connect.Response[GetUserGroupsResponse], error) {
	return c.getUserGroups.CallUnary(ctx, req)
}

func (c *dashboardServiceClient) GetTotalSpent(ctx context.Context, req *connect.Request[GetTotalSpentRequest]) (*connect.Response[GetTotalSpentResponse], error) {
	return c.getTotalSpent.CallUnary(ctx, req)
}

func (c *dashboardServiceClient) GetMonthlySpending(ctx context.Context, req *connect.Request[GetMonthlySpendingRequest]) (*connect.Response[GetMonthlySpendingResponse], error) {
	return c.getMonthlySpending.CallUnary(ctx, req)
}
