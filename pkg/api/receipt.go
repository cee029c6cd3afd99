package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// ReceiptServiceName is the fully-qualified name of the ReceiptService service.
const ReceiptServiceName = "splitledger.v1.ReceiptService"

// Procedure paths for ReceiptService.
const (
	ReceiptServiceUploadReceiptProcedure = "/splitledger.v1.ReceiptService/UploadReceipt"
	ReceiptServiceGetReceiptProcedure    = "/splitledger.v1.ReceiptService/GetReceipt"
)

// ReceiptServiceHandler is implemented by the receipt RPC server.
type ReceiptServiceHandler interface {
	UploadReceipt(context.Context, *connect.Request[UploadReceiptRequest]) (*connect.Response[UploadReceiptResponse], error)
	GetReceipt(context.Context, *connect.Request[GetReceiptRequest]) (*connect.Response[GetReceiptResponse], error)
}

// NewReceiptServiceHandler builds an HTTP handler from the service implementation.
func NewReceiptServiceHandler(svc ReceiptServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	uploadReceipt := connect.NewUnaryHandler(ReceiptServiceUploadReceiptProcedure, svc.UploadReceipt, opts...)
	getReceipt := connect.NewUnaryHandler(ReceiptServiceGetReceiptProcedure, svc.GetReceipt, opts...)

	return "/" + ReceiptServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ReceiptServiceUploadReceiptProcedure:
			uploadReceipt.ServeHTTP(w, r)
		case ReceiptServiceGetReceiptProcedure:
			getReceipt.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// ReceiptServiceClient is a client for the splitledger.v1.ReceiptService service.
type ReceiptServiceClient interface {
	UploadReceipt(context.Context, *connect.Request[UploadReceiptRequest]) (*connect.Response[UploadReceiptResponse], error)
	GetReceipt(context.Context, *connect.Request[GetReceiptRequest]) (*connect.Response[GetReceiptResponse], error)
}

// NewReceiptServiceClient constructs a client for the ReceiptService service.
func NewReceiptServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ReceiptServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &receiptServiceClient{
		uploadReceipt: connect.NewClient[UploadReceiptRequest, UploadReceiptResponse](httpClient, baseURL+ReceiptServiceUploadReceiptProcedure, opts...),
		getReceipt:    connect.NewClient[GetReceiptRequest, GetReceiptResponse](httpClient, baseURL+ReceiptServiceGetReceiptProcedure, opts...),
	}
}

type receiptServiceClient struct {
	uploadReceipt *connect.Client[UploadReceiptRequest, UploadReceiptResponse]
	getReceipt    *connect.Client[GetReceiptRequest, GetReceiptResponse]
}

func (c *receiptServiceClient) UploadReceipt(ctx context.Context, req *connect.Request[UploadReceiptRequest]) (*connect.Response[UploadReceiptResponse], error) {
	return c.uploadReceipt.CallUnary(ctx, req)
}

func (c *receiptServiceClient) GetReceipt(ctx context.Context, req *connect.Request[GetReceiptRequest]) (*connect.Response[GetReceiptResponse], error) {
	return c.getReceipt.CallUnary(ctx, req)
}
