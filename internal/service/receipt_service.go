package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/blob"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/pkg/api"
)

// ReceiptKeyPrefix starts every storage ID handed out by UploadReceipt.
// The full form is receipts/<uploader id>/<uuid>.
const ReceiptKeyPrefix = "receipts/"

var (
	errReceiptTooLarge = errors.New("receipt exceeds the size limit")
	errEmptyReceipt    = errors.New("receipt is empty")
	errReceiptNotFound = errors.New("receipt not found")
	errForeignReceipt  = errors.New("receipt was uploaded by another user")
)

func receiptKey(ownerID string) string {
	return ReceiptKeyPrefix + ownerID + "/" + uuid.NewString()
}

// receiptOwner returns the uploader encoded in key. It reports false unless
// key is exactly receipts/<uuid>/<uuid>.
func receiptOwner(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, ReceiptKeyPrefix)
	if !ok {
		return "", false
	}
	owner, id, ok := strings.Cut(rest, "/")
	if !ok || !isCanonicalUUID(owner) || !isCanonicalUUID(id) {
		return "", false
	}
	return owner, true
}

// checkReceiptOwner rejects attaching a receipt that callerID did not upload.
// An empty caller or key is left to the other checks.
func checkReceiptOwner(callerID, key string) error {
	if callerID == "" || key == "" {
		return nil
	}
	if owner, _ := receiptOwner(key); owner != callerID {
		return connect.NewError(connect.CodePermissionDenied, errForeignReceipt)
	}
	return nil
}

func isCanonicalUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

// ReceiptService implements the Connect ReceiptService.
type ReceiptService struct {
	blobs    blob.Store
	maxBytes int64
	metrics  *metrics.Metrics
}

var _ api.ReceiptServiceHandler = (*ReceiptService)(nil)

// NewReceiptService stores receipts in blobs. Uploads larger than maxBytes
// are rejected; maxBytes <= 0 disables the limit.
func NewReceiptService(blobs blob.Store, maxBytes int64, m *metrics.Metrics) *ReceiptService {
	return &ReceiptService{blobs: blobs, maxBytes: maxBytes, metrics: m}
}

// UploadReceipt stores a receipt and returns the storage ID to attach to an expense.
func (s *ReceiptService) UploadReceipt(ctx context.Context, req *connect.Request[api.UploadReceiptRequest]) (*connect.Response[api.UploadReceiptResponse], error) {
	callerID := middleware.GetUserID(ctx)
	if callerID == "" {
		return nil, toConnectError("UploadReceipt", ledger.ErrAuthenticationRequired)
	}
	if len(req.Msg.Data) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errEmptyReceipt)
	}
	if s.maxBytes > 0 && int64(len(req.Msg.Data)) > s.maxBytes {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("%w: %d > %d bytes", errReceiptTooLarge, len(req.Msg.Data), s.maxBytes))
	}

	key := receiptKey(callerID)
	if err := s.blobs.Put(ctx, key, req.Msg.Data); err != nil {
		s.metrics.BlobFailed("put")
		return nil, toConnectError("UploadReceipt", err)
	}

	slog.Info("Receipt uploaded", "storage_id", key, "user_id", callerID, "bytes", len(req.Msg.Data))
	return connect.NewResponse(&api.UploadReceiptResponse{StorageID: key}), nil
}

// GetReceipt returns a stored receipt to any authenticated user holding its
// storage ID.
func (s *ReceiptService) GetReceipt(ctx context.Context, req *connect.Request[api.GetReceiptRequest]) (*connect.Response[api.GetReceiptResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	if middleware.GetUserID(ctx) == "" {
		return nil, toConnectError("GetReceipt", ledger.ErrAuthenticationRequired)
	}

	data, err := s.blobs.Get(ctx, req.Msg.StorageID)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, errReceiptNotFound)
	}
	if err != nil {
		s.metrics.BlobFailed("get")
		return nil, toConnectError("GetReceipt", err)
	}
	return connect.NewResponse(&api.GetReceiptResponse{Data: data}), nil
}
