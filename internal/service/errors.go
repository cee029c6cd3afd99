// Package service implements the Connect RPC handlers. Handlers validate
// request shape, resolve the caller from the context, and translate domain
// errors into Connect codes.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// receipt_id accepts storage IDs in the shape UploadReceipt hands out.
	err := v.RegisterValidation("receipt_id", func(fl validator.FieldLevel) bool {
		_, ok := receiptOwner(fl.Field().String())
		return ok
	})
	if err != nil {
		panic(err)
	}
	return v
}

// validateRequest checks msg against its struct tags.
func validateRequest(msg any) error {
	err := validate.Struct(msg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		}
		return connect.NewError(connect.CodeInvalidArgument, errors.New(strings.Join(msgs, "; ")))
	}
	return connect.NewError(connect.CodeInvalidArgument, err)
}

// errInternal is what clients see for any failure they cannot act on.
var errInternal = errors.New("internal error")

// toConnectError maps domain errors to Connect codes. Unrecognized errors
// are logged and reported as internal.
func toConnectError(op string, err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, ledger.ErrAuthenticationRequired),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)

	case errors.Is(err, ledger.ErrNotAGroupMember),
		errors.Is(err, ledger.ErrNotAuthorizedToDelete),
		errors.Is(err, ledger.ErrNotASettlementParty):
		return connect.NewError(connect.CodePermissionDenied, err)

	case errors.Is(err, ledger.ErrGroupNotFound),
		errors.Is(err, ledger.ErrUserNotFound),
		errors.Is(err, ledger.ErrExpenseNotFound):
		return connect.NewError(connect.CodeNotFound, err)

	case errors.Is(err, ledger.ErrEmptySplitSet),
		errors.Is(err, ledger.ErrSplitMismatch),
		errors.Is(err, ledger.ErrSelfQuery),
		errors.Is(err, ledger.ErrSelfSettlement),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, calculator.ErrNoParticipants),
		errors.Is(err, calculator.ErrNonPositiveTotal),
		errors.Is(err, calculator.ErrUnknownSplitType),
		errors.Is(err, calculator.ErrPercentageTotal),
		errors.Is(err, calculator.ErrExactTotal):
		return connect.NewError(connect.CodeInvalidArgument, err)

	case errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)

	case errors.Is(err, ledger.ErrPersistenceFailure):
		// Cause was logged by the ledger.
		return connect.NewError(connect.CodeInternal, errInternal)
	}

	slog.Error(op+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, errInternal)
}
