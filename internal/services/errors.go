package services

import (
	"errors"

	"storefront/internal/repository"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrEmptyCart           = repository.ErrEmptyCart
	ErrProductUnavailable  = errors.New("product is not available")
	ErrAlreadyPaid         = errors.New("order already paid")
	ErrTransactionMismatch = errors.New("transaction id mismatch")
	ErrMissingValidationID = errors.New("missing validation id")
	ErrPaymentNotValid     = errors.New("payment not valid")
	ErrValidationMismatch  = errors.New("payment validation mismatch")
)
