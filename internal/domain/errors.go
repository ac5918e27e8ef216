package domain

import "errors"

var (
	ErrModelUnavailable  = errors.New("forecast model unavailable")
	ErrPredictionFailure = errors.New("forecast prediction failed")
	ErrDataUnavailable   = errors.New("catalog or stock data unavailable")
	ErrProductNotFound   = errors.New("product not found")
	ErrStoreNotFound     = errors.New("store not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)
