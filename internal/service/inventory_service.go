package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/repository"
	"github.com/rs/zerolog/log"
)

type InventoryService struct {
	catalog   repository.CatalogReader
	inventory repository.InventoryWriter
	now       func() time.Time
}

func NewInventoryService(catalog repository.CatalogReader, inventory repository.InventoryWriter) *InventoryService {
	return &InventoryService{catalog: catalog, inventory: inventory, now: time.Now}
}

func (s *InventoryService) ListStores(ctx context.Context) ([]domain.Store, error) {
	stores, err := s.catalog.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w: %w", domain.ErrDataUnavailable, err)
	}
	return stores, nil
}

// RecordSale checks out a basket at one store.
func (s *InventoryService) RecordSale(ctx context.Context, storeID int64, lines []domain.SaleLine) (*domain.SaleReceipt, error) {
	if err := s.requireStore(ctx, storeID); err != nil {
		return nil, err
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, domain.ErrInvalidQuantity)
		}
	}

	receipt, err := s.inventory.RecordSale(ctx, storeID, lines, s.now())
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("store_id", storeID).
		Int("lines", len(receipt.Lines)).
		Str("total", receipt.GrandTotal.StringFixed(2)).
		Msg("inventory: sale recorded")
	return receipt, nil
}

// ReceiveShipment adds quantity to a store's stock and returns the new level.
func (s *InventoryService) ReceiveShipment(ctx context.Context, storeID, productID int64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("product %d: %w", productID, domain.ErrInvalidQuantity)
	}
	if err := s.requireStore(ctx, storeID); err != nil {
		return 0, err
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return 0, err
	}

	onHand, err := s.inventory.ReceiveShipment(ctx, storeID, productID, quantity)
	if err != nil {
		return 0, err
	}

	log.Info().
		Int64("store_id", storeID).
		Int64("product_id", productID).
		Int("received", quantity).
		Int("on_hand", onHand).
		Msg("inventory: shipment received")
	return onHand, nil
}

func (s *InventoryService) requireStore(ctx context.Context, storeID int64) error {
	stores, err := s.ListStores(ctx)
	if err != nil {
		return err
	}
	for _, st := range stores {
		if st.ID == storeID {
			return nil
		}
	}
	return fmt.Errorf("store %d: %w", storeID, domain.ErrStoreNotFound)
}
