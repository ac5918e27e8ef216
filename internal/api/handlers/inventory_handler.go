package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/gin-gonic/gin"
)

// InventoryProvider is the point-of-sale surface the handlers need.
type InventoryProvider interface {
	ListStores(ctx context.Context) ([]domain.Store, error)
	RecordSale(ctx context.Context, storeID int64, lines []domain.SaleLine) (*domain.SaleReceipt, error)
	ReceiveShipment(ctx context.Context, storeID, productID int64, quantity int) (int, error)
}

type InventoryHandler struct {
	service InventoryProvider
}

func NewInventoryHandler(service InventoryProvider) *InventoryHandler {
	return &InventoryHandler{service: service}
}

type saleRequest struct {
	Lines []domain.SaleLine `json:"lines" binding:"required,min=1,dive"`
}

type shipmentRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

func (h *InventoryHandler) ListStores(c *gin.Context) {
	stores, err := h.service.ListStores(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch stores")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"all_stores_key": domain.AllStoresKey,
		"stores":         stores,
	})
}

func (h *InventoryHandler) RecordSale(c *gin.Context) {
	storeID, ok := storeParam(c)
	if !ok {
		return
	}

	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid sale", err)
		return
	}

	receipt, err := h.service.RecordSale(c.Request.Context(), storeID, req.Lines)
	if err != nil {
		respondError(c, err, "failed to record sale")
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

func (h *InventoryHandler) ReceiveShipment(c *gin.Context) {
	storeID, ok := storeParam(c)
	if !ok {
		return
	}

	var req shipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid shipment", err)
		return
	}

	onHand, err := h.service.ReceiveShipment(c.Request.Context(), storeID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err, "failed to receive shipment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"store_id":       storeID,
		"product_id":     req.ProductID,
		"stock_quantity": onHand,
	})
}

func storeParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid store id", fmt.Errorf("store id must be a positive integer"))
		return 0, false
	}
	return id, true
}
