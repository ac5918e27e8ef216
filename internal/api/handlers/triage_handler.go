package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/triage"
	"github.com/gin-gonic/gin"
)

// TriageProvider is the forecasting surface the handlers need.
type TriageProvider interface {
	RunTriage(ctx context.Context, scope domain.Scope) (*domain.TriageReport, error)
	GetBurnDown(ctx context.Context, productID int64, scope domain.Scope) (*domain.BurnDown, error)
	ExportRestock(ctx context.Context, scope domain.Scope, ids []int64, format string, w io.Writer) error
	ReloadModels(ctx context.Context) error
}

type TriageHandler struct {
	service TriageProvider
}

func NewTriageHandler(service TriageProvider) *TriageHandler {
	return &TriageHandler{service: service}
}

func (h *TriageHandler) GetTriage(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	report, err := h.service.RunTriage(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err, "failed to run triage")
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *TriageHandler) GetRestock(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	report, err := h.service.RunTriage(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err, "failed to run triage")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":  report.RunID,
		"scope":   report.Scope,
		"horizon": report.Horizon,
		"no_data": report.NoData,
		"restock": report.Restock,
		"skipped": report.Skipped,
	})
}

func (h *TriageHandler) Export(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", triage.FormatCSV))
	if format != triage.FormatCSV && format != triage.FormatXLSX {
		badRequest(c, "invalid format", fmt.Errorf("format must be %s or %s", triage.FormatCSV, triage.FormatXLSX))
		return
	}

	ids, err := parseIDs(c.Query("product_ids"))
	if err != nil {
		badRequest(c, "invalid product_ids", err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportRestock(c.Request.Context(), scope, ids, format, &buf); err != nil {
		respondError(c, err, "failed to export restock list")
		return
	}

	filename := fmt.Sprintf("restock_%s.%s", strings.ReplaceAll(scope.Key(), ":", "_"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, triage.ContentType(format), buf.Bytes())
}

func (h *TriageHandler) GetBurnDown(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || productID <= 0 {
		badRequest(c, "invalid product id", fmt.Errorf("product id must be a positive integer"))
		return
	}

	scope, ok := parseScope(c)
	if !ok {
		return
	}

	bd, err := h.service.GetBurnDown(c.Request.Context(), productID, scope)
	if err != nil {
		respondError(c, err, "failed to simulate burn-down")
		return
	}

	c.JSON(http.StatusOK, bd)
}

func (h *TriageHandler) ReloadModels(c *gin.Context) {
	if err := h.service.ReloadModels(c.Request.Context()); err != nil {
		respondError(c, err, "failed to reload models")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}

// parseIDs accepts a comma separated list of positive ids.
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid product id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
