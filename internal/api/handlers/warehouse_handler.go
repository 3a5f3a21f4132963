package handlers

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/domain"
	"github.com/andresuchdata/autopo-lab/internal/pipeline"
	"github.com/andresuchdata/autopo-lab/internal/repository"
)

// Runner executes workflows.
type Runner interface {
	Execute(ctx context.Context, req pipeline.Request) pipeline.Result
}

// FileReader reads stored files.
type FileReader interface {
	GetFileContent(ctx context.Context, path string) ([]byte, error)
}

type WarehouseHandler struct {
	runner Runner
	files  FileReader
	repo   repository.PurchaseOrderRepository
	paths  config.PathsConfig
}

func NewWarehouseHandler(runner Runner, files FileReader, repo repository.PurchaseOrderRepository, paths config.PathsConfig) *WarehouseHandler {
	return &WarehouseHandler{runner: runner, files: files, repo: repo, paths: paths}
}

// ProcessRequest runs a workflow. With ?format=xlsx a PO-producing
// workflow answers with the workbook itself.
func (h *WarehouseHandler) ProcessRequest(c *gin.Context) {
	var req pipeline.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "detail": err.Error()})
		return
	}

	res := h.runner.Execute(c.Request.Context(), req)
	if !res.Success {
		c.JSON(StatusFor(res.ErrorKind), res)
		return
	}

	if c.Query("format") == "xlsx" && len(res.PO) > 0 {
		writeWorkbook(c, res.FileName, res.PO)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ListPurchaseOrders lists stored purchase orders.
func (h *WarehouseHandler) ListPurchaseOrders(c *gin.Context) {
	res := h.runner.Execute(c.Request.Context(), pipeline.Request{Workflow: pipeline.WorkflowListPO})
	if !res.Success {
		c.JSON(StatusFor(res.ErrorKind), res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DownloadPurchaseOrder serves a stored purchase-order workbook by file name.
func (h *WarehouseHandler) DownloadPurchaseOrder(c *gin.Context) {
	name := path.Base(c.Param("name"))
	if name == "." || name == "/" || path.Ext(name) != ".xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "an .xlsx file name is required"})
		return
	}

	data, err := h.files.GetFileContent(c.Request.Context(), h.paths.POPath(name))
	if errors.Is(err, domain.ErrFileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "purchase order not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("file", name).Msg("failed to read purchase order")
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to read purchase order"})
		return
	}

	writeWorkbook(c, name, data)
}

// GetPurchaseOrderHistory returns recorded purchase orders, newest first.
func (h *WarehouseHandler) GetPurchaseOrderHistory(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "purchase order history is not configured"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
		return
	}

	records, err := h.repo.ListPurchaseOrders(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list purchase order history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch purchase order history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetPurchaseOrderLines returns the recorded lines of one purchase order.
func (h *WarehouseHandler) GetPurchaseOrderLines(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "purchase order history is not configured"})
		return
	}

	lines, err := h.repo.GetPurchaseOrderLines(c.Request.Context(), c.Param("number"))
	if err != nil {
		log.Error().Err(err).Str("po_number", c.Param("number")).Msg("failed to fetch purchase order lines")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch purchase order lines"})
		return
	}
	c.JSON(http.StatusOK, lines)
}

// StatusFor maps a workflow failure to an HTTP status.
func StatusFor(kind pipeline.ErrorKind) int {
	switch kind {
	case pipeline.ErrorInvalidInput:
		return http.StatusBadRequest
	case pipeline.ErrorMissingSheet:
		return http.StatusUnprocessableEntity
	case pipeline.ErrorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeWorkbook(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, domain.MimeXLSX, data)
}
