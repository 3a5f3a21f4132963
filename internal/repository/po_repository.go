package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// PurchaseOrderRepository records generated purchase orders.
type PurchaseOrderRepository interface {
	// SavePurchaseOrder upserts the order by PO number and replaces its lines.
	SavePurchaseOrder(ctx context.Context, runID uuid.UUID, po domain.PurchaseOrder, filePath string) (*domain.PurchaseOrderRecord, error)
	// ListPurchaseOrders returns the newest orders first.
	ListPurchaseOrders(ctx context.Context, limit int) ([]domain.PurchaseOrderRecord, error)
	GetPurchaseOrderLines(ctx context.Context, poNumber string) ([]domain.POLine, error)
}
