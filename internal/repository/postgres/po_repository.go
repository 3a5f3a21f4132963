package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/autopo-lab/internal/domain"
	"github.com/andresuchdata/autopo-lab/internal/repository"
)

const defaultListLimit = 50

type poRepository struct {
	db *DB
}

func NewPORepository(db *DB) repository.PurchaseOrderRepository {
	return &poRepository{db: db}
}

func (r *poRepository) SavePurchaseOrder(ctx context.Context, runID uuid.UUID, po domain.PurchaseOrder, filePath string) (*domain.PurchaseOrderRecord, error) {
	record := &domain.PurchaseOrderRecord{
		RunID:         runID,
		POMeta:        po.Meta,
		FilePath:      filePath,
		LineCount:     len(po.Lines),
		TotalQuantity: po.TotalQuantity(),
	}

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// 1. Upsert header; regenerating the same PO number replaces it
		query := `
			INSERT INTO purchase_orders (
				id, run_id, po_number, department, requested_by, approved_by,
				notes, created_date, file_path, line_count, total_quantity, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
			ON CONFLICT (po_number)
			DO UPDATE SET
				run_id = EXCLUDED.run_id,
				department = EXCLUDED.department,
				requested_by = EXCLUDED.requested_by,
				approved_by = EXCLUDED.approved_by,
				notes = EXCLUDED.notes,
				created_date = EXCLUDED.created_date,
				file_path = EXCLUDED.file_path,
				line_count = EXCLUDED.line_count,
				total_quantity = EXCLUDED.total_quantity,
				updated_at = NOW()
			RETURNING id, created_at, updated_at
		`
		err := tx.QueryRowxContext(ctx, query,
			uuid.New(),
			record.RunID,
			record.Number,
			record.Department,
			record.RequestedBy,
			record.ApprovedBy,
			record.Notes,
			record.CreatedDate,
			record.FilePath,
			record.LineCount,
			record.TotalQuantity,
		).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert purchase order: %w", err)
		}

		// 2. Replace lines
		if _, err := tx.ExecContext(ctx, `DELETE FROM purchase_order_lines WHERE purchase_order_id = $1`, record.ID); err != nil {
			return fmt.Errorf("failed to clear purchase order lines: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO purchase_order_lines (
				purchase_order_id, seq, product_name, specification,
				quantity, unit, category, status, notes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, line := range po.Lines {
			_, err := stmt.ExecContext(ctx,
				record.ID,
				line.Seq,
				line.ProductName,
				line.Specification,
				line.Quantity,
				line.Unit,
				line.Category,
				line.Status,
				line.Notes,
			)
			if err != nil {
				return fmt.Errorf("failed to insert purchase order line %d: %w", line.Seq, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (r *poRepository) ListPurchaseOrders(ctx context.Context, limit int) ([]domain.PurchaseOrderRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT
			id, run_id, po_number, department, requested_by, approved_by, notes,
			created_date, file_path, line_count, total_quantity, created_at, updated_at
		FROM purchase_orders
		ORDER BY created_date DESC, po_number DESC
		LIMIT $1
	`

	var records []domain.PurchaseOrderRecord
	err := r.db.withSem(ctx, func() error {
		return r.db.SelectContext(ctx, &records, query, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}

	return records, nil
}

func (r *poRepository) GetPurchaseOrderLines(ctx context.Context, poNumber string) ([]domain.POLine, error) {
	query := `
		SELECT
			l.seq, l.product_name, l.specification, l.quantity,
			l.unit, l.category, l.status, l.notes
		FROM purchase_order_lines l
		JOIN purchase_orders o ON o.id = l.purchase_order_id
		WHERE o.po_number = $1
		ORDER BY l.seq
	`

	var lines []domain.POLine
	err := r.db.withSem(ctx, func() error {
		return r.db.SelectContext(ctx, &lines, query, poNumber)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get lines for %s: %w", poNumber, err)
	}
	return lines, nil
}
