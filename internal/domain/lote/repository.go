package lote

import (
	"context"

	"github.com/shopspring/decimal"

	"beneficio/internal/core/id"
)

// Filter narrows lote listings.
type Filter struct {
	SoloActivos bool
	BodegaID    *id.ID
	TipoCafe    *string
	Limit       int
	Offset      int
}

// Repository persists lotes.
type Repository interface {
	Create(ctx context.Context, l *Lote) error
	GetByID(ctx context.Context, loteID id.ID) (*Lote, error)
	// GetByIDForUpdate locks the lote row for the rest of the transaction.
	// The lote row is the lock scope for its recibos and its chain children.
	GetByIDForUpdate(ctx context.Context, loteID id.ID) (*Lote, error)
	GetByCodigo(ctx context.Context, codigo string) (*Lote, error)
	Update(ctx context.Context, l *Lote) error
	List(ctx context.Context, filter Filter) ([]Lote, error)
}

// ReciboRepository persists intake receipts.
type ReciboRepository interface {
	Create(ctx context.Context, r *Recibo) error
	GetByID(ctx context.Context, reciboID id.ID) (*Recibo, error)
	Delete(ctx context.Context, reciboID id.ID) error
	ListByLote(ctx context.Context, loteID id.ID) ([]Recibo, error)
}

// ConsumoReader reports the total weight a lote's active procesados consume.
// Implemented by the procesado storage so the balance projection can be
// computed without importing that package.
type ConsumoReader interface {
	ConsumoTotal(ctx context.Context, loteID id.ID) (decimal.Decimal, error)
}
