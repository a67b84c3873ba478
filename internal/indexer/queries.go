package indexer

import (
	"context"

	"github.com/alejandrodnm/pixelwatch/internal/domain"
	"github.com/alejandrodnm/pixelwatch/internal/ports"
)

// Queries es la capa de lectura sobre el EventStore. Todas las operaciones
// son seguras sobre un store vacío o no disponible.
//
// El rango del pixel id NO se valida aquí: es responsabilidad del borde
// (la API) rechazar ids fuera de [0, PixelCount).
type Queries struct {
	store ports.EventStore
}

// NewQueries crea la capa de lectura sobre el store dado.
func NewQueries(store ports.EventStore) *Queries {
	return &Queries{store: store}
}

// PriceHistory devuelve el historial del pixel ascendente por timestamp.
func (q *Queries) PriceHistory(ctx context.Context, pixelID int) ([]domain.PriceChangeEvent, error) {
	return q.store.GetByPixel(ctx, pixelID)
}

// PriceHistoryByType es PriceHistory filtrado a una variante, mismo orden.
func (q *Queries) PriceHistoryByType(ctx context.Context, pixelID int, kind domain.EventType) ([]domain.PriceChangeEvent, error) {
	return q.store.GetByPixelAndType(ctx, pixelID, kind)
}

// LatestPrice devuelve el último evento del pixel (máximo timestamp), o nil
// si no tiene historial.
func (q *Queries) LatestPrice(ctx context.Context, pixelID int) (*domain.PriceChangeEvent, error) {
	history, err := q.store.GetByPixel(ctx, pixelID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}
	last := history[len(history)-1]
	return &last, nil
}

// PriceStats calcula min/max/media/total solo sobre las ventas del pixel.
// Cero ventas devuelve el estado cero {0,0,0,0}, no un error.
func (q *Queries) PriceStats(ctx context.Context, pixelID int) (domain.PriceStats, error) {
	sales, err := q.store.GetByPixelAndType(ctx, pixelID, domain.EventSale)
	if err != nil {
		return domain.ZeroStats(), err
	}
	return domain.ComputeStats(sales), nil
}
