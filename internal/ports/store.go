package ports

import (
	"context"

	"github.com/alejandrodnm/pixelwatch/internal/domain"
)

// EventStore persiste los PriceChangeEvent indexados.
//
// El store es el único dueño de los registros: la pipeline de ingesta produce
// candidatos y los entrega vía Put, nunca toca los índices internos.
type EventStore interface {
	// Put inserta o sobreescribe el registro con su key compuesta.
	// Sobreescribir no es un error: last-write-wins.
	Put(ctx context.Context, event domain.PriceChangeEvent) error

	// GetByPixel devuelve todos los registros del pixel, ascendente por
	// timestamp. Slice vacío si no hay ninguno o el store no está disponible.
	GetByPixel(ctx context.Context, pixelID int) ([]domain.PriceChangeEvent, error)

	// GetByPixelAndType es GetByPixel filtrado a una variante, mismo orden.
	GetByPixelAndType(ctx context.Context, pixelID int, kind domain.EventType) ([]domain.PriceChangeEvent, error)

	// GetAll devuelve todos los registros, sin garantía de orden.
	GetAll(ctx context.Context) ([]domain.PriceChangeEvent, error)

	// Count devuelve el número total de registros almacenados.
	Count(ctx context.Context) (int, error)

	// Close cierra el store limpiamente.
	Close() error
}
