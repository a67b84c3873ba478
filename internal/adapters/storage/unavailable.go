package storage

import (
	"context"

	"github.com/alejandrodnm/pixelwatch/internal/domain"
)

// Unavailable es la variante explícita de "no hay persistencia": todas las
// lecturas devuelven vacío y las escrituras son no-ops, sin error. Se usa
// cuando no hay DSN configurado (p. ej. entornos sin disco) para que el resto
// del sistema no tenga que distinguir el caso.
type Unavailable struct{}

func (Unavailable) Put(context.Context, domain.PriceChangeEvent) error { return nil }

func (Unavailable) GetByPixel(context.Context, int) ([]domain.PriceChangeEvent, error) {
	return nil, nil
}

func (Unavailable) GetByPixelAndType(context.Context, int, domain.EventType) ([]domain.PriceChangeEvent, error) {
	return nil, nil
}

func (Unavailable) GetAll(context.Context) ([]domain.PriceChangeEvent, error) { return nil, nil }

func (Unavailable) Count(context.Context) (int, error) { return 0, nil }

func (Unavailable) Close() error { return nil }
