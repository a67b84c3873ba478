package ports

import "github.com/alejandrodnm/pixelwatch/internal/domain"

// EventSink recibe cada evento recién ingestado, ya normalizado y persistido.
// Lo usa la capa de API para empujar actualizaciones en vivo a la UI.
type EventSink interface {
	Publish(event domain.PriceChangeEvent)
}

// EventSinkFunc adapta una función a EventSink.
type EventSinkFunc func(domain.PriceChangeEvent)

func (f EventSinkFunc) Publish(e domain.PriceChangeEvent) { f(e) }
