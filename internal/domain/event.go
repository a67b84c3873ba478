package domain

import (
	"fmt"
	"math/big"
	"sort"
)

// Grid dimensions of the PixelGrid contract. Pixel ids are dense row-major
// indexes into the grid.
const (
	GridWidth  = 192
	GridHeight = 108
	PixelCount = GridWidth * GridHeight // 20736
)

// EventType etiqueta la variante de un PriceChangeEvent.
type EventType string

const (
	// EventListed: el dueño publicó un precio de venta distinto de cero.
	EventListed EventType = "listed"
	// EventSale: la propiedad del pixel cambió de manos a un precio.
	EventSale EventType = "sale"
	// EventRemoved: el dueño retiró el listing (precio puesto a cero).
	EventRemoved EventType = "removed"
)

// Valid reporta si t es una de las tres variantes conocidas.
func (t EventType) Valid() bool {
	switch t {
	case EventListed, EventSale, EventRemoved:
		return true
	}
	return false
}

// PriceChangeEvent es el único registro que persiste el indexer: un cambio de
// precio observado on-chain para un pixel concreto.
type PriceChangeEvent struct {
	PixelID   int       // [0, PixelCount)
	Timestamp int64     // milisegundos desde epoch (block time × 1000)
	PriceWei  *big.Int  // precio en wei, no negativo
	EventType EventType
	From      string // lister (listed/removed) o vendedor (sale)
	To        string // comprador, solo para sale
	Block     uint64 // altura del bloque origen
	TxHash    string
	LogIndex  uint // índice del log dentro del bloque
}

// Key devuelve la identidad compuesta del registro. Dos eventos con la misma
// key son el mismo evento on-chain (redelivery o re-backfill) y se
// sobreescriben en vez de duplicarse. El log index desambigua eventos
// distintos del mismo pixel dentro del mismo bloque.
func (e PriceChangeEvent) Key() string {
	return fmt.Sprintf("%d-%d-%d-%d", e.PixelID, e.Timestamp, e.Block, e.LogIndex)
}

// ValidPixelID reporta si id cae dentro del grid.
func ValidPixelID(id int) bool {
	return id >= 0 && id < PixelCount
}

// SortByTimestamp ordena events ascendente por timestamp, con bloque y log
// index como desempate (estable para empates dentro del mismo bloque).
func SortByTimestamp(events []PriceChangeEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		return a.LogIndex < b.LogIndex
	})
}
