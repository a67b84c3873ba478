package ports

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainReader es el acceso de solo lectura a la chain que necesita el
// indexer: altura actual, logs históricos por filtro, suscripción en vivo y
// resolución de timestamps de bloque.
type ChainReader interface {
	// BlockNumber devuelve la altura actual de la chain.
	BlockNumber(ctx context.Context) (uint64, error)

	// FilterLogs devuelve los logs históricos que cumplen el filtro.
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)

	// SubscribeFilterLogs abre una suscripción en vivo sobre el filtro.
	// Solo funciona sobre endpoints RPC con soporte de suscripciones
	// (websocket/IPC); sobre HTTP devuelve error.
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// TimestampAt devuelve el timestamp Unix (segundos) del bloque dado.
	TimestampAt(ctx context.Context, blockNumber uint64) (int64, error)
}
