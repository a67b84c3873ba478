package indexer

// indexer.go — Ingestion pipeline for PixelGrid price-change events.
//
// Two sources feed the same store:
//   - a live log subscription (websocket RPC endpoints only)
//   - a windowed backfill over the most recent blocks on activation
//
// Both may deliver the same event; the store's composite-key upsert makes
// that harmless, so the pipeline never tracks what it already wrote.

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/alejandrodnm/pixelwatch/internal/adapters/onchain"
	"github.com/alejandrodnm/pixelwatch/internal/ports"
)

const defaultBackfillWindow = 10_000 // blocks, roughly 1-2 days depending on the chain

// Config contiene la configuración de la pipeline.
type Config struct {
	// Contract es la dirección del contrato PixelGrid desplegado. Con la
	// dirección cero la pipeline queda deshabilitada (todas las operaciones
	// son no-ops).
	Contract common.Address

	// BackfillWindow es cuántos bloques hacia atrás escanea el backfill.
	BackfillWindow uint64
}

// DefaultConfig devuelve una configuración sensata.
func DefaultConfig() Config {
	return Config{BackfillWindow: defaultBackfillWindow}
}

// Indexer mantiene el EventStore consistente con la chain para los dos tipos
// de evento, en vivo e histórico.
type Indexer struct {
	cfg   Config
	store ports.EventStore
	chain ports.ChainReader
	sink  ports.EventSink // opcional, puede ser nil

	mu      sync.Mutex
	message string
	loading bool

	sub     ethereum.Subscription
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// New crea un Indexer con las dependencias inyectadas. chain puede ser nil
// (sin conexión): todas las operaciones serán no-ops sin error.
func New(cfg Config, store ports.EventStore, chain ports.ChainReader, sink ports.EventSink) *Indexer {
	if cfg.BackfillWindow == 0 {
		cfg.BackfillWindow = defaultBackfillWindow
	}
	return &Indexer{
		cfg:   cfg,
		store: store,
		chain: chain,
		sink:  sink,
	}
}

// enabled reporta si hay contrato y conexión — las precondiciones de §ingesta.
func (ix *Indexer) enabled() bool {
	return ix.chain != nil && ix.cfg.Contract != (common.Address{})
}

// Start arranca la suscripción en vivo y lanza un backfill. Nunca devuelve
// los errores de la chain hacia arriba: quedan como mensaje de estado y la
// pipeline sigue sirviendo lo que tenga. Llamar Stop al terminar.
func (ix *Indexer) Start(ctx context.Context) {
	if !ix.enabled() {
		ix.setMessage("indexer disabled: missing contract address or chain connection")
		return
	}

	ix.mu.Lock()
	if ix.started {
		ix.mu.Unlock()
		return
	}
	ix.started = true
	ix.done = make(chan struct{})
	ix.mu.Unlock()

	query := onchain.FilterQuery(ix.cfg.Contract, nil, nil)
	logs := make(chan types.Log, 64)

	sub, err := ix.chain.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		// RPC sin soporte de suscripciones (HTTP) u otro fallo: seguimos
		// solo con backfill.
		slog.Warn("live subscription unavailable, backfill only", "err", err)
		ix.setMessage(fmt.Sprintf("live subscription unavailable: %v", err))
	} else {
		ix.mu.Lock()
		ix.sub = sub
		ix.mu.Unlock()

		ix.wg.Add(1)
		go ix.consume(ctx, sub, logs)
		ix.setMessage("event listener started")
	}

	if _, err := ix.Backfill(ctx); err != nil {
		slog.Warn("backfill failed", "err", err)
	}
}

// consume drena la suscripción en vivo hasta que se pare o falle.
func (ix *Indexer) consume(ctx context.Context, sub ethereum.Subscription, logs <-chan types.Log) {
	defer ix.wg.Done()

	for {
		select {
		case <-ix.done:
			return
		case err := <-sub.Err():
			if err != nil {
				slog.Warn("live subscription dropped", "err", err)
				ix.setMessage(fmt.Sprintf("live subscription dropped: %v", err))
			}
			return
		case log := <-logs:
			if err := ix.ingest(ctx, log); err != nil {
				slog.Warn("skipping live log", "err", err, "tx", log.TxHash.Hex())
			}
		}
	}
}

// Backfill escanea [head - window, head] para ambos tipos de evento y escribe
// cada resultado. Devuelve cuántos eventos escribió. Un fallo a mitad deja
// los ya escritos — la siguiente activación lo cura re-escaneando.
func (ix *Indexer) Backfill(ctx context.Context) (int, error) {
	if !ix.enabled() {
		return 0, nil
	}

	ix.setLoading(true)
	defer ix.setLoading(false)

	head, err := ix.chain.BlockNumber(ctx)
	if err != nil {
		ix.setMessage(fmt.Sprintf("backfill failed: %v", err))
		return 0, fmt.Errorf("indexer.Backfill: block number: %w", err)
	}

	fromBlock := uint64(0)
	if head > ix.cfg.BackfillWindow {
		fromBlock = head - ix.cfg.BackfillWindow
	}

	query := onchain.FilterQuery(
		ix.cfg.Contract,
		new(big.Int).SetUint64(fromBlock),
		new(big.Int).SetUint64(head),
	)

	logs, err := ix.chain.FilterLogs(ctx, query)
	if err != nil {
		ix.setMessage(fmt.Sprintf("backfill failed: %v", err))
		return 0, fmt.Errorf("indexer.Backfill: filter logs [%d, %d]: %w", fromBlock, head, err)
	}

	written := 0
	for _, log := range logs {
		if err := ix.ingest(ctx, log); err != nil {
			ix.setMessage(fmt.Sprintf("backfill failed after %d events: %v", written, err))
			return written, fmt.Errorf("indexer.Backfill: %w", err)
		}
		written++
	}

	slog.Info("backfill complete", "from", fromBlock, "to", head, "events", written)
	ix.setMessage(fmt.Sprintf("loaded %d historical events", written))
	return written, nil
}

// ingest normaliza un log crudo y lo persiste: decodifica, resuelve el
// timestamp del bloque (ms) y hace Put. Idempotente bajo redelivery.
func (ix *Indexer) ingest(ctx context.Context, log types.Log) error {
	if log.Removed {
		// log de un bloque reorganizado, ya no es canónico
		return nil
	}

	event, err := onchain.DecodeLog(log)
	if err != nil {
		return err
	}

	ts, err := ix.chain.TimestampAt(ctx, log.BlockNumber)
	if err != nil {
		return fmt.Errorf("indexer.ingest: resolve block %d: %w", log.BlockNumber, err)
	}
	event.Timestamp = ts * 1000 // precisión de milisegundos

	if err := ix.store.Put(ctx, event); err != nil {
		return err
	}

	if ix.sink != nil {
		ix.sink.Publish(event)
	}

	slog.Debug("event indexed",
		"pixel", event.PixelID,
		"type", event.EventType,
		"price_wei", event.PriceWei,
		"block", event.Block,
	)
	return nil
}

// Stop da de baja la suscripción en vivo y espera al consumidor. Seguro de
// llamar sin Start previo y más de una vez.
func (ix *Indexer) Stop() {
	ix.mu.Lock()
	if !ix.started {
		ix.mu.Unlock()
		return
	}
	ix.started = false
	sub := ix.sub
	ix.sub = nil
	done := ix.done
	ix.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	close(done)
	ix.wg.Wait()
}

// Status devuelve el último mensaje de estado y si hay un backfill en curso.
// Solo para mostrar en la UI.
func (ix *Indexer) Status() (message string, isLoading bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.message, ix.loading
}

func (ix *Indexer) setMessage(msg string) {
	ix.mu.Lock()
	ix.message = msg
	ix.mu.Unlock()
}

func (ix *Indexer) setLoading(v bool) {
	ix.mu.Lock()
	ix.loading = v
	ix.mu.Unlock()
}
