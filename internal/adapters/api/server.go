package api

// server.go — JSON read API for the canvas UI.
//
// The UI never touches the store or the chain: it reads derived views
// through these endpoints and receives live events over /ws. Pixel id range
// validation happens here, at the boundary — the core trusts its callers.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/alejandrodnm/pixelwatch/internal/domain"
	"github.com/alejandrodnm/pixelwatch/internal/indexer"
	"github.com/alejandrodnm/pixelwatch/internal/ports"
)

// StatusSource expone el estado de la pipeline para /api/status.
type StatusSource interface {
	Status() (message string, isLoading bool)
}

// Server sirve la API de lectura y el endpoint websocket.
type Server struct {
	queries  *indexer.Queries
	store    ports.EventStore
	status   StatusSource
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer crea el servidor. hub puede compartirse con el indexer como
// EventSink para el push en vivo.
func NewServer(queries *indexer.Queries, store ports.EventStore, status StatusSource, hub *Hub) *Server {
	return &Server{
		queries: queries,
		store:   store,
		status:  status,
		hub:     hub,
		upgrader: websocket.Upgrader{
			// la UI se sirve desde otro origen en desarrollo
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler devuelve el mux con todas las rutas montadas.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/pixels/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /api/pixels/{id}/latest", s.handleLatest)
	mux.HandleFunc("GET /api/pixels/{id}/stats", s.handleStats)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return mux
}

// Run arranca el servidor HTTP y lo apaga limpiamente al cancelar ctx.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("api server listening", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// pixelID extrae y valida el path param {id}. El rango se valida AQUÍ:
// ids fuera de [0, PixelCount) no llegan al core.
func pixelID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || !domain.ValidPixelID(id) {
		httpError(w, http.StatusBadRequest, "pixel id must be an integer in [0, 20735]")
		return 0, false
	}
	return id, true
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pixelID(w, r)
	if !ok {
		return
	}

	var (
		history []domain.PriceChangeEvent
		err     error
	)
	if kind := r.URL.Query().Get("type"); kind != "" {
		eventType := domain.EventType(kind)
		if !eventType.Valid() {
			httpError(w, http.StatusBadRequest, "type must be one of listed, sale, removed")
			return
		}
		history, err = s.queries.PriceHistoryByType(r.Context(), id, eventType)
	} else {
		history, err = s.queries.PriceHistory(r.Context(), id)
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]eventJSON, 0, len(history))
	for _, e := range history {
		out = append(out, toEventJSON(e))
	}
	writeJSON(w, out)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	id, ok := pixelID(w, r)
	if !ok {
		return
	}

	latest, err := s.queries.LatestPrice(r.Context(), id)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if latest == nil {
		httpError(w, http.StatusNotFound, "no price history for pixel")
		return
	}
	writeJSON(w, toEventJSON(*latest))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pixelID(w, r)
	if !ok {
		return
	}

	stats, err := s.queries.PriceStats(r.Context(), id)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, statsJSON{
		MinPrice:   stats.MinPrice.String(),
		MaxPrice:   stats.MaxPrice.String(),
		AvgPrice:   stats.AvgPrice.String(),
		TotalSales: stats.TotalSales,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	message, isLoading := s.status.Status()
	events, err := s.store.Count(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, statusJSON{
		Message:   message,
		IsLoading: isLoading,
		Events:    events,
		Clients:   s.hub.ClientCount(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	id := s.hub.add(conn)
	slog.Debug("ws client connected", "client", id)

	// Drenar el lado de lectura solo para detectar el cierre; los clientes
	// no mandan nada útil.
	go func() {
		defer s.hub.remove(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				slog.Debug("ws client disconnected", "client", id)
				return
			}
		}
	}()
}

// --- wire types ---

type eventJSON struct {
	PixelID     int    `json:"pixelId"`
	Timestamp   int64  `json:"timestamp"`
	PriceWei    string `json:"priceWei"`
	EventType   string `json:"eventType"`
	FromAddress string `json:"fromAddress,omitempty"`
	ToAddress   string `json:"toAddress,omitempty"`
	BlockNumber uint64 `json:"blockNumber"`
	TxHash      string `json:"txHash,omitempty"`
	LogIndex    uint   `json:"logIndex"`
}

type statsJSON struct {
	MinPrice   string `json:"minPrice"`
	MaxPrice   string `json:"maxPrice"`
	AvgPrice   string `json:"avgPrice"`
	TotalSales int    `json:"totalSales"`
}

type statusJSON struct {
	Message   string `json:"message"`
	IsLoading bool   `json:"isLoading"`
	Events    int    `json:"events"`
	Clients   int    `json:"clients"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func toEventJSON(e domain.PriceChangeEvent) eventJSON {
	price := "0"
	if e.PriceWei != nil {
		price = e.PriceWei.String()
	}
	return eventJSON{
		PixelID:     e.PixelID,
		Timestamp:   e.Timestamp,
		PriceWei:    price,
		EventType:   string(e.EventType),
		FromAddress: e.From,
		ToAddress:   e.To,
		BlockNumber: e.Block,
		TxHash:      e.TxHash,
		LogIndex:    e.LogIndex,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("api: encode response", "err", err)
	}
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorJSON{Error: msg})
}
