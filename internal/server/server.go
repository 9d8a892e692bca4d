// Package server implements the coinboard backend: an HTTP API serving the
// currency listing and per-currency detail from an in-memory snapshot that
// a background refresher keeps synced with CoinMarketCap, plus a websocket
// stream of snapshot updates.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/coinboard/coinboard/internal/currency"
	"github.com/coinboard/coinboard/internal/logging"
)

// APIVersion is advertised on every response for client compatibility
// checks.
const APIVersion = "1.0.0"

// shutdownTimeout bounds graceful shutdown once the run context ends.
const shutdownTimeout = 5 * time.Second

// wireRow is the JSON shape of a listing/detail row. Identifiers are not on
// the wire: position in the listing implies them.
type wireRow struct {
	Name     string             `json:"name"`
	Symbol   string             `json:"symbol"`
	Price    currency.Price     `json:"price"`
	SyncedAt currency.Timestamp `json:"sync_timestamp"`
}

func toWireRow(d currency.Detail) wireRow {
	return wireRow{
		Name:     d.Name,
		Symbol:   d.Symbol,
		Price:    d.Price,
		SyncedAt: d.SyncedAt,
	}
}

func listingResponse(rows []currency.Detail) []wireRow {
	out := make([]wireRow, len(rows))
	for i, row := range rows {
		out[i] = toWireRow(row)
	}
	return out
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Server is the coinboard backend HTTP service.
type Server struct {
	addr      string
	store     *Store
	hub       *Hub
	refresher *Refresher
	logger    zerolog.Logger
}

// New wires a Server around store. refresher may be nil for tests that
// seed the store directly.
func New(addr string, store *Store, hub *Hub, refresher *Refresher, logger zerolog.Logger) *Server {
	return &Server{
		addr:      addr,
		store:     store,
		hub:       hub,
		refresher: refresher,
		logger:    logging.ComponentLogger(logger, "server"),
	}
}

// Handler returns the routed HTTP handler with logging middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cryptocurrencies", s.handleList)
	mux.HandleFunc("GET /cryptocurrencies/{id}", s.handleGet)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /stream", s.handleStream)
	return s.requestLogger(mux)
}

// Run serves HTTP and drives the refresher until ctx is cancelled, then
// shuts both down.
func (s *Server) Run(ctx context.Context) error {
	ctx = logging.WithContext(ctx, s.logger)

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.logger.Info().Str("addr", s.addr).Msg("backend listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if s.refresher != nil {
		group.Go(func() error {
			err := s.refresher.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		if s.hub != nil {
			s.hub.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, listingResponse(s.store.List()))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := currency.ParseID(r.PathValue("id"))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Currency not found"})
		return
	}

	row, ok := s.store.Get(id)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Currency not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, toWireRow(row))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]int{"currencies": s.store.Len()})
}

//nolint:gochecknoglobals // Upgrader is stateless and shared across requests.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// handleStream upgrades to a websocket and pushes the current snapshot
// immediately, then every refresh until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.hub.Register(conn)
	s.hub.Send(conn, s.store.List())

	// Reader loop: we never expect client frames, but reading is what
	// detects the peer closing.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.Unregister(conn)
				return
			}
		}
	}()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Api-Version", APIVersion)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("write response failed")
	}
}

// requestLogger tags every request with a ULID request id and logs method,
// path, status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logging.NewRequestID()

		logger := s.logger.With().Str("request_id", requestID).Logger()
		r = r.WithContext(logging.WithContext(r.Context(), logger))
		w.Header().Set("X-Request-Id", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// statusRecorder captures the response status for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack delegates to the wrapped writer so the websocket upgrade still
// works behind the logging middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
