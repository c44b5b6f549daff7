/*
 * file: main_handlers.go
 * package: handlers
 * description:
 *     HTTP handlers for the WebSocket upgrade route and the supplemental,
 *     operator-facing match-history endpoint. These sit outside the
 *     client-facing wire protocol described in spec.md §6.
 */

package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/orbitforge/roomserver/internal/adapters/transport"
	"github.com/orbitforge/roomserver/internal/core/ports"
	"github.com/orbitforge/roomserver/internal/core/services"
)

const historyQueryTimeout = 2 * time.Second
const historyDefaultLimit = 50

/*
 * WebSocketHandler manages WebSocket connections for real-time communication.
 *
 * Fields:
 *   - registry (*services.Registry): The room registry every Player Session
 *     for this connection is wired to.
 *
 * Returns:
 *   - *WebSocketHandler: A new instance of WebSocketHandler.
 */
type WebSocketHandler struct {
	registry *services.Registry
}

func NewWebSocketHandler(registry *services.Registry) *WebSocketHandler {
	return &WebSocketHandler{registry: registry}
}

/*
 * HandleConnection upgrades an HTTP request to a WebSocket connection and
 * hands it to the transport adapter, which wires a fresh Player Session.
 *
 * Parameters:
 *   - w (http.ResponseWriter): The HTTP response writer.
 *   - r (*http.Request): The HTTP request.
 *
 * Returns:
 *   - None.
 */
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	transport.ServeWS(h.registry, w, r)
}

/*
 * HistoryHandler serves the supplemental operator-facing match-history
 * endpoint described in SPEC_FULL.md §4.4.
 *
 * Fields:
 *   - history (ports.MatchHistoryRepository): Repository used to read
 *     persisted MatchRecord rows.
 *
 * Returns:
 *   - *HistoryHandler: A new instance of HistoryHandler.
 */
type HistoryHandler struct {
	history ports.MatchHistoryRepository
}

func NewHistoryHandler(history ports.MatchHistoryRepository) *HistoryHandler {
	return &HistoryHandler{history: history}
}

/*
 * GetHistory returns the most recently closed rooms as JSON, newest first.
 *
 * Parameters:
 *   - w (http.ResponseWriter): The HTTP response writer.
 *   - r (*http.Request): The HTTP request.
 *
 * Returns:
 *   - None. Writes the history to the response.
 */
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), historyQueryTimeout)
	defer cancel()

	records, err := h.history.Recent(ctx, historyDefaultLimit)
	if err != nil {
		log.Printf("ERROR: failed to load match history: %v", err)
		respondWithError(w, http.StatusInternalServerError, "could not retrieve match history")
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
