package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pokedotduel/internal/lobby"
	"pokedotduel/internal/matchmaking"
	"pokedotduel/internal/session"
	"pokedotduel/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type BattleReader interface {
	State(battleID string) (session.State, error)
	List() []session.State
	Replay(battleID string, after int64) ([]session.StreamEvent, error)
	Subscribe(battleID string) (<-chan session.StreamEvent, func(), error)
}

type QueueReader interface {
	Brackets() []matchmaking.Bracket
	Statuses() []matchmaking.QueueStatus
}

type LobbyReader interface {
	OpenLobbies() []lobby.State
}

type HistoryReader interface {
	GetBattle(ctx context.Context, battleID string) (store.Battle, error)
	ListRecentBattles(ctx context.Context, limit int) ([]store.Battle, error)
	ListTranscript(ctx context.Context, battleID string) ([]store.TranscriptEvent, error)
	GetProgress(ctx context.Context, userID string) (store.UserProgress, error)
	ListLedgerEntries(ctx context.Context, userID string) ([]store.LedgerEntry, error)
}

type PublicHandlers struct {
	battles BattleReader
	queue   QueueReader
	lobbies LobbyReader
	history HistoryReader
}

func NewPublicHandlers(battles BattleReader, queue QueueReader, lobbies LobbyReader, history HistoryReader) *PublicHandlers {
	return &PublicHandlers{battles: battles, queue: queue, lobbies: lobbies, history: history}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (h *PublicHandlers) Brackets() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"items": h.queue.Brackets()})
	}
}

func (h *PublicHandlers) Queues() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"items": h.queue.Statuses()})
	}
}

func (h *PublicHandlers) Lobbies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := ParsePagination(r)
		open := h.lobbies.OpenLobbies()
		writeJSON(w, map[string]any{"items": page(open, limit, offset), "total": len(open)})
	}
}

// Battles lists live battles plus the most recent persisted ones.
func (h *PublicHandlers) Battles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := ParsePagination(r)
		recent, err := h.history.ListRecentBattles(r.Context(), limit)
		if err != nil {
			log.Error().Err(err).Msg("list recent battles failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, map[string]any{"live": h.battles.List(), "recent": recent})
	}
}

// Battle serves the live state when the coordinator still holds the battle
// and falls back to the persisted record.
func (h *PublicHandlers) Battle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		battleID := chi.URLParam(r, "battle_id")
		if st, err := h.battles.State(battleID); err == nil {
			writeJSON(w, map[string]any{"source": "live", "battle": st})
			return
		}
		b, err := h.history.GetBattle(r.Context(), battleID)
		if err != nil {
			writeLookupError(w, err, battleID)
			return
		}
		writeJSON(w, map[string]any{"source": "store", "battle": b})
	}
}

func (h *PublicHandlers) Transcript() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		battleID := chi.URLParam(r, "battle_id")
		metricTranscriptQueryTotal.Add(1)
		if _, err := h.history.GetBattle(r.Context(), battleID); err != nil {
			metricTranscriptQueryErrors.Add(1)
			writeLookupError(w, err, battleID)
			return
		}
		items, err := h.history.ListTranscript(r.Context(), battleID)
		if err != nil {
			metricTranscriptQueryErrors.Add(1)
			log.Error().Err(err).Str("battle_id", battleID).Msg("list transcript failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, map[string]any{"battle_id": battleID, "items": items})
	}
}

// Events streams a battle's event log as SSE, replaying after Last-Event-ID.
func (h *PublicHandlers) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		battleID := chi.URLParam(r, "battle_id")
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteHTTPError(w, http.StatusInternalServerError, "streaming_unsupported")
			return
		}
		ch, cancel, err := h.battles.Subscribe(battleID)
		if err != nil {
			writeLookupError(w, err, battleID)
			return
		}
		defer cancel()
		replay, err := h.battles.Replay(battleID, lastEventID(r))
		if err != nil {
			writeLookupError(w, err, battleID)
			return
		}

		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		SetSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		sent := lastEventID(r)
		for _, ev := range replay {
			if err := WriteSSE(w, ev); err != nil {
				return
			}
			sent = ev.EventID
		}
		flusher.Flush()

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if ev.EventID <= sent {
					continue
				}
				if err := WriteSSE(w, ev); err != nil {
					return
				}
				sent = ev.EventID
				flusher.Flush()
			case <-ticker.C:
				now := time.Now().UnixMilli()
				ping := session.StreamEvent{Event: "ping", BattleID: battleID, ServerTS: now, Data: map[string]any{"ts": now}}
				if err := WriteSSE(w, ping); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeLookupError(w http.ResponseWriter, err error, battleID string) {
	switch {
	case errors.Is(err, session.ErrBattleNotFound), errors.Is(err, store.ErrNotFound):
		WriteHTTPError(w, http.StatusNotFound, "battle_not_found")
	default:
		log.Error().Err(err).Str("battle_id", battleID).Msg("battle lookup failed")
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
