package httptransport

import (
	"errors"
	"net/http"

	"pokedotduel/internal/store"

	"github.com/rs/zerolog/log"
)

type MeHandlers struct {
	history HistoryReader
}

func NewMeHandlers(history HistoryReader) *MeHandlers {
	return &MeHandlers{history: history}
}

func (h *MeHandlers) Progress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserFromContext(r.Context())
		p, err := h.history.GetProgress(r.Context(), userID)
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, store.UserProgress{UserID: userID})
			return
		}
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("get progress failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, p)
	}
}

func (h *MeHandlers) Ledger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserFromContext(r.Context())
		entries, err := h.history.ListLedgerEntries(r.Context(), userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("list ledger entries failed")
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		var balance int64
		for _, e := range entries {
			balance += e.Amount
		}
		limit, offset := ParsePagination(r)
		writeJSON(w, map[string]any{"user_id": userID, "net_lamports": balance, "items": page(entries, limit, offset)})
	}
}
