package httptransport

import (
	"expvar"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the router serves. WS and MCP may be nil.
type Deps struct {
	Battles  BattleReader
	Queue    QueueReader
	Lobbies  LobbyReader
	History  HistoryReader
	Verifier TokenVerifier
	WS       http.Handler
	MCP      http.Handler
}

func NewRouter(d Deps) *chi.Mux {
	public := NewPublicHandlers(d.Battles, d.Queue, d.Lobbies, d.History)
	me := NewMeHandlers(d.History)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})
	if d.WS != nil {
		// Upgraded connections outlive the request log line, so /ws is not
		// wrapped in the request logger.
		r.Handle("/ws", d.WS)
	}
	if d.MCP != nil {
		r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(APILogMiddleware(), RPCCaptureMiddleware(4096)).Method(http.MethodPost, "/mcp", d.MCP)
		for _, method := range []string{http.MethodGet, http.MethodDelete} {
			r.With(APILogMiddleware()).Method(method, "/mcp", d.MCP)
		}
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Get("/public/brackets", public.Brackets())
		r.Get("/public/queues", public.Queues())
		r.Get("/public/lobbies", public.Lobbies())
		r.Get("/public/battles", public.Battles())
		r.Get("/public/battles/{battle_id}", public.Battle())
		r.Get("/public/battles/{battle_id}/transcript", public.Transcript())
		r.Get("/public/battles/{battle_id}/events", public.Events())

		r.Group(func(r chi.Router) {
			r.Use(UserAuthMiddleware(d.Verifier))
			r.Get("/me/progress", me.Progress())
			r.Get("/me/ledger", me.Ledger())
		})

		r.Get("/debug/vars", expvar.Handler().ServeHTTP)
	})
	return r
}

// LogRoutes logs the registered routes sorted by path, then method.
func LogRoutes(r chi.Routes) {
	type route struct{ method, path string }
	var routes []route
	err := chi.Walk(r, func(method, path string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, route{method: method, path: path})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].path == routes[j].path {
			return routes[i].method < routes[j].method
		}
		return routes[i].path < routes[j].path
	})
	lines := make([]string, 0, len(routes))
	for _, rt := range routes {
		lines = append(lines, rt.method+" "+rt.path)
	}
	log.Info().Int("count", len(lines)).Strs("routes", lines).Msg("registered routes")
}
