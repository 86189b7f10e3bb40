package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches/upcoming", handler.ListUpcomingMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/teams/{teamID}/matches", handler.ListTeamMatches)
	mux.HandleFunc("GET /v1/competitions/{code}/standings", handler.GetStandings)
	mux.HandleFunc("GET /v1/predictions/accuracy", handler.GetAccuracyStats)
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, syncToken string) {
	mux.Handle("POST /v1/internal/sync/run", RequireSyncToken(syncToken, http.HandlerFunc(handler.RunSync)))
}
