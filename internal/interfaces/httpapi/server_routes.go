package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	registerAuthorizedCycleRoutes(mux, handler, verifier)
	registerAuthorizedSeasonRoutes(mux, handler, verifier)
}

func registerAuthorizedCycleRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/clubs/{clubID}/cycles", RequireAuth(verifier, http.HandlerFunc(handler.StartCycle)))
	mux.Handle("GET /v1/clubs/{clubID}/cycles/current", RequireAuth(verifier, http.HandlerFunc(handler.GetCurrentCycle)))
	mux.Handle("POST /v1/cycles/{cycleID}/advance", RequireAuth(verifier, http.HandlerFunc(handler.AdvanceCycle)))
	mux.Handle("GET /v1/cycles/{cycleID}/results", RequireAuth(verifier, http.HandlerFunc(handler.GetCycleResults)))
	mux.Handle("POST /v1/cycles/{cycleID}/nominations", RequireAuth(verifier, http.HandlerFunc(handler.SubmitNomination)))
	mux.Handle("PUT /v1/cycles/{cycleID}/watch-progress/{nominationID}", RequireAuth(verifier, http.HandlerFunc(handler.MarkWatched)))
	mux.Handle("POST /v1/cycles/{cycleID}/ballot", RequireAuth(verifier, http.HandlerFunc(handler.SubmitBallot)))
}

func registerAuthorizedSeasonRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/clubs/{clubID}/standings", RequireAuth(verifier, http.HandlerFunc(handler.ListStandings)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/rebuild-standings", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRebuildStandingsJob)))
}
