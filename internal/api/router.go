package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/linkgrove/searchsync/internal/api/recovery"
)

// NewRouter assembles the HTTP surface: the search endpoint and health.
func NewRouter(search Searcher, healthHandler *HealthHandler, log zerolog.Logger) *mux.Router {
	router := mux.NewRouter()

	router.Use(recovery.Middleware)

	searchHandler := NewSearchHandler(search, log)

	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/search", searchHandler.HandleSearch).Methods("POST")

	return router
}
