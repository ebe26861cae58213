package rest

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Route binds one API operation to its handler.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// NewRouter returns the gorilla mux router serving the v1 API.
func NewRouter(api *APIHandler) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	v1Subrouter := router.PathPrefix("/v1").Subrouter()

	for _, route := range apiRoutes(api) {
		v1Subrouter.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(route.HandlerFunc)
	}

	return router
}

// NewServer returns an HTTP server initialized with the REST API handler
func NewServer(api *APIHandler, listenAddress string, logger zerolog.Logger) *http.Server {
	router := NewRouter(api)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
			http.MethodHead},
	})

	return &http.Server{
		Addr:         listenAddress,
		Handler:      c.Handler(router),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}
}

// apiRoutes returns the gorilla mux routes for each operation of the API.
func apiRoutes(api *APIHandler) []Route {
	return []Route{
		{
			Name:        "RitualsGet",
			Method:      http.MethodGet,
			Pattern:     "/rituals",
			HandlerFunc: api.RitualsGet,
		},

		{
			Name:        "RitualsPost",
			Method:      http.MethodPost,
			Pattern:     "/rituals",
			HandlerFunc: api.RitualsPost,
		},

		{
			Name:        "RitualsIdGet",
			Method:      http.MethodGet,
			Pattern:     "/rituals/{id}",
			HandlerFunc: api.RitualsIdGet,
		},

		{
			Name:        "RitualsIdStatusGet",
			Method:      http.MethodGet,
			Pattern:     "/rituals/{id}/status",
			HandlerFunc: api.RitualsIdStatusGet,
		},

		{
			Name:        "RitualsIdParticipantsGet",
			Method:      http.MethodGet,
			Pattern:     "/rituals/{id}/participants",
			HandlerFunc: api.RitualsIdParticipantsGet,
		},

		{
			Name:        "RitualsIdTranscriptsPost",
			Method:      http.MethodPost,
			Pattern:     "/rituals/{id}/transcripts",
			HandlerFunc: api.RitualsIdTranscriptsPost,
		},

		{
			Name:        "RitualsIdAggregationsPost",
			Method:      http.MethodPost,
			Pattern:     "/rituals/{id}/aggregations",
			HandlerFunc: api.RitualsIdAggregationsPost,
		},

		{
			Name:        "ProvidersAddressPublicKeyPut",
			Method:      http.MethodPut,
			Pattern:     "/providers/{address}/public-key",
			HandlerFunc: api.ProvidersAddressPublicKeyPut,
		},

		{
			Name:        "ProvidersAddressPublicKeyGet",
			Method:      http.MethodGet,
			Pattern:     "/providers/{address}/public-key",
			HandlerFunc: api.ProvidersAddressPublicKeyGet,
		},
	}
}
