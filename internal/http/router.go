package httpapi

import (
	"net/http"

	"collab-events/internal/domain"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Router wraps a gorilla mux. Every request passes through request-id and
// access-log middleware; /api/events routes also require a bearer token.
type Router struct {
	mux    *mux.Router
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	m := mux.NewRouter()
	m.Use(withRequestID, accessLog(logger))
	m.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, Fail("route not found"))
	})
	m.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Fail("method not allowed"))
	})
	return &Router{mux: m, logger: logger}
}

// HandleHandler mounts a plain http.Handler (used for /metrics).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.mux.HandleFunc("/health", h.Health).Methods(http.MethodGet)
}

func (r *Router) RegisterAuthRoutes(h *AuthHandler) {
	s := r.mux.PathPrefix("/api/auth").Subrouter()
	s.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	s.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	s.HandleFunc("/refresh", h.Refresh).Methods(http.MethodPost)
	s.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
}

// EventRoutes groups the handlers mounted under /api/events.
type EventRoutes struct {
	Events        *EventHandler
	History       *HistoryHandler
	Collaboration *CollaborationHandler
}

// RegisterEventRoutes mounts the event, history and sharing routes. Writes to
// events additionally require a global Owner or Editor role; event-level
// grants are checked by the services.
func (r *Router) RegisterEventRoutes(auth Authenticator, authz Authorizer, h EventRoutes) {
	s := r.mux.PathPrefix("/api/events").Subrouter()
	s.Use(requireToken(auth, r.logger))
	writer := roleRequired(authz, r.logger, domain.RoleOwner, domain.RoleEditor)

	e := h.Events
	// the collection answers with and without a trailing slash
	for _, root := range []string{"", "/"} {
		s.HandleFunc(root, writer(e.Create)).Methods(http.MethodPost)
		s.HandleFunc(root, e.List).Methods(http.MethodGet)
	}
	s.HandleFunc("/batch", writer(e.Batch)).Methods(http.MethodPost)
	s.HandleFunc("/{id:[0-9]+}", e.Get).Methods(http.MethodGet)
	s.HandleFunc("/{id:[0-9]+}", writer(e.Update)).Methods(http.MethodPut)
	s.HandleFunc("/{id:[0-9]+}", writer(e.Delete)).Methods(http.MethodDelete)

	v := h.History
	s.HandleFunc("/{id:[0-9]+}/history", v.ListVersions).Methods(http.MethodGet)
	s.HandleFunc("/{id:[0-9]+}/history/{version:[0-9]+}", v.GetVersion).Methods(http.MethodGet)
	s.HandleFunc("/{id:[0-9]+}/rollback/{version:[0-9]+}", v.Rollback).Methods(http.MethodPost)
	s.HandleFunc("/{id:[0-9]+}/changelog", v.Changelog).Methods(http.MethodGet)
	s.HandleFunc("/{id:[0-9]+}/changelog/export", v.ExportChangelog).Methods(http.MethodGet)
	s.HandleFunc("/{id:[0-9]+}/diff/{v1:[0-9]+}/{v2:[0-9]+}", v.Diff).Methods(http.MethodGet)

	c := h.Collaboration
	s.HandleFunc("/{id:[0-9]+}/share", c.Share).Methods(http.MethodPost)
	s.HandleFunc("/{id:[0-9]+}/permissions", c.List).Methods(http.MethodGet)
	s.HandleFunc("/{id:[0-9]+}/permissions/{uid:[0-9]+}", c.Update).Methods(http.MethodPut)
	s.HandleFunc("/{id:[0-9]+}/permissions/{uid:[0-9]+}", c.Remove).Methods(http.MethodDelete)
}
