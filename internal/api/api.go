// Package api implements the HTTP surface of the entities service.
package api

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/hashicorp/go-hclog"

	"github.com/onto-forge/entities-service/internal/server"
)

// entityPathRegexp matches /{version}/{name} with an optional leading
// specific-namespace segment: /{namespace}/{version}/{name}.
var entityPathRegexp = regexp.MustCompile(
	`^/(?:(?P<namespace>[^/]+)/)?(?P<version>\d+(?:\.\d+){0,2})/(?P<name>[^/?#]+)$`)

// New builds the service handler.
func New(srv *server.Server) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/_api/entities", ListEntitiesHandler(srv))
	mux.Handle("/_admin/create", authorize(srv, CreateEntitiesHandler(srv)))
	mux.Handle("/_admin/update", authorize(srv, UpdateEntitiesHandler(srv)))
	mux.Handle("/", EntityHandler(srv))
	return mux
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func respondJSON(w http.ResponseWriter, log hclog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("error encoding response", "error", err)
	}
}

func respondError(w http.ResponseWriter, log hclog.Logger, status int, detail string) {
	respondJSON(w, log, status, errorResponse{Detail: detail})
}
