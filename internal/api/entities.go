package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/onto-forge/entities-service/internal/server"
	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store"
)

// EntityHandler serves GET /{version}/{name} and
// GET /{namespace}/{version}/{name} for specific namespaces.
func EntityHandler(srv *server.Server) http.Handler {
	log := srv.Logger

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		m := entityPathRegexp.FindStringSubmatch(r.URL.Path)
		if m == nil {
			respondError(w, log, http.StatusNotFound, "not found")
			return
		}
		specific, version, name := m[1], m[2], m[3]

		namespace := strings.TrimSuffix(srv.Rules.BaseNamespace, "/")
		if specific != "" {
			namespace += "/" + specific
		}

		id := entity.Identifier{Namespace: namespace, Version: version, Name: name}
		if _, err := srv.Rules.Identify(&entity.Entity{
			Namespace: id.Namespace, Version: id.Version, Name: id.Name,
		}); err != nil {
			respondError(w, log, http.StatusNotFound,
				fmt.Sprintf("could not find entity: uri=%s", id))
			return
		}

		e, err := srv.Store.Lookup(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, log, http.StatusNotFound,
				fmt.Sprintf("could not find entity: uri=%s", id))
			return
		}
		if err != nil {
			log.Error("error looking up entity", "uri", id.URI(), "error", err)
			respondError(w, log, http.StatusBadGateway, "backend lookup failed")
			return
		}

		respondJSON(w, log, http.StatusOK, e.Document())
	})
}

// ListEntitiesHandler serves GET /_api/entities?namespace=<url>. The
// namespace query may repeat; entities are returned as one aggregated flat
// list.
func ListEntitiesHandler(srv *server.Server) http.Handler {
	log := srv.Logger

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		lister, ok := srv.Store.(store.Lister)
		if !ok {
			respondError(w, log, http.StatusNotImplemented,
				"the configured backend cannot list entities")
			return
		}

		namespaces := r.URL.Query()["namespace"]
		if len(namespaces) == 0 {
			namespaces = []string{srv.Rules.BaseNamespace}
		}

		var badNamespaces []string
		seen := make(map[string]bool)
		var resolved []string
		for _, ns := range namespaces {
			ns = strings.TrimSuffix(ns, "/")
			if !srv.Rules.Supports(ns) {
				badNamespaces = append(badNamespaces, ns)
				continue
			}
			if !seen[ns] {
				seen[ns] = true
				resolved = append(resolved, ns)
			}
		}

		if len(badNamespaces) > 0 {
			respondError(w, log, http.StatusBadRequest,
				fmt.Sprintf("invalid namespace(s): %s", strings.Join(badNamespaces, ", ")))
			return
		}

		documents := []map[string]any{}
		for _, ns := range resolved {
			entities, err := lister.List(r.Context(), ns)
			if err != nil {
				log.Error("error listing entities", "namespace", ns, "error", err)
				respondError(w, log, http.StatusBadGateway, "backend listing failed")
				return
			}
			for _, e := range entities {
				documents = append(documents, e.Document())
			}
		}

		respondJSON(w, log, http.StatusOK, documents)
	})
}
