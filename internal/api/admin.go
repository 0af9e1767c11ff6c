package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/onto-forge/entities-service/internal/auth"
	"github.com/onto-forge/entities-service/internal/server"
	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store"
)

// authorize wraps write endpoints with bearer-token verification.
func authorize(srv *server.Server, next http.Handler) http.Handler {
	log := srv.Logger

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, log, http.StatusUnauthorized, "missing bearer token")
			return
		}

		identity, err := srv.Verifier.Verify(r.Context(), token)
		switch {
		case errors.Is(err, auth.ErrNotAuthorized):
			respondError(w, log, http.StatusForbidden, err.Error())
			return
		case err != nil:
			respondError(w, log, http.StatusUnauthorized, "could not verify bearer token")
			return
		}

		log.Debug("authorized write request",
			"subject", identity.Subject, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// decodeEntities accepts a single entity document or a list of them,
// validated and identified against the service rules. All validation errors
// are aggregated so the client sees every problem in one response.
func decodeEntities(srv *server.Server, r *http.Request) ([]*entity.Entity, error) {
	var decoded any
	if err := json.NewDecoder(r.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	var docs []map[string]any
	switch v := decoded.(type) {
	case map[string]any:
		docs = []map[string]any{v}
	case []any:
		for _, item := range v {
			doc, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("list items must be entity documents")
			}
			docs = append(docs, doc)
		}
	default:
		return nil, fmt.Errorf("expected an entity document or a list of them")
	}

	var result *multierror.Error
	entities := make([]*entity.Entity, 0, len(docs))
	for _, doc := range docs {
		e, err := entity.Validate(doc)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if _, err := srv.Rules.Identify(e); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		entities = append(entities, e)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return entities, nil
}

// CreateEntitiesHandler serves POST /_admin/create.
func CreateEntitiesHandler(srv *server.Server) http.Handler {
	log := srv.Logger

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		entities, err := decodeEntities(srv, r)
		if err != nil {
			respondError(w, log, http.StatusBadRequest, err.Error())
			return
		}
		if len(entities) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		created := make([]map[string]any, 0, len(entities))
		for _, e := range entities {
			if err := srv.Store.Create(r.Context(), e); err != nil {
				if errors.Is(err, store.ErrConflict) {
					respondError(w, log, http.StatusConflict,
						fmt.Sprintf("entity already exists: uri=%s", e.URI))
					return
				}
				log.Error("error creating entity", "uri", e.URI, "error", err)
				respondError(w, log, http.StatusBadGateway,
					fmt.Sprintf("could not create entity: uri=%s", e.URI))
				return
			}
			log.Info("entity created", "uri", e.URI)
			created = append(created, e.Document())
		}

		respondJSON(w, log, http.StatusCreated, created)
	})
}

// UpdateEntitiesHandler serves POST /_admin/update, replacing entities that
// already exist under the same identifier.
func UpdateEntitiesHandler(srv *server.Server) http.Handler {
	log := srv.Logger

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		entities, err := decodeEntities(srv, r)
		if err != nil {
			respondError(w, log, http.StatusBadRequest, err.Error())
			return
		}
		if len(entities) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		updated := make([]map[string]any, 0, len(entities))
		for _, e := range entities {
			if err := srv.Store.Update(r.Context(), e); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					respondError(w, log, http.StatusNotFound,
						fmt.Sprintf("could not find entity: uri=%s", e.URI))
					return
				}
				log.Error("error updating entity", "uri", e.URI, "error", err)
				respondError(w, log, http.StatusBadGateway,
					fmt.Sprintf("could not update entity: uri=%s", e.URI))
				return
			}
			log.Info("entity updated", "uri", e.URI)
			updated = append(updated, e.Document())
		}

		respondJSON(w, log, http.StatusOK, updated)
	})
}
