package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onto-forge/entities-service/internal/auth"
	"github.com/onto-forge/entities-service/internal/config"
	"github.com/onto-forge/entities-service/internal/server"
	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store/memory"
)

const baseNamespace = "http://onto-ns.com/meta"

func newTestServer(t *testing.T) (*server.Server, *memory.Store) {
	t.Helper()
	s := memory.New()
	srv := &server.Server{
		Config: config.Default(),
		Store:  s,
		Verifier: auth.StaticVerifier{
			"good-token": &auth.Identity{Subject: "tester"},
		},
		Rules: entity.Rules{
			BaseNamespace:   baseNamespace,
			ExtraNamespaces: []string{"chemistry"},
		},
		Logger: hclog.NewNullLogger(),
	}
	return srv, s
}

func seed(t *testing.T, s *memory.Store, namespace, version, name string) *entity.Entity {
	t.Helper()
	id := entity.Identifier{Namespace: namespace, Version: version, Name: name}
	e := &entity.Entity{
		URI:       id.URI(),
		Namespace: namespace,
		Version:   version,
		Name:      name,
		Properties: []entity.Property{
			{Name: "x", Type: "float", Description: "X."},
		},
	}
	require.NoError(t, s.Create(context.Background(), e))
	return e
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func post(handler http.Handler, path, token string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGetEntity(t *testing.T) {
	srv, s := newTestServer(t)
	seed(t, s, baseNamespace, "1.2", "Person")
	seed(t, s, baseNamespace+"/chemistry", "0.1", "Molecule")
	handler := New(srv)

	t.Run("base namespace", func(t *testing.T) {
		rec := get(handler, "/1.2/Person")
		require.Equal(t, http.StatusOK, rec.Code)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, baseNamespace+"/1.2/Person", doc["uri"])
		assert.Contains(t, doc, "properties")
	})

	t.Run("specific namespace", func(t *testing.T) {
		rec := get(handler, "/chemistry/0.1/Molecule")
		require.Equal(t, http.StatusOK, rec.Code)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, baseNamespace+"/chemistry/0.1/Molecule", doc["uri"])
	})

	t.Run("not found", func(t *testing.T) {
		rec := get(handler, "/9.9/Nothing")
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Detail, "could not find entity")
		assert.Contains(t, resp.Detail, baseNamespace+"/9.9/Nothing")
	})

	t.Run("absent specific namespace", func(t *testing.T) {
		rec := get(handler, "/physics/1/Thing")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed path", func(t *testing.T) {
		rec := get(handler, "/not-a-version/Person")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListEntities(t *testing.T) {
	srv, s := newTestServer(t)
	seed(t, s, baseNamespace, "1", "B")
	seed(t, s, baseNamespace, "1", "A")
	seed(t, s, baseNamespace+"/chemistry", "1", "Molecule")
	handler := New(srv)

	t.Run("default namespace", func(t *testing.T) {
		rec := get(handler, "/_api/entities")
		require.Equal(t, http.StatusOK, rec.Code)

		var docs []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
		require.Len(t, docs, 2)
		assert.Equal(t, baseNamespace+"/1/A", docs[0]["uri"])
		assert.Equal(t, baseNamespace+"/1/B", docs[1]["uri"])
	})

	t.Run("multiple namespaces", func(t *testing.T) {
		rec := get(handler, "/_api/entities"+
			"?namespace="+baseNamespace+
			"&namespace="+baseNamespace+"/chemistry")
		require.Equal(t, http.StatusOK, rec.Code)

		var docs []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
		assert.Len(t, docs, 3)
	})

	t.Run("invalid namespace", func(t *testing.T) {
		rec := get(handler, "/_api/entities?namespace=http://elsewhere.com/meta")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Detail, "invalid namespace(s)")
		assert.Contains(t, resp.Detail, "http://elsewhere.com/meta")
	})
}

// forbiddenVerifier accepts the token but reports missing group membership.
type forbiddenVerifier struct{}

func (forbiddenVerifier) Verify(context.Context, string) (*auth.Identity, error) {
	return nil, auth.ErrNotAuthorized
}

func entityDoc(name, version string) map[string]any {
	return map[string]any{
		"uri": baseNamespace + "/" + version + "/" + name,
		"properties": map[string]any{
			"x": map[string]any{"type": "float", "description": "X."},
		},
	}
}

func TestCreateEntities(t *testing.T) {
	t.Run("requires token", func(t *testing.T) {
		srv, _ := newTestServer(t)
		handler := New(srv)

		rec := post(handler, "/_admin/create", "", entityDoc("Person", "1"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects bad token", func(t *testing.T) {
		srv, _ := newTestServer(t)
		handler := New(srv)

		rec := post(handler, "/_admin/create", "bad-token", entityDoc("Person", "1"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects token without role", func(t *testing.T) {
		srv, _ := newTestServer(t)
		srv.Verifier = forbiddenVerifier{}
		handler := New(srv)

		rec := post(handler, "/_admin/create", "good-token", entityDoc("Person", "1"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("creates single entity", func(t *testing.T) {
		srv, s := newTestServer(t)
		handler := New(srv)

		rec := post(handler, "/_admin/create", "good-token", entityDoc("Person", "1"))
		require.Equal(t, http.StatusCreated, rec.Code)

		var docs []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
		require.Len(t, docs, 1)
		assert.Equal(t, baseNamespace+"/1/Person", docs[0]["uri"])
		assert.Equal(t, 1, s.Len())
	})

	t.Run("creates list of entities", func(t *testing.T) {
		srv, s := newTestServer(t)
		handler := New(srv)

		rec := post(handler, "/_admin/create", "good-token",
			[]any{entityDoc("A", "1"), entityDoc("B", "1")})
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 2, s.Len())
	})

	t.Run("empty list", func(t *testing.T) {
		srv, _ := newTestServer(t)
		handler := New(srv)

		rec := post(handler, "/_admin/create", "good-token", []any{})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("conflict", func(t *testing.T) {
		srv, s := newTestServer(t)
		seed(t, s, baseNamespace, "1", "Person")
		handler := New(srv)

		rec := post(handler, "/_admin/create", "good-token", entityDoc("Person", "1"))
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Detail, baseNamespace+"/1/Person")
	})

	t.Run("invalid entity reports all problems", func(t *testing.T) {
		srv, _ := newTestServer(t)
		handler := New(srv)

		doc := map[string]any{
			"uri": baseNamespace + "/1/Broken",
			"properties": map[string]any{
				"a": map[string]any{"description": "No type."},
				"b": map[string]any{"type": "string"},
			},
		}
		rec := post(handler, "/_admin/create", "good-token", doc)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Contains(t, resp.Detail, `"a"`)
		assert.Contains(t, resp.Detail, `"b"`)
	})

	t.Run("unsupported namespace", func(t *testing.T) {
		srv, _ := newTestServer(t)
		handler := New(srv)

		doc := entityDoc("Person", "1")
		doc["uri"] = "http://elsewhere.com/meta/1/Person"
		rec := post(handler, "/_admin/create", "good-token", doc)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateEntities(t *testing.T) {
	t.Run("updates existing entity", func(t *testing.T) {
		srv, s := newTestServer(t)
		seed(t, s, baseNamespace, "1", "Person")
		handler := New(srv)

		doc := entityDoc("Person", "1")
		doc["description"] = "Updated."
		rec := post(handler, "/_admin/update", "good-token", doc)
		require.Equal(t, http.StatusOK, rec.Code)

		e, err := s.Lookup(context.Background(), entity.Identifier{
			Namespace: baseNamespace, Version: "1", Name: "Person",
		})
		require.NoError(t, err)
		assert.Equal(t, "Updated.", e.Description)
	})

	t.Run("missing entity", func(t *testing.T) {
		srv, _ := newTestServer(t)
		handler := New(srv)

		rec := post(handler, "/_admin/update", "good-token", entityDoc("Ghost", "1"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
