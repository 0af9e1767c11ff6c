package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store"
)

func testEntity(name, version string) *entity.Entity {
	id := entity.Identifier{
		Namespace: "http://onto-ns.com/meta", Version: version, Name: name,
	}
	return &entity.Entity{
		URI:       id.URI(),
		Namespace: id.Namespace,
		Version:   id.Version,
		Name:      id.Name,
		Properties: []entity.Property{
			{Name: "x", Type: "float", Description: "X."},
		},
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	e := testEntity("Person", "1.2")
	id := entity.Identifier{
		Namespace: e.Namespace, Version: e.Version, Name: e.Name,
	}

	_, err := s.Lookup(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Create(ctx, e))
	assert.ErrorIs(t, s.Create(ctx, e), store.ErrConflict)

	got, err := s.Lookup(ctx, id)
	require.NoError(t, err)
	assert.True(t, e.Equal(got))

	// Mutating the returned copy must not touch the stored entity.
	got.Description = "mutated"
	again, err := s.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, again.Description)

	changed := testEntity("Person", "1.2")
	changed.Description = "Updated."
	require.NoError(t, s.Update(ctx, changed))
	got, err = s.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Updated.", got.Description)

	assert.ErrorIs(t, s.Update(ctx, testEntity("Missing", "1")), store.ErrNotFound)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := New()

	b := testEntity("B", "1")
	a := testEntity("A", "1")
	other := testEntity("C", "1")
	other.Namespace = "http://other.org/meta"
	other.URI = "http://other.org/meta/1/C"

	require.NoError(t, s.Create(ctx, b))
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, other))

	got, err := s.List(ctx, "http://onto-ns.com/meta")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "B", got[1].Name)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 3, s.Len())
}
