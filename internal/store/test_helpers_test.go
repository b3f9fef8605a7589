package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/layerq/internal/layer"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustLayer parses id and fills default alliances.
func mustLayer(t *testing.T, id string) layer.Layer {
	t.Helper()
	l, err := layer.Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", id, err)
	}
	layer.DefaultAlliances.Fill(&l)
	return l
}

// seedStore creates a store holding the given layer ids.
func seedStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	s := createTestStore(t)
	layers := make([]layer.Layer, len(ids))
	for i, id := range ids {
		layers[i] = mustLayer(t, id)
	}
	if _, err := s.LoadLayers(context.Background(), layers); err != nil {
		t.Fatalf("LoadLayers() failed: %v", err)
	}
	return s
}
