package disambiguation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	byKey  map[string]models.CanonicalEntity
	calls  int
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 100, byKey: map[string]models.CanonicalEntity{}}
}

func (s *fakeStore) FindOrCreate(_ context.Context, key graph.EntityKey, name string, _ map[string]any) (models.CanonicalEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return models.CanonicalEntity{}, s.err
	}
	if e, ok := s.byKey[key.MatchKey]; ok {
		return e, nil
	}
	s.nextID++
	e := models.CanonicalEntity{ID: s.nextID, Name: name, Type: key.Type, TenantID: key.TenantID}
	s.byKey[key.MatchKey] = e
	return e, nil
}

type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	m.ttls[key] = expiration
	return nil
}

func newDisambiguator(t *testing.T, expression string, store EntityStore, cache EntityCache) *GraphDisambiguator {
	t.Helper()
	extractor, err := NewNameExtractor(expression)
	require.NoError(t, err)
	chains, err := normalizers.ParseTypeChains([]string{"person=nname"})
	require.NoError(t, err)
	return NewGraphDisambiguator(extractor, chains, store, cache, testLogger())
}

func rc(m models.EntityMention) models.ResolutionContext {
	return models.ResolutionContext{Current: m, TenantID: "tenant-1"}
}

func TestNameExtractor(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		mention    models.EntityMention
		want       []string
		wantErr    bool
	}{
		{
			name:    "mention name",
			mention: models.EntityMention{Name: "Acme"},
			want:    []string{"Acme"},
		},
		{
			name:    "falls back to attribute",
			mention: models.EntityMention{Attributes: map[string]any{"name": "Acme Inc"}},
			want:    []string{"Acme Inc"},
		},
		{
			name:    "no name",
			mention: models.EntityMention{Type: "Company"},
			want:    nil,
		},
		{
			name:       "list splits the mention",
			expression: "attributes.aliases",
			mention:    models.EntityMention{Attributes: map[string]any{"aliases": []any{"Bob", " ", "Robert", 7}}},
			want:       []string{"Bob", "Robert"},
		},
		{
			name:       "non string result",
			expression: "attributes.count",
			mention:    models.EntityMention{Attributes: map[string]any{"count": 3.0}},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewNameExtractor(tt.expression)
			require.NoError(t, err)

			got, err := e.Extract(tt.mention)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("invalid expression", func(t *testing.T) {
		_, err := NewNameExtractor("name ||")
		assert.Error(t, err)
	})
}

func TestGraphDisambiguator(t *testing.T) {
	ctx := context.Background()

	t.Run("same normalized name resolves to the same entity", func(t *testing.T) {
		store := newFakeStore()
		d := newDisambiguator(t, "", store, nil)

		first, err := d.Disambiguate(ctx, rc(models.EntityMention{TmpID: 1, Type: "Person", Name: "Bob Smith"}))
		require.NoError(t, err)
		second, err := d.Disambiguate(ctx, rc(models.EntityMention{TmpID: 2, Type: "Person", Name: "  bob  SMITH Jr."}))
		require.NoError(t, err)

		require.Len(t, first, 1)
		require.Len(t, second, 1)
		assert.Equal(t, first[0].Entity.ID, second[0].Entity.ID)
		assert.Equal(t, int64(2), second[0].Mention.TmpID)
	})

	t.Run("unnamed mention yields no pairs", func(t *testing.T) {
		store := newFakeStore()
		d := newDisambiguator(t, "", store, nil)

		pairs, err := d.Disambiguate(ctx, rc(models.EntityMention{TmpID: 1, Type: "Company"}))
		require.NoError(t, err)
		assert.Empty(t, pairs)
		assert.Equal(t, 0, store.calls)
	})

	t.Run("split mention yields one pair per distinct name", func(t *testing.T) {
		store := newFakeStore()
		d := newDisambiguator(t, "attributes.members", store, nil)

		pairs, err := d.Disambiguate(ctx, rc(models.EntityMention{
			TmpID:      3,
			Type:       "Person",
			Attributes: map[string]any{"members": []any{"Alice", "Bob", "alice"}},
		}))
		require.NoError(t, err)
		require.Len(t, pairs, 2)
		assert.NotEqual(t, pairs[0].Entity.ID, pairs[1].Entity.ID)
		assert.Equal(t, int64(3), pairs[1].Mention.TmpID)
	})

	t.Run("cache is used before the store", func(t *testing.T) {
		store := newFakeStore()
		kv := newMemoryKV()
		d := newDisambiguator(t, "", store, NewRedisEntityCache(kv, time.Hour))

		m := models.EntityMention{TmpID: 1, Type: "Company", Name: "Acme"}
		first, err := d.Disambiguate(ctx, rc(m))
		require.NoError(t, err)
		second, err := d.Disambiguate(ctx, rc(m))
		require.NoError(t, err)

		assert.Equal(t, 1, store.calls)
		assert.Equal(t, first[0].Entity, second[0].Entity)
		for _, ttl := range kv.ttls {
			assert.Equal(t, time.Hour, ttl)
		}
	})

	t.Run("store failure is returned", func(t *testing.T) {
		store := newFakeStore()
		store.err = errors.New("graph unavailable")
		d := newDisambiguator(t, "", store, nil)

		_, err := d.Disambiguate(ctx, rc(models.EntityMention{TmpID: 1, Type: "Company", Name: "Acme"}))
		assert.ErrorContains(t, err, "graph unavailable")
	})
}

func TestRedisEntityCache(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	cache := NewRedisEntityCache(kv, 0)
	key := graph.EntityKey{TenantID: "t1", Type: "Company", MatchKey: "abc"}

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	entity := models.CanonicalEntity{ID: 10, Name: "Acme", Type: "Company", TenantID: "t1"}
	require.NoError(t, cache.Set(ctx, key, entity))

	got, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, &entity, got)
	assert.Contains(t, kv.values, "fern:entity:t1:Company:abc")

	kv.values["fern:entity:t1:Company:abc"] = "not json"
	_, err = cache.Get(ctx, key)
	assert.Error(t, err)
}
