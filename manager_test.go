package fpgrowth

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oarkflow/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	collection := NewCollection("baskets")
	t.Cleanup(func() { collection.Close() })
	require.NoError(t, collection.Build(context.Background(), basketTransactions))
	return collection
}

func TestCollectionMine(t *testing.T) {
	collection := newTestCollection(t)
	assert.Equal(t, len(basketTransactions), collection.TransactionCount())

	resp, err := collection.Mine(context.Background(), Request{MinimumSupport: 2, Size: 100})
	require.NoError(t, err)
	assert.Equal(t, "baskets", resp.Collection)
	assert.Equal(t, 43, resp.Total)
	assert.Len(t, resp.Patterns, 43)
	assert.Equal(t, 1, resp.TotalPages)
	assert.Nil(t, resp.NextPage)

	// Patterns arrive sorted by descending support.
	for i := 1; i < len(resp.Patterns); i++ {
		assert.GreaterOrEqual(t, resp.Patterns[i-1].Support, resp.Patterns[i].Support)
	}
}

func TestCollectionMineCache(t *testing.T) {
	collection := newTestCollection(t)

	first, err := collection.Mine(context.Background(), Request{MinimumSupport: 2})
	require.NoError(t, err)
	second, err := collection.Mine(context.Background(), Request{MinimumSupport: 2})
	require.NoError(t, err)
	assert.Equal(t, first.JobID, second.JobID, "expected the cached response")

	// A different request misses the cache.
	third, err := collection.Mine(context.Background(), Request{MinimumSupport: 3})
	require.NoError(t, err)
	assert.NotEqual(t, first.JobID, third.JobID)
}

func TestCollectionBuildInvalidatesCache(t *testing.T) {
	collection := newTestCollection(t)

	first, err := collection.Mine(context.Background(), Request{MinimumSupport: 2})
	require.NoError(t, err)
	collection.AddTransaction("a", "c")
	second, err := collection.Mine(context.Background(), Request{MinimumSupport: 2})
	require.NoError(t, err)
	assert.NotEqual(t, first.JobID, second.JobID)

	support := 0
	for _, p := range second.Patterns {
		if len(p.Items) == 1 && p.Items[0] == "a" {
			support = p.Support
		}
	}
	assert.Equal(t, 9, support)
}

func TestCollectionMinePagination(t *testing.T) {
	collection := newTestCollection(t)

	resp, err := collection.Mine(context.Background(), Request{MinimumSupport: 2, Size: 10, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 43, resp.Total)
	assert.Len(t, resp.Patterns, 10)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 5, resp.TotalPages)
	require.NotNil(t, resp.NextPage)
	assert.Equal(t, 3, *resp.NextPage)
	require.NotNil(t, resp.PrevPage)
	assert.Equal(t, 1, *resp.PrevPage)
}

func TestCollectionMineEliminations(t *testing.T) {
	collection := NewCollection("noisy")
	t.Cleanup(func() { collection.Close() })
	require.NoError(t, collection.Build(context.Background(), noisyTransactions))

	resp, err := collection.Mine(context.Background(), Request{MinimumSupport: 2, Eliminations: true})
	require.NoError(t, err)
	assert.Len(t, resp.Eliminations, 4)
}

func TestCollectionMineInvalidSupport(t *testing.T) {
	collection := newTestCollection(t)
	_, err := collection.Mine(context.Background(), Request{MinimumSupport: 0})
	assert.ErrorIs(t, err, ErrInvalidSupport)
}

func TestCollectionReset(t *testing.T) {
	collection := newTestCollection(t)
	collection.Reset()
	assert.Equal(t, 0, collection.TransactionCount())

	resp, err := collection.Mine(context.Background(), Request{MinimumSupport: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)
}

func TestManagerRouting(t *testing.T) {
	manager := NewManager()
	collection := NewCollection("baskets")
	t.Cleanup(func() { collection.Close() })
	manager.AddCollection("baskets", collection)

	require.NoError(t, manager.Build(context.Background(), "baskets", basketTransactions))
	resp, err := manager.Mine(context.Background(), "baskets", Request{MinimumSupport: 2})
	require.NoError(t, err)
	assert.Equal(t, 43, resp.Total)

	_, err = manager.Mine(context.Background(), "missing", Request{MinimumSupport: 2})
	assert.Error(t, err)
	assert.Error(t, manager.Build(context.Background(), "missing", basketTransactions))

	got, ok := manager.GetCollection("baskets")
	assert.True(t, ok)
	assert.Equal(t, collection, got)
	assert.Equal(t, []string{"baskets"}, manager.ListCollections())

	manager.DeleteCollection("baskets")
	assert.Empty(t, manager.ListCollections())
}

func TestManagerHTTP(t *testing.T) {
	manager := NewManager()
	server := httptest.NewServer(manager.Handler())
	t.Cleanup(server.Close)

	post := func(path string, payload any) *http.Response {
		t.Helper()
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		return resp
	}

	resp := post("/collections/add", NewCollectionRequest{ID: "baskets"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(server.URL + "/collections")
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&names))
	resp.Body.Close()
	assert.Equal(t, []string{"baskets"}, names)

	resp = post("/baskets/build", LoadRequest{Data: basketTransactions})
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, err = http.Get(server.URL + "/baskets/mine?minimum_support=2&s=50")
	require.NoError(t, err)
	var mined Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&mined))
	resp.Body.Close()
	assert.Equal(t, 43, mined.Total)
	assert.Len(t, mined.Patterns, 43)

	resp, err = http.Get(server.URL + "/missing/mine?minimum_support=2")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestRequestChecksum(t *testing.T) {
	a := Request{MinimumSupport: 2, Size: 10}
	b := Request{MinimumSupport: 2, Size: 10}
	c := Request{MinimumSupport: 3, Size: 10}

	ca, err := a.Checksum()
	require.NoError(t, err)
	cb, err := b.Checksum()
	require.NoError(t, err)
	cc, err := c.Checksum()
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
	assert.NotEqual(t, ca, cc)
}

func TestCollectionCacheExpiry(t *testing.T) {
	collection := NewCollection("short", WithCacheExpiry(10*time.Millisecond))
	t.Cleanup(func() { collection.Close() })
	require.NoError(t, collection.Build(context.Background(), basketTransactions))

	first, err := collection.Mine(context.Background(), Request{MinimumSupport: 2})
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	second, err := collection.Mine(context.Background(), Request{MinimumSupport: 2})
	require.NoError(t, err)
	assert.NotEqual(t, first.JobID, second.JobID, "expired entries must be recomputed")
}
