package cache

import (
	cache_pkg "github.com/patrickmn/go-cache"
)

// Handler tracks content digests already seen within one run, for
// duplicate-record detection. Entries never expire; the cache lives
// only as long as the run.
type Handler struct {
	client *cache_pkg.Cache
}

func New() (*Handler, error) {
	client := cache_pkg.New(cache_pkg.NoExpiration, 0)
	return &Handler{
		client: client,
	}, nil
}

// Seen records the digest and reports whether it was already present.
func (h *Handler) Seen(digest string) bool {
	if _, ok := h.client.Get(digest); ok {
		return true
	}
	h.client.Set(digest, struct{}{}, cache_pkg.NoExpiration)
	return false
}

// Count returns the number of distinct digests recorded.
func (h *Handler) Count() int {
	return h.client.ItemCount()
}
