package ai

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tradewind/tariffflow/internal/service"
)

const (
	defaultCacheSize = 512
	defaultCacheTTL  = 15 * time.Minute
)

// suggestionCache is a bounded, expiring cache of provider suggestions keyed
// by request content.
type suggestionCache struct {
	lru *expirable.LRU[string, service.AISuggestion]
}

func newSuggestionCache(size int, ttl time.Duration) *suggestionCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &suggestionCache{
		lru: expirable.NewLRU[string, service.AISuggestion](size, nil, ttl),
	}
}

func (c *suggestionCache) get(key string) (service.AISuggestion, bool) {
	return c.lru.Get(key)
}

func (c *suggestionCache) set(key string, suggestion service.AISuggestion) {
	c.lru.Add(key, suggestion)
}

// cacheKey derives a stable key from the request content.
func cacheKey(req Request) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(req.Description))))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(req.Category)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToUpper(req.OriginCountry)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToUpper(req.DestinationCountry)))
	return hex.EncodeToString(h.Sum(nil))
}
