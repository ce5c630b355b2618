// Package cache resolves element chains by content hash through a two-tier
// read-through cache: a fast volatile tier (Redis) in front of the durable
// Postgres tier. The read-through/populate invariant lives here and only
// here so call sites never touch the tiers directly.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"analytics-pipeline/ingestcore/internal/elements/domain"
	"analytics-pipeline/ingestcore/internal/elements/repository"
)

// FastStore is the fast volatile tier. A miss is (nil, false, nil); errors
// are reported separately so callers can degrade instead of failing.
type FastStore interface {
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	Set(ctx context.Context, key string, val []byte) error
}

// Cache orchestrates the two tiers. fast may be nil (fast tier disabled),
// in which case every resolve goes to the durable tier.
type Cache struct {
	fast    FastStore
	durable repository.Repository
}

// New returns a Cache over the given tiers.
func New(fast FastStore, durable repository.Repository) *Cache {
	return &Cache{fast: fast, durable: durable}
}

// Resolve returns the chain stored under (teamID, hash).
//
// Exactly one fast-tier read per call. On a hit the chain is returned
// immediately. On a miss the durable tier is read once, ordered by chain
// position, and the result (empty included) is written back to the fast tier
// before returning, so a permanently-absent key does not hammer Postgres.
// Fast-tier failures degrade latency, never correctness: a failed read falls
// through to the durable tier and a failed populate is dropped.
//
// Concurrent resolves of a cold key may each read the durable tier; the
// populate is idempotent (same key, same content-addressed value), so last
// writer wins with no correctness impact.
func (c *Cache) Resolve(ctx context.Context, teamID int64, hash string) ([]domain.Element, error) {
	key := cacheKey(teamID, hash)

	if c.fast != nil {
		val, ok, err := c.fast.Get(ctx, key)
		if err != nil {
			log.Printf("elements: fast tier read failed for %s: %v", key, err)
		} else if ok {
			var chain []domain.Element
			if err := json.Unmarshal(val, &chain); err == nil {
				return chain, nil
			}
			log.Printf("elements: corrupt fast tier entry for %s, falling through", key)
		}
	}

	chain, err := c.durable.FetchByHash(ctx, teamID, hash)
	if err != nil {
		return nil, err
	}

	c.populate(ctx, key, chain)
	return chain, nil
}

// Store content-addresses the chain for teamID: computes its hash, creates
// the durable group if it does not exist yet, populates the fast tier, and
// returns the hash. Safe under concurrent calls for the same chain.
func (c *Cache) Store(ctx context.Context, teamID int64, chain []domain.Element) (string, error) {
	hash, err := domain.HashChain(chain)
	if err != nil {
		return "", err
	}
	if _, err := c.durable.CreateGroup(ctx, teamID, hash, chain); err != nil {
		return "", err
	}
	c.populate(ctx, cacheKey(teamID, hash), chain)
	return hash, nil
}

// populate writes the chain to the fast tier, best effort.
func (c *Cache) populate(ctx context.Context, key string, chain []domain.Element) {
	if c.fast == nil {
		return
	}
	if chain == nil {
		chain = []domain.Element{}
	}
	val, err := json.Marshal(chain)
	if err != nil {
		log.Printf("elements: encode chain for %s: %v", key, err)
		return
	}
	if err := c.fast.Set(ctx, key, val); err != nil {
		log.Printf("elements: fast tier populate failed for %s: %v", key, err)
	}
}

func cacheKey(teamID int64, hash string) string {
	return fmt.Sprintf("elements_chain:%d:%s", teamID, hash)
}
