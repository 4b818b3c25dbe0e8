package access

import (
	"context"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v2"

	"github.com/hubvault/hubvault/internal/logger"
)

// DefaultCacheTTL is how long a membership answer stays valid. Membership
// changes on the chat platform take at most this long to be observed here.
const DefaultCacheTTL = 5 * time.Minute

// CachedOracle wraps an Oracle with a process-wide TTL cache keyed by
// (user, channel). Both positive and negative answers are cached: a user
// removed from a channel keeps access for at most the TTL, and a user who
// is not a member cannot hammer the platform by retrying.
//
// Errors are never cached. A platform outage resolves as soon as it ends.
type CachedOracle struct {
	inner Oracle
	cache *ttlcache.Cache
}

// NewCachedOracle wraps inner with a membership cache. A zero or negative
// ttl falls back to DefaultCacheTTL.
func NewCachedOracle(inner Oracle, ttl time.Duration) *CachedOracle {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	cache := ttlcache.NewCache()
	_ = cache.SetTTL(ttl)
	// Entries expire a fixed TTL after insertion. Extending on read would
	// let a busy user's stale membership live forever.
	cache.SkipTTLExtensionOnHit(true)

	return &CachedOracle{inner: inner, cache: cache}
}

// MemberOf answers from the cache when possible, asking the wrapped oracle
// on a miss.
func (o *CachedOracle) MemberOf(ctx context.Context, userID, channelID string) (bool, error) {
	key := userID + "\x00" + channelID

	if cached, err := o.cache.Get(key); err == nil {
		return cached.(bool), nil
	} else if !errors.Is(err, ttlcache.ErrNotFound) {
		logger.WarnCtx(ctx, "membership cache read failed",
			logger.Actor(userID), logger.Channel(channelID), logger.Err(err))
	}

	member, err := o.inner.MemberOf(ctx, userID, channelID)
	if err != nil {
		return false, err
	}

	if err := o.cache.Set(key, member); err != nil {
		logger.WarnCtx(ctx, "membership cache write failed",
			logger.Actor(userID), logger.Channel(channelID), logger.Err(err))
	}
	return member, nil
}

// Invalidate drops the cached answer for one (user, channel) pair. The chat
// layer calls this when it observes a membership change event, so revocation
// takes effect before the TTL would notice it.
func (o *CachedOracle) Invalidate(userID, channelID string) {
	_ = o.cache.Remove(userID + "\x00" + channelID)
}

// Close releases the cache's expiry goroutine.
func (o *CachedOracle) Close() {
	o.cache.Close()
}
