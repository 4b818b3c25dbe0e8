package access

import (
	"context"
	"sync"
)

// StaticOracle is an in-memory membership table. It backs tests and
// deployments whose membership is managed by configuration instead of a
// chat platform.
type StaticOracle struct {
	mu      sync.RWMutex
	members map[string]map[string]bool // channelID -> userID -> member
}

// NewStaticOracle creates an empty membership table.
func NewStaticOracle() *StaticOracle {
	return &StaticOracle{members: make(map[string]map[string]bool)}
}

// Grant adds userID to channelID.
func (o *StaticOracle) Grant(userID, channelID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.members[channelID] == nil {
		o.members[channelID] = make(map[string]bool)
	}
	o.members[channelID][userID] = true
}

// Revoke removes userID from channelID.
func (o *StaticOracle) Revoke(userID, channelID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.members[channelID], userID)
}

// MemberOf implements Oracle.
func (o *StaticOracle) MemberOf(_ context.Context, userID, channelID string) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.members[channelID][userID], nil
}
