// Package access answers the one authorization question the vault asks:
// is this user a member of that workspace channel?
//
// The answer comes from the chat platform, which lives outside this module.
// The engine depends only on the Oracle interface; the chat-integration
// layer supplies the real implementation and this package supplies the
// TTL-cached decorator it should be wrapped in.
package access

import "context"

// Oracle reports workspace channel membership. Implementations must be safe
// for concurrent use; the engine calls MemberOf from every request
// goroutine.
type Oracle interface {
	MemberOf(ctx context.Context, userID, channelID string) (bool, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, userID, channelID string) (bool, error)

// MemberOf calls f.
func (f OracleFunc) MemberOf(ctx context.Context, userID, channelID string) (bool, error) {
	return f(ctx, userID, channelID)
}

// AllowAll grants membership to everyone. For single-tenant deployments
// without a chat platform attached, and for tests.
var AllowAll Oracle = OracleFunc(func(context.Context, string, string) (bool, error) {
	return true, nil
})
