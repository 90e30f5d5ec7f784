package redis

import "strings"

const (
	keyNamespace      = "cs"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	sessionPrefix     = "session"
)

// Key joins parts under the cs namespace, skipping blank parts.
func Key(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// IdempotencyKey is cs:idempotency:<scope>:<id>.
func (c *Client) IdempotencyKey(scope, id string) string {
	return Key(idempotencyPrefix, scope, id)
}

// RateLimitKey is cs:rate_limit:<scope>.
func (c *Client) RateLimitKey(scope string) string {
	return Key(rateLimitPrefix, scope)
}

// DefaultProfileKey is cs:session:default_profile:<owner>, owner lowercased.
func (c *Client) DefaultProfileKey(owner string) string {
	return Key(sessionPrefix, "default_profile", strings.ToLower(owner))
}
