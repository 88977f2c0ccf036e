package token

import "time"

// Codec bundles a signing secret, a token lifetime and a clock.
// The zero TTL means DefaultTTL and a nil clock means time.Now.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec creates a Codec for the given secret.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// TTL returns the lifetime applied to issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Now returns the codec's current time.
func (c *Codec) Now() time.Time {
	return c.now()
}

// Issue creates a token valid from the current time.
func (c *Codec) Issue() Token {
	return Issue(c.secret, c.now(), c.ttl)
}

// Verify checks a wire token against the current time.
func (c *Codec) Verify(s string) (Token, error) {
	return Verify(c.secret, s, c.now())
}
