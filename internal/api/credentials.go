package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"sync"
)

type credentialsKey struct{}

// Credentials carries the browser's cookies to the API and collects the
// cookies the API sets in return, so handlers can relay them.
type Credentials struct {
	mu       sync.Mutex
	outgoing []*http.Cookie
	received []*http.Cookie
}

func NewCredentials(cookies []*http.Cookie) *Credentials {
	return &Credentials{outgoing: cookies}
}

// WithCredentials attaches creds to ctx for every API call made with it.
func WithCredentials(ctx context.Context, creds *Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// CredentialsFrom returns the credentials on ctx, or nil.
func CredentialsFrom(ctx context.Context) *Credentials {
	creds, _ := ctx.Value(credentialsKey{}).(*Credentials)
	return creds
}

// Key identifies the browser session for cache partitioning. Requests
// without cookies share the empty key.
func (c *Credentials) Key() string {
	if c == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.outgoing) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(c.outgoing))
	for _, ck := range c.outgoing {
		pairs = append(pairs, ck.Name+"="+ck.Value)
	}
	sort.Strings(pairs)
	sum := sha256.Sum256([]byte(strings.Join(pairs, ";")))
	return hex.EncodeToString(sum[:8])
}

// Received returns the cookies the API set during this request.
func (c *Credentials) Received() []*http.Cookie {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*http.Cookie(nil), c.received...)
}

func (c *Credentials) apply(req *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range c.outgoing {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
}

func (c *Credentials) record(resp *http.Response) {
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, cookies...)
	// Later requests in the same page load should see a refreshed session.
	for _, ck := range cookies {
		replaced := false
		for i, out := range c.outgoing {
			if out.Name == ck.Name {
				c.outgoing[i] = ck
				replaced = true
			}
		}
		if !replaced {
			c.outgoing = append(c.outgoing, ck)
		}
	}
}
