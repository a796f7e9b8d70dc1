// Package session owns the per-browser state: identity, plan snapshot, the
// latest generated document and the demo sample cache. Nothing here is
// authoritative for billing; credits always live in the account store.
package session

import (
	"context"
	"errors"
	"time"
)

// MaxFreeUses caps real generations for guests on the free tier.
const MaxFreeUses = 2

// ErrNotFound signals a missing or expired session (or a sample-cache miss).
var ErrNotFound = errors.New("session not found")

// Session is the process-external snapshot of one browser session.
type Session struct {
	ID        string    `json:"id"`
	Demo      bool      `json:"demo"`
	Email     string    `json:"email,omitempty"`
	FreeUses  int       `json:"free_uses"`
	CreatedAt time.Time `json:"created_at"`

	// Most recent generation, kept for preview and download.
	Document       string `json:"document,omitempty"`
	DocumentRegion string `json:"document_region,omitempty"`
}

// Guest reports whether the session carries no account identity.
func (s *Session) Guest() bool { return !s.Demo && s.Email == "" }

// FreeUsesLeft returns the remaining free-tier generations, clamped at zero.
func (s *Session) FreeUsesLeft() int {
	left := MaxFreeUses - s.FreeUses
	if left < 0 {
		return 0
	}
	return left
}

// Store persists sessions and the per-session demo sample cache.
type Store interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error

	GetSample(ctx context.Context, sessionID, category, region, style string) (string, error)
	PutSample(ctx context.Context, sessionID, category, region, style, text string) error
}
