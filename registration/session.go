package registration

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// State identifies the current conversation step for an active signup.
type State string

const (
	StatePlatform    State = "platform"
	StateWhatsApp    State = "whatsapp"
	StatePayment     State = "payment"
	StateInterrupted State = "interrupted"
)

// Session is the ephemeral per-user scratch state for one conversation.
// It is owned exclusively by the user's serialized handler chain.
type Session struct {
	State State

	Platform       string
	WhatsApp       string
	PaymentMethod  string
	PaymentDetails string

	// Snapshot taken by the reconciler when an earlier attempt is detected.
	InterruptedPlatform string
	InterruptedWhatsApp string
	InterruptedPayment  string
	InterruptedStep     Step

	// Tag marks the current update as already handled by one consumer.
	// It is logically per-update and reset before each dispatch.
	Tag bool
}

// ResetData clears collected data and snapshots. The Tag is deliberately kept:
// a restart happens inside a claimed update.
func (s *Session) ResetData() {
	s.Platform = ""
	s.WhatsApp = ""
	s.PaymentMethod = ""
	s.PaymentDetails = ""
	s.InterruptedPlatform = ""
	s.InterruptedWhatsApp = ""
	s.InterruptedPayment = ""
	s.InterruptedStep = ""
}

// CheckAndClear reports whether the update was already claimed and clears the
// tag. This is the catch-all handler's mandatory first action.
func CheckAndClear(s *Session) bool {
	if s != nil && s.Tag {
		s.Tag = false
		return true
	}
	return false
}

// Sessions holds at most one Session per user id. Entries age out after the
// configured TTL so abandoned conversations do not pile up in memory; the
// durable record remains the authority consulted on the next reconciler run.
type Sessions struct {
	c *gocache.Cache
}

// NewSessions builds a session store with the given idle TTL.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Sessions{c: gocache.New(ttl, 2*ttl)}
}

func sessionKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Get returns the session for a user if one exists.
func (s *Sessions) Get(userID int64) (*Session, bool) {
	v, ok := s.c.Get(sessionKey(userID))
	if !ok {
		return nil, false
	}
	sess, ok := v.(*Session)
	return sess, ok
}

// GetOrCreate returns the existing session or creates an empty one, refreshing
// the idle TTL either way.
func (s *Sessions) GetOrCreate(userID int64) *Session {
	key := sessionKey(userID)
	if v, ok := s.c.Get(key); ok {
		if sess, ok := v.(*Session); ok {
			s.c.SetDefault(key, sess)
			return sess
		}
	}
	sess := &Session{}
	s.c.SetDefault(key, sess)
	return sess
}

// Touch refreshes the idle TTL for an existing session.
func (s *Sessions) Touch(userID int64, sess *Session) {
	s.c.SetDefault(sessionKey(userID), sess)
}

// Delete evicts the session for a user.
func (s *Sessions) Delete(userID int64) {
	s.c.Delete(sessionKey(userID))
}
