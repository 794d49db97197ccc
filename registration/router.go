package registration

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/karimelhady/signupbot/core/logger"
)

// Router owns the per-user session map, the rate limiter, and the dispatch
// order: every update is offered to the state machine first, then to the
// catch-all handler if the machine did not claim it.
//
// Dispatch serializes updates per user id; concurrent updates for different
// users run in parallel. This serialization is a hard precondition for the
// tag protocol and the reconciler.
type Router struct {
	machine  *Machine
	catchAll *CatchAll
	sessions *Sessions
	limiter  *RateLimiter
	stats    Stats
	log      *slog.Logger

	mu    sync.Mutex
	locks map[int64]*userLock
}

// userLock serializes dispatches for one user. Entries are reference-counted
// so the map shrinks back once no dispatch holds or waits on the lock.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// RouterOptions wires the router's collaborators.
type RouterOptions struct {
	Machine    *Machine
	CatchAll   *CatchAll
	SessionTTL time.Duration
	Window     time.Duration
	MaxStarts  int
	Stats      Stats
}

// NewRouter builds a dispatcher owning its session and limiter stores.
func NewRouter(opts RouterOptions) *Router {
	return &Router{
		machine:  opts.Machine,
		catchAll: opts.CatchAll,
		sessions: NewSessions(opts.SessionTTL),
		limiter:  NewRateLimiter(opts.Window, opts.MaxStarts),
		stats:    opts.Stats,
		log:      logger.ROUTE,
		locks:    make(map[int64]*userLock),
	}
}

// Sessions exposes the session store for inspection in tests.
func (r *Router) Sessions() *Sessions {
	return r.sessions
}

func (r *Router) acquire(userID int64) *userLock {
	r.mu.Lock()
	lk, ok := r.locks[userID]
	if !ok {
		lk = &userLock{}
		r.locks[userID] = lk
	}
	lk.refs++
	r.mu.Unlock()

	lk.mu.Lock()
	return lk
}

func (r *Router) release(userID int64, lk *userLock) {
	lk.mu.Unlock()

	r.mu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(r.locks, userID)
	}
	r.mu.Unlock()
}

// Dispatch handles one inbound update and returns the effects to render.
// At most one invocation per user id runs at a time.
func (r *Router) Dispatch(ctx context.Context, upd Update) (effects []Effect) {
	lk := r.acquire(upd.UserID)
	defer r.release(upd.UserID, lk)

	// Truly unexpected internal errors become a generic user-facing error
	// instead of crashing the process or corrupting state.
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panic",
				slog.String("event", "dispatch.panic"),
				slog.Int64("user_id", upd.UserID),
				slog.Any("err", rec),
			)
			effects = []Effect{{Kind: EffectGenericError}}
		}
	}()

	sess, active := r.sessions.Get(upd.UserID)
	if active {
		// The tag is per-update; it must never leak across dispatches.
		sess.Tag = false
	}

	var done bool
	switch upd.Event.(type) {
	case StartCommand:
		if !r.limiter.Allow(upd.UserID) {
			r.stats.Inc("signup_rate_limited")
			r.log.Warn("signup rate limited",
				slog.String("event", "dispatch.rate_limited"),
				slog.Int64("user_id", upd.UserID),
			)
			// Terminal short-circuit: neither session nor record is touched.
			return []Effect{{Kind: EffectRateLimited}}
		}
		if !active {
			sess = r.sessions.GetOrCreate(upd.UserID)
		}
		effects, done = r.machine.Start(ctx, upd.UserID, sess)
	default:
		if active {
			effects, done = r.machine.Handle(ctx, upd.UserID, sess, upd.Event)
		}
	}

	if done {
		r.sessions.Delete(upd.UserID)
	} else if sess != nil {
		r.sessions.Touch(upd.UserID, sess)
	}

	// Offer the update to the catch-all handler. Its first action is the
	// check-and-clear on the tag, so a claimed update produces no extra reply.
	effects = append(effects, r.catchAll.Handle(ctx, upd.UserID, sess)...)
	return effects
}
