package registration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/karimelhady/signupbot/core/logger"
)

// CatchAll recovers users who are not in an active conversation: brand-new
// users get a greeting, interrupted-but-unclaimed registrations a resume
// hint, finished users an already-registered reminder.
type CatchAll struct {
	store RecordStore
	log   *slog.Logger
}

// NewCatchAll builds the fallback handler.
func NewCatchAll(store RecordStore) *CatchAll {
	return &CatchAll{store: store, log: logger.REG}
}

// Handle processes an unclaimed update. Its first action is the mandatory
// check-and-clear: if the state machine already claimed the update, it does
// nothing, keeping the replies-per-update count at exactly one.
func (h *CatchAll) Handle(ctx context.Context, userID int64, sess *Session) []Effect {
	if CheckAndClear(sess) {
		return nil
	}

	rec, err := h.store.Get(ctx, userID)
	if err != nil {
		var anomaly *ProtocolAnomaly
		if errors.As(err, &anomaly) {
			h.log.Warn("durable record anomaly",
				slog.String("event", "catchall.anomaly"),
				slog.Int64("user_id", userID),
				slog.String("detail", anomaly.Detail),
			)
			return []Effect{{Kind: EffectGreeting}}
		}
		h.log.Error("record read failed",
			slog.String("event", "catchall.read"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return []Effect{{Kind: EffectGreeting}}
	}

	switch {
	case rec == nil:
		return []Effect{{Kind: EffectGreeting}}
	case rec.Step == StepCompleted:
		return []Effect{{Kind: EffectAlreadyRegistered}}
	default:
		return []Effect{{Kind: EffectResumeHint}}
	}
}
