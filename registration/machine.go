package registration

import (
	"context"
	"errors"
	"log/slog"

	"github.com/karimelhady/signupbot/core/logger"
)

// StepWrite is the durable write a transition requires before its session
// change may take effect.
type StepWrite struct {
	Step   Step
	Fields Fields
}

// Outcome is the result of the pure transition function.
type Outcome struct {
	Session   Session
	Write     *StepWrite
	Effects   []Effect
	Terminal  bool   // conversation ends; the session entry is evicted
	Completed bool   // terminal because the registration finished
	Anomaly   string // non-empty when a fail-safe restart was taken
}

// Transition computes the next session and effects for one event. It performs
// no I/O: any persistence it needs is reported as a write intent, applied by
// the Machine before the returned session replaces the current one.
func Transition(sess Session, ev Event) Outcome {
	if _, ok := ev.(CancelCommand); ok {
		return Outcome{
			Session:  sess,
			Effects:  []Effect{{Kind: EffectCancelled}},
			Terminal: true,
		}
	}

	switch sess.State {
	case StatePlatform:
		return transitionPlatform(sess, ev)
	case StateWhatsApp:
		return transitionWhatsApp(sess, ev)
	case StatePayment:
		return transitionPayment(sess, ev)
	case StateInterrupted:
		return transitionInterrupted(sess, ev)
	default:
		// No active conversation step; nothing to act on.
		return Outcome{Session: sess, Effects: []Effect{{Kind: EffectNudge}}}
	}
}

func transitionPlatform(sess Session, ev Event) Outcome {
	switch e := ev.(type) {
	case PlatformChosen:
		sess.Platform = e.Platform
		sess.State = StateWhatsApp
		return Outcome{
			Session: sess,
			Write:   &StepWrite{Step: StepEnteringWhatsApp, Fields: Fields{Platform: &e.Platform}},
			Effects: []Effect{{Kind: EffectPromptWhatsApp}},
		}
	case Text:
		// Nudge: re-render the platform prompt, no state change.
		return Outcome{Session: sess, Effects: []Effect{{Kind: EffectPromptPlatform}}}
	default:
		return Outcome{Session: sess, Effects: []Effect{{Kind: EffectNudge}}}
	}
}

func transitionWhatsApp(sess Session, ev Event) Outcome {
	switch e := ev.(type) {
	case Text:
		cleaned, err := ValidateWhatsApp(e.Body)
		if err != nil {
			var verr *ValidationError
			msg := "Invalid input."
			if errors.As(err, &verr) {
				msg = verr.Msg
			}
			return Outcome{Session: sess, Effects: []Effect{{Kind: EffectValidationError, Text: msg}}}
		}
		sess.WhatsApp = cleaned
		sess.State = StatePayment
		return Outcome{
			Session: sess,
			Write:   &StepWrite{Step: StepChoosingPayment, Fields: Fields{WhatsApp: &cleaned}},
			Effects: []Effect{{Kind: EffectPromptPayment}},
		}
	default:
		return Outcome{Session: sess, Effects: []Effect{{Kind: EffectNudge}}}
	}
}

func transitionPayment(sess Session, ev Event) Outcome {
	switch e := ev.(type) {
	case PaymentMethodChosen:
		if !KnownMethod(e.Method) {
			return Outcome{
				Session: sess,
				Effects: []Effect{{Kind: EffectPromptPayment}},
				Anomaly: "unknown payment method " + e.Method,
			}
		}
		sess.PaymentMethod = e.Method
		return Outcome{
			Session: sess,
			Write:   &StepWrite{Step: StepEnteringPaymentDetails, Fields: Fields{PaymentMethod: &e.Method}},
			Effects: []Effect{{Kind: EffectPaymentInstructions, Method: e.Method}},
		}
	case Text:
		if sess.PaymentMethod == "" {
			return Outcome{Session: sess, Effects: []Effect{{Kind: EffectDetailsBeforeMethod}}}
		}
		cleaned, err := ValidatePaymentDetails(sess.PaymentMethod, e.Body)
		if err != nil {
			var verr *ValidationError
			msg := "Invalid input."
			if errors.As(err, &verr) {
				msg = verr.Msg
			}
			return Outcome{Session: sess, Effects: []Effect{{Kind: EffectValidationError, Text: msg}}}
		}
		sess.PaymentDetails = cleaned
		return Outcome{
			Session:   sess,
			Write:     &StepWrite{Step: StepCompleted, Fields: Fields{PaymentDetails: &cleaned}},
			Effects:   []Effect{{Kind: EffectDone}},
			Terminal:  true,
			Completed: true,
		}
	default:
		return Outcome{Session: sess, Effects: []Effect{{Kind: EffectNudge}}}
	}
}

func transitionInterrupted(sess Session, ev Event) Outcome {
	switch ev.(type) {
	case RestartChosen:
		// The durable record is deliberately left untouched.
		sess.ResetData()
		sess.State = StatePlatform
		return Outcome{Session: sess, Effects: []Effect{{Kind: EffectPromptPlatform}}}
	case ResumeChosen:
		if sess.InterruptedPlatform == "" {
			// The platform snapshot is required to resume anywhere.
			anomaly := "resume without platform snapshot"
			sess.ResetData()
			sess.State = StatePlatform
			return Outcome{
				Session: sess,
				Effects: []Effect{{Kind: EffectDataLost}, {Kind: EffectPromptPlatform}},
				Anomaly: anomaly,
			}
		}
		target, ok := ProjectStep(sess.InterruptedStep)
		if !ok {
			anomaly := "unprojectable step " + string(sess.InterruptedStep)
			sess.ResetData()
			sess.State = StatePlatform
			return Outcome{
				Session: sess,
				Effects: []Effect{{Kind: EffectPromptPlatform}},
				Anomaly: anomaly,
			}
		}

		// Adopt the snapshot as live data and jump straight to the target.
		sess.Platform = sess.InterruptedPlatform
		sess.WhatsApp = sess.InterruptedWhatsApp
		sess.PaymentMethod = sess.InterruptedPayment
		sess.State = target

		resume := ResumeInfo{
			Platform: sess.Platform,
			WhatsApp: sess.WhatsApp,
			Method:   sess.PaymentMethod,
			Step:     sess.InterruptedStep,
		}
		var eff Effect
		switch {
		case target == StateWhatsApp:
			eff = Effect{Kind: EffectPromptWhatsApp, Resume: resume}
		case sess.PaymentMethod != "":
			eff = Effect{Kind: EffectPaymentInstructions, Method: sess.PaymentMethod, Resume: resume}
		default:
			eff = Effect{Kind: EffectPromptPayment, Resume: resume}
		}
		return Outcome{Session: sess, Effects: []Effect{eff}}
	case Text:
		// Nudge: re-render the continue/restart choice.
		return Outcome{Session: sess, Effects: []Effect{{
			Kind: EffectAskResume,
			Resume: ResumeInfo{
				Platform: sess.InterruptedPlatform,
				WhatsApp: sess.InterruptedWhatsApp,
				Method:   sess.InterruptedPayment,
				Step:     sess.InterruptedStep,
			},
		}}}
	default:
		return Outcome{Session: sess, Effects: []Effect{{Kind: EffectNudge}}}
	}
}

// Machine drives the pure transition function against the durable store and
// the statistics collaborator.
type Machine struct {
	store RecordStore
	stats Stats
	log   *slog.Logger
}

// NewMachine wires the state machine with its collaborators.
func NewMachine(store RecordStore, st Stats) *Machine {
	return &Machine{store: store, stats: st, log: logger.REG}
}

// Start handles the signup entry command: it claims the update, consults the
// reconciler, and renders the corresponding route. It reports whether the
// invocation is terminal so the caller can evict the session instead of
// keeping an empty one alive. The caller has already applied rate limiting.
func (m *Machine) Start(ctx context.Context, userID int64, sess *Session) ([]Effect, bool) {
	sess.Tag = true

	rec, err := m.store.Get(ctx, userID)
	if err != nil {
		var anomaly *ProtocolAnomaly
		if errors.As(err, &anomaly) {
			// Unknown durable step: fail-safe as if no record existed.
			m.log.Warn("durable record anomaly",
				slog.String("event", "reconcile.anomaly"),
				slog.Int64("user_id", userID),
				slog.String("detail", anomaly.Detail),
			)
			rec = nil
		} else {
			m.log.Error("record read failed",
				slog.String("event", "reconcile.read"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
			return []Effect{{Kind: EffectGenericError}}, true
		}
	}

	switch Reconcile(sess, rec) {
	case RouteMenu:
		// No conversation starts for a finished registration.
		return []Effect{{Kind: EffectCompletedMenu}}, true
	case RouteAsk:
		sess.State = StateInterrupted
		return []Effect{{
			Kind: EffectAskResume,
			Resume: ResumeInfo{
				Platform: sess.InterruptedPlatform,
				WhatsApp: sess.InterruptedWhatsApp,
				Method:   sess.InterruptedPayment,
				Step:     sess.InterruptedStep,
			},
		}}, false
	default:
		sess.ResetData()
		sess.State = StatePlatform
		return []Effect{{Kind: EffectPromptPlatform}}, false
	}
}

// Handle processes one event for an in-flight conversation. It reports
// whether the conversation ended so the caller can evict the session.
func (m *Machine) Handle(ctx context.Context, userID int64, sess *Session, ev Event) ([]Effect, bool) {
	sess.Tag = true

	out := Transition(*sess, ev)
	if out.Anomaly != "" {
		m.log.Warn("fail-safe restart",
			slog.String("event", "transition.anomaly"),
			slog.Int64("user_id", userID),
			slog.String("detail", out.Anomaly),
		)
	}

	if out.Write != nil {
		if err := m.store.SaveStep(ctx, userID, out.Write.Step, out.Write.Fields); err != nil {
			perr := &PersistenceError{Op: "save_step", Err: err}
			m.log.Error("step persist failed",
				slog.String("event", "transition.persist"),
				slog.Int64("user_id", userID),
				slog.String("step", string(out.Write.Step)),
				slog.String("err", perr.Error()),
			)
			// The session is left as it was; the user must resubmit.
			return []Effect{{Kind: EffectGenericError}}, false
		}
	}

	*sess = out.Session
	sess.Tag = true

	if out.Completed {
		m.stats.Inc("registrations_completed")
	}
	return out.Effects, out.Terminal
}
