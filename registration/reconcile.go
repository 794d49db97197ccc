package registration

// Route is the reconciler's decision for the signup entry point.
type Route int

const (
	// RouteFresh starts a new registration from the platform prompt.
	RouteFresh Route = iota
	// RouteAsk offers the continue/restart choice for an interrupted attempt.
	RouteAsk
	// RouteMenu shows the already-completed menu.
	RouteMenu
)

// Reconcile merges the durable record and the in-memory session into a
// routing decision. It is deterministic and idempotent: calling it twice
// without intervening state change yields the same result. On RouteAsk the
// snapshot used to resume is written into the session's interrupted fields.
//
// The record wins over the session when both exist; the session covers the
// record being absent or stale while memory still holds partial data.
func Reconcile(sess *Session, rec *Record) Route {
	if rec != nil {
		switch rec.Step {
		case StepCompleted:
			return RouteMenu
		case StepEnteringWhatsApp, StepChoosingPayment, StepEnteringPaymentDetails:
			sess.InterruptedPlatform = rec.Platform
			sess.InterruptedWhatsApp = rec.WhatsApp
			sess.InterruptedPayment = rec.PaymentMethod
			sess.InterruptedStep = rec.Step
			return RouteAsk
		}
		// Unknown durable step: treated as no usable record. The caller is
		// responsible for logging the anomaly.
	}

	if sess.Platform != "" || sess.InterruptedPlatform != "" {
		// Live fields are fresher than any earlier snapshot: a prior resume
		// leaves both populated, and the user's latest progress is in the
		// live ones.
		if sess.Platform != "" {
			sess.InterruptedPlatform = sess.Platform
			sess.InterruptedWhatsApp = sess.WhatsApp
			sess.InterruptedPayment = sess.PaymentMethod
			sess.InterruptedStep = stepFromSession(sess)
		}
		return RouteAsk
	}

	return RouteFresh
}

// stepFromSession derives the durable step a memory-only attempt had reached.
func stepFromSession(sess *Session) Step {
	switch {
	case sess.WhatsApp == "":
		return StepEnteringWhatsApp
	case sess.PaymentMethod == "":
		return StepChoosingPayment
	default:
		return StepEnteringPaymentDetails
	}
}

// ProjectStep maps a durable step to the state a resumed conversation jumps
// to. The table is total: unknown steps report ok=false and callers fail-safe
// to the platform prompt.
func ProjectStep(step Step) (State, bool) {
	switch step {
	case StepEnteringWhatsApp:
		return StateWhatsApp, true
	case StepChoosingPayment, StepEnteringPaymentDetails:
		return StatePayment, true
	default:
		return StatePlatform, false
	}
}
