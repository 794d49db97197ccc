package registration

// Event is one inbound user action, already decoded by the transport binding
// into a closed set of variants. Handlers switch over these exhaustively; the
// mandatory default branch answers with a nudge instead of dropping the
// update silently.
type Event interface {
	isEvent()
}

// StartCommand triggers the signup entry point.
type StartCommand struct{}

// CancelCommand aborts the conversation from any state.
type CancelCommand struct{}

// Text is free-form message input.
type Text struct {
	Body string
}

// PlatformChosen is the platform selection button press.
type PlatformChosen struct {
	Platform string
}

// PaymentMethodChosen is the payment method button press.
type PaymentMethodChosen struct {
	Method string
}

// ResumeChosen continues an interrupted registration.
type ResumeChosen struct{}

// RestartChosen discards scratch state and starts over.
type RestartChosen struct{}

func (StartCommand) isEvent()        {}
func (CancelCommand) isEvent()       {}
func (Text) isEvent()                {}
func (PlatformChosen) isEvent()      {}
func (PaymentMethodChosen) isEvent() {}
func (ResumeChosen) isEvent()        {}
func (RestartChosen) isEvent()       {}

// Update pairs an acting user with the decoded event.
type Update struct {
	UserID int64
	Event  Event
}
