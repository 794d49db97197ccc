package registration

// EffectKind enumerates the user-visible outcomes a transition can produce.
// The transport binding renders them into concrete messages and keyboards.
type EffectKind int

const (
	// EffectPromptPlatform asks the user to pick a platform.
	EffectPromptPlatform EffectKind = iota
	// EffectPromptWhatsApp asks for the WhatsApp contact number.
	EffectPromptWhatsApp
	// EffectPromptPayment asks the user to pick a payment method.
	EffectPromptPayment
	// EffectPaymentInstructions shows how to submit details for a method.
	EffectPaymentInstructions
	// EffectAskResume presents the continue/restart choice.
	EffectAskResume
	// EffectCompletedMenu shows the menu for already-registered users.
	EffectCompletedMenu
	// EffectDone confirms a finished registration.
	EffectDone
	// EffectCancelled confirms an aborted conversation.
	EffectCancelled
	// EffectValidationError re-prompts with the validator's message.
	EffectValidationError
	// EffectDetailsBeforeMethod protects against details sent with no method chosen.
	EffectDetailsBeforeMethod
	// EffectNudge re-renders the current prompt for unexpected input.
	EffectNudge
	// EffectDataLost tells the user their saved progress could not be restored.
	EffectDataLost
	// EffectGenericError reports an internal failure and asks to resubmit.
	EffectGenericError
	// EffectRateLimited is the terminal response for entry-point abuse.
	EffectRateLimited
	// EffectGreeting welcomes a brand-new user (catch-all path).
	EffectGreeting
	// EffectResumeHint points an interrupted user at the signup command (catch-all path).
	EffectResumeHint
	// EffectAlreadyRegistered reminds a finished user (catch-all path).
	EffectAlreadyRegistered
)

// ResumeInfo carries the snapshot presented with resume-related effects.
type ResumeInfo struct {
	Platform string
	WhatsApp string
	Method   string
	Step     Step
}

// Effect is one user-visible result of handling an update.
type Effect struct {
	Kind   EffectKind
	Text   string     // validator message for EffectValidationError
	Method string     // payment method for EffectPaymentInstructions
	Resume ResumeInfo // snapshot for EffectAskResume and resume prompts
}
