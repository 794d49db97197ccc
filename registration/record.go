package registration

import (
	"context"
	"fmt"
	"time"
)

// Step is the durable progress marker stored with a registration record.
type Step string

const (
	StepEnteringWhatsApp       Step = "entering_whatsapp"
	StepChoosingPayment        Step = "choosing_payment"
	StepEnteringPaymentDetails Step = "entering_payment_details"
	StepCompleted              Step = "completed"
)

// ParseStep validates a raw step value read from storage. Unknown values are
// rejected here so they never propagate silently into the flow.
func ParseStep(raw string) (Step, error) {
	switch Step(raw) {
	case StepEnteringWhatsApp, StepChoosingPayment, StepEnteringPaymentDetails, StepCompleted:
		return Step(raw), nil
	}
	return "", &ProtocolAnomaly{Detail: fmt.Sprintf("unknown registration step %q", raw)}
}

// InProgress reports whether the step marks an unfinished registration.
func (s Step) InProgress() bool {
	switch s {
	case StepEnteringWhatsApp, StepChoosingPayment, StepEnteringPaymentDetails:
		return true
	}
	return false
}

// Record is the durable per-user registration progress row.
type Record struct {
	UserID         int64
	Platform       string
	WhatsApp       string
	PaymentMethod  string
	PaymentDetails string
	Step           Step
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Fields carries the optional columns written together with a step change.
// Nil members leave the stored value untouched.
type Fields struct {
	Platform       *string
	WhatsApp       *string
	PaymentMethod  *string
	PaymentDetails *string
}

// RecordStore is the durable registration store consumed by the flow.
// Get returns (nil, nil) when no record exists for the user.
type RecordStore interface {
	Get(ctx context.Context, userID int64) (*Record, error)
	SaveStep(ctx context.Context, userID int64, step Step, fields Fields) error
}

// Stats is the statistics collaborator consumed by the flow.
type Stats interface {
	Inc(name string)
}
