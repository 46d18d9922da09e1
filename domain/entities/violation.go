package entities

import "time"

// ViolationState is the escalation stage of a debt
type ViolationState int

const (
	ViolationNew     ViolationState = 0
	ViolationDue     ViolationState = 1
	ViolationIllegal ViolationState = 2
	ViolationPaid    ViolationState = 3
)

// IllegalGrace is how long a Due violation stays Due before becoming Illegal
const IllegalGrace = 48 * time.Hour

func (s ViolationState) String() string {
	switch s {
	case ViolationNew:
		return "new"
	case ViolationDue:
		return "due"
	case ViolationIllegal:
		return "illegal"
	case ViolationPaid:
		return "paid"
	default:
		return "unknown"
	}
}

// ViolationKind names the rule that was broken
type ViolationKind string

const (
	ViolationKindShop    ViolationKind = "shop"
	ViolationKindGeneric ViolationKind = "generic"
)

// Violation is a debt recorded against a member
type Violation struct {
	ID          int64
	GuildID     int64
	UserID      int64
	VictimID    *int64
	Kind        ViolationKind
	Cost        int64
	Description string
	DueDate     time.Time
	State       ViolationState
	CreatedOn   time.Time
}

// Advance moves the violation one escalation step if now allows it.
// It returns true when the state changed.
func (v *Violation) Advance(now time.Time) bool {
	switch v.State {
	case ViolationNew:
		if !now.Before(v.DueDate) {
			v.State = ViolationDue
			return true
		}
	case ViolationDue:
		if !now.Before(v.DueDate.Add(IllegalGrace)) {
			v.State = ViolationIllegal
			return true
		}
	}
	return false
}

// Settled reports whether the violation has been paid
func (v *Violation) Settled() bool {
	return v.State == ViolationPaid
}
