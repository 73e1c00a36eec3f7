package lifecycle

import "errors"

// Reason names a business-rule rejection. These are expected outcomes, not
// exceptions: the presentation layer maps each to an exact user message.
type Reason string

const (
	ReasonNotPaid          Reason = "NOT_PAID"
	ReasonCapacityExceeded Reason = "CAPACITY_EXCEEDED"
	ReasonAlreadyAssigned  Reason = "ALREADY_ASSIGNED"
	ReasonInvalidPin       Reason = "INVALID_PIN"
	ReasonNotAssigned      Reason = "NOT_ASSIGNED"
	ReasonInvalidStatus    Reason = "INVALID_STATUS"
)

// Rejection is a typed business-rule failure. The order's state is always
// unchanged when one is returned.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string { return string(r.Reason) + ": " + r.Message }

func reject(reason Reason, msg string) error {
	return &Rejection{Reason: reason, Message: msg}
}

// AsRejection unwraps err into a Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// ErrOrderNotFound is returned when the target order does not exist.
var ErrOrderNotFound = errors.New("order not found")
