// Package notify defines the offer-delivery boundary. The engine only
// consumes the success/error contract; message composition and transport
// live in infra adapters.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/dispatchlab/fieldsched/core/model"
)

// Reject codes returned by the delivery side.
const (
	RejectCapacityConflict = "capacity_conflict"
	RejectRefused          = "refused"
	RejectUnreachable      = "unreachable"
)

// RejectError is a structured delivery failure.
type RejectError struct {
	Code string
	Msg  string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("offer rejected (%s): %s", e.Code, e.Msg)
}

// IsCapacityConflict reports whether err is a capacity conflict detected by
// the authoritative system.
func IsCapacityConflict(err error) bool {
	var re *RejectError
	return errors.As(err, &re) && re.Code == RejectCapacityConflict
}

// Notifier delivers an offer to a client. A nil error means the offer was
// accepted for delivery.
type Notifier interface {
	Send(ctx context.Context, offer model.Offer) error
}
