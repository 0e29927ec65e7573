package domain

import (
	"fmt"
	"time"
)

type BlockReason string

const (
	BlockEventNotOpen      BlockReason = "EVENT_NOT_OPEN"
	BlockDeadlinePassed    BlockReason = "DEADLINE_PASSED"
	BlockNotEligible       BlockReason = "NOT_ELIGIBLE"
	BlockRegistrationFull  BlockReason = "REGISTRATION_FULL"
	BlockAlreadyRegistered BlockReason = "ALREADY_REGISTERED"
	BlockStockExhausted    BlockReason = "STOCK_EXHAUSTED"
)

// AdmissionError is returned when the gate refuses a caller.
type AdmissionError struct {
	Reason BlockReason
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("admission refused: %s", e.Reason)
}

func (e *AdmissionError) Unwrap() error {
	if e.Reason == BlockNotEligible {
		return ErrPermission
	}

	return ErrConflict
}

// AdmissionInput is the snapshot the gate decides on. ConfirmedCount counts
// registrations that are REGISTERED or COMPLETED.
type AdmissionInput struct {
	Event             Event
	Caller            Identity
	ConfirmedCount    int64
	AlreadyRegistered bool
	Now               time.Time
}

type admissionCheck func(in AdmissionInput) bool

// Order matters: CheckAdmission reports the first failing check.
var admissionChecks = []struct {
	reason BlockReason
	ok     admissionCheck
}{
	{BlockEventNotOpen, func(in AdmissionInput) bool {
		return in.Event.IsOpen()
	}},
	{BlockDeadlinePassed, func(in AdmissionInput) bool {
		return in.Event.RegistrationDeadline == nil || !in.Now.After(*in.Event.RegistrationDeadline)
	}},
	{BlockNotEligible, func(in AdmissionInput) bool {
		return Eligible(in.Event.Eligibility, in.Caller)
	}},
	{BlockRegistrationFull, func(in AdmissionInput) bool {
		return in.ConfirmedCount < int64(in.Event.RegistrationLimit)
	}},
	{BlockAlreadyRegistered, func(in AdmissionInput) bool {
		return !in.AlreadyRegistered
	}},
	{BlockStockExhausted, func(in AdmissionInput) bool {
		return in.Event.Type != EventMerchandise || in.Event.HasStock()
	}},
}

// EvaluateAdmission returns every reason the caller is blocked, for display.
func EvaluateAdmission(in AdmissionInput) []BlockReason {
	reasons := make([]BlockReason, 0)
	for _, c := range admissionChecks {
		if !c.ok(in) {
			reasons = append(reasons, c.reason)
		}
	}

	return reasons
}

// CheckAdmission fails fast on the first violated check.
func CheckAdmission(in AdmissionInput) error {
	for _, c := range admissionChecks {
		if !c.ok(in) {
			return &AdmissionError{Reason: c.reason}
		}
	}

	return nil
}

func Eligible(e Eligibility, caller Identity) bool {
	if caller.Role != RoleParticipant {
		return false
	}

	switch e {
	case EligibilityIIITOnly:
		return caller.IIIT
	case EligibilityNonIIITOnly:
		return !caller.IIIT
	default:
		return true
	}
}
