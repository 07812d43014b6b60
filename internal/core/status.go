package core

import "time"

// Next returns the status one user action moves to:
// Pending -> Accepted -> Rejected -> Pending. Unknown values behave as Pending.
func (s PaymentStatus) Next() PaymentStatus {
	switch s {
	case StatusAccepted:
		return StatusRejected
	case StatusRejected:
		return StatusPending
	default:
		return StatusAccepted
	}
}

func (s PaymentStatus) String() string {
	if s == "" {
		return string(StatusPending)
	}
	return string(s)
}

// AdvancePaymentStatus moves r to the next status. Entering Accepted stamps
// PaymentAcceptedAt with now; every other transition clears it. The previous
// status is returned.
func (r *Record) AdvancePaymentStatus(now time.Time) PaymentStatus {
	prev := r.PaymentStatus
	if prev == "" {
		prev = StatusPending
	}
	r.PaymentStatus = prev.Next()
	if r.PaymentStatus == StatusAccepted {
		t := now
		r.PaymentAcceptedAt = &t
	} else {
		r.PaymentAcceptedAt = nil
	}
	r.UpdatedAt = now
	return prev
}
