package ledger

import "fmt"

type Outcome string

const (
	OutcomeGranted          Outcome = "granted"
	OutcomeAlreadyCheckedIn Outcome = "already_checked_in"
	OutcomeAdjusted         Outcome = "adjusted"
	OutcomeFound            Outcome = "found"
	OutcomeNotFound         Outcome = "not_found"
)

// Result is what the ledger reports back to whoever dispatched the event.
// Amount is the number worth showing to the user: the bonus for a granted
// check-in, the requested change for an adjustment and the balance otherwise.
type Result struct {
	UserID  string  `json:"user_id"`
	Outcome Outcome `json:"outcome"`
	Points  int64   `json:"points"`
	Amount  int64   `json:"amount"`
}

func (r *Result) String() string {
	return fmt.Sprintf("Result(%s, %s, points=%d, amount=%d)", r.UserID, r.Outcome, r.Points, r.Amount)
}
