package bot

import (
	"errors"
	"fmt"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/ledger"
)

const (
	replyFailure       = "Something went wrong, please try again later."
	replyForbidden     = "You don't have permission to use this command."
	replyRateLimited   = "Slow down a little and try again in a moment."
	replyCheckinPrompt = "Press the button to check in for today:"
	buttonCheckin      = "Daily check-in"

	usagePoints = "Usage: /points, /points <user_id> or reply to a message with /points."
	usageAdjust = "Usage: reply to a message with /%[1]s <amount> or send /%[1]s <user_id> <amount>."
)

func checkinReply(res *ledger.Result) string {
	if res.Outcome == ledger.OutcomeAlreadyCheckedIn {
		return "You have already checked in today!"
	}
	return fmt.Sprintf("Check-in successful! You received %d points, your balance is now %d.", res.Amount, res.Points)
}

func pointsReply(res *ledger.Result, name string) string {
	if res.Outcome == ledger.OutcomeNotFound {
		return fmt.Sprintf("%s has no points yet.", name)
	}
	return fmt.Sprintf("%s has %d points.", name, res.Points)
}

func adjustReply(res *ledger.Result, name string, grant bool) string {
	if grant {
		return fmt.Sprintf("Added %d points to %s, balance is now %d.", res.Amount, name, res.Points)
	}
	return fmt.Sprintf("Removed %d points from %s, balance is now %d.", res.Amount, name, res.Points)
}

// errorReply hides store details from users; only input mistakes get a hint.
func errorReply(err error, usage string) string {
	if errors.Is(err, ledger.ErrInvalidInput) {
		return usage
	}
	return replyFailure
}
