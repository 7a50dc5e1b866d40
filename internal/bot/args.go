package bot

import (
	"fmt"
	"strconv"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/ledger"
	"gopkg.in/telebot.v4"
)

type target struct {
	ID   string
	Name string
}

func targetOf(u *telebot.User) target {
	return target{ID: userKey(u), Name: displayName(u)}
}

// parseQueryTarget picks whose balance /points shows: the author of the
// replied message, an explicit numeric id, or the sender.
func parseQueryTarget(args []string, sender, replyTo *telebot.User) (target, error) {
	switch {
	case replyTo != nil:
		return targetOf(replyTo), nil
	case len(args) > 0:
		id, err := parseUserID(args[0])
		if err != nil {
			return target{}, err
		}
		return target{ID: id, Name: id}, nil
	default:
		return targetOf(sender), nil
	}
}

// parseAdjustArgs accepts "<amount>" when replying to the target's message
// and "<user_id> <amount>" otherwise.
func parseAdjustArgs(args []string, replyTo *telebot.User) (target, int64, error) {
	if replyTo != nil {
		if len(args) != 1 {
			return target{}, 0, fmt.Errorf("%w: expected exactly one amount", ledger.ErrInvalidInput)
		}
		amount, err := ledger.ParseAmount(args[0])
		if err != nil {
			return target{}, 0, err
		}
		return targetOf(replyTo), amount, nil
	}

	if len(args) != 2 {
		return target{}, 0, fmt.Errorf("%w: expected user id and amount", ledger.ErrInvalidInput)
	}
	id, err := parseUserID(args[0])
	if err != nil {
		return target{}, 0, err
	}
	amount, err := ledger.ParseAmount(args[1])
	if err != nil {
		return target{}, 0, err
	}
	return target{ID: id, Name: id}, amount, nil
}

func parseUserID(raw string) (string, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("%w: %q is not a user id", ledger.ErrInvalidInput, raw)
	}
	return strconv.FormatInt(id, 10), nil
}
