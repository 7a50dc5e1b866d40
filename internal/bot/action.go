package bot

import (
	"strings"
)

type CallbackAction string

const (
	CallbackActionDailyCheckin CallbackAction = "daily_checkin"
)

func (a CallbackAction) String() string {
	return string(a)
}

// DataMatches checks raw callback data. Telebot prefixes the unique part of
// inline button data with \f and separates the payload with |.
func (a CallbackAction) DataMatches(data string) bool {
	prefix := "\f" + a.String()
	return data == prefix || data == a.String() || strings.HasPrefix(data, prefix+"|")
}
