package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/config"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/ledger"
	"gopkg.in/telebot.v4"
)

// fakeContext implements the parts of telebot.Context the handlers touch.
// Calling anything else panics on the nil embedded interface.
type fakeContext struct {
	telebot.Context

	update   telebot.Update
	chat     *telebot.Chat
	sender   *telebot.User
	message  *telebot.Message
	callback *telebot.Callback
	args     []string

	replies   []string
	responses []*telebot.CallbackResponse
	sent      []any
}

func (c *fakeContext) Update() telebot.Update      { return c.update }
func (c *fakeContext) Chat() *telebot.Chat         { return c.chat }
func (c *fakeContext) Sender() *telebot.User       { return c.sender }
func (c *fakeContext) Message() *telebot.Message   { return c.message }
func (c *fakeContext) Callback() *telebot.Callback { return c.callback }
func (c *fakeContext) Args() []string              { return c.args }

func (c *fakeContext) Text() string {
	if c.message == nil {
		return ""
	}
	return c.message.Text
}

func (c *fakeContext) Reply(what interface{}, _ ...interface{}) error {
	c.replies = append(c.replies, what.(string))
	return nil
}

func (c *fakeContext) Send(what interface{}, _ ...interface{}) error {
	c.sent = append(c.sent, what)
	return nil
}

func (c *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	c.responses = append(c.responses, resp...)
	return nil
}

type adjustCall struct {
	operatorID, userID string
	delta              int64
}

type fakeLedger struct {
	result  *ledger.Result
	err     error
	userIDs []string
	adjusts []adjustCall
}

func (l *fakeLedger) Checkin(_ context.Context, userID string, _ time.Time) (*ledger.Result, error) {
	l.userIDs = append(l.userIDs, userID)
	return l.result, l.err
}

func (l *fakeLedger) Adjust(_ context.Context, operatorID, userID string, delta int64) (*ledger.Result, error) {
	l.adjusts = append(l.adjusts, adjustCall{operatorID, userID, delta})
	return l.result, l.err
}

func (l *fakeLedger) Query(_ context.Context, userID string) (*ledger.Result, error) {
	l.userIDs = append(l.userIDs, userID)
	return l.result, l.err
}

type fakeUpdates struct {
	last int
}

func (u *fakeUpdates) UpdateLastUpdate(_ context.Context, updateID int) error {
	u.last = updateID
	return nil
}

const adminID = 777

func newTestHandler(t *testing.T, l Ledger) (*Handler, *fakeUpdates) {
	t.Helper()
	updates := &fakeUpdates{}
	h, err := New(&config.Config{
		BotHandleTimeout: time.Second,
		AdminIDs:         []int64{adminID},
		AdminCacheTTL:    time.Minute,
	}, l, updates)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return h, updates
}

func newFakeContext(senderID int64, text string, args ...string) *fakeContext {
	return &fakeContext{
		update:  telebot.Update{ID: 100},
		chat:    &telebot.Chat{ID: -1, Type: telebot.ChatPrivate},
		sender:  &telebot.User{ID: senderID, FirstName: "Ann"},
		message: &telebot.Message{Text: text},
		args:    args,
	}
}

func lastReply(t *testing.T, c *fakeContext) string {
	t.Helper()
	if len(c.replies) == 0 {
		t.Fatal("expected a reply")
	}
	return c.replies[len(c.replies)-1]
}

func TestHandleCheckin(t *testing.T) {
	t.Run("command", func(t *testing.T) {
		l := &fakeLedger{result: &ledger.Result{Outcome: ledger.OutcomeGranted, Points: 10, Amount: 10}}
		h, updates := newTestHandler(t, l)
		c := newFakeContext(42, "/checkin")

		if err := h.wrap(h.HandleCheckin)(c); err != nil {
			t.Fatalf("handler error = %v", err)
		}

		if len(l.userIDs) != 1 || l.userIDs[0] != "42" {
			t.Errorf("unexpected ledger calls %v", l.userIDs)
		}
		if got := lastReply(t, c); !strings.Contains(got, "received 10 points") {
			t.Errorf("unexpected reply %q", got)
		}
		if updates.last != 100 {
			t.Errorf("expected last update 100, got %d", updates.last)
		}
	})

	t.Run("button", func(t *testing.T) {
		l := &fakeLedger{result: &ledger.Result{Outcome: ledger.OutcomeAlreadyCheckedIn, Points: 10, Amount: 10}}
		h, _ := newTestHandler(t, l)
		c := newFakeContext(42, "")
		c.callback = &telebot.Callback{ID: "cb", Data: "\f" + CallbackActionDailyCheckin.String()}

		if err := h.wrap(h.HandleCallback)(c); err != nil {
			t.Fatalf("handler error = %v", err)
		}

		if len(c.responses) != 1 || !c.responses[0].ShowAlert {
			t.Fatalf("expected one alert, got %+v", c.responses)
		}
		if c.responses[0].Text != "You have already checked in today!" {
			t.Errorf("unexpected alert %q", c.responses[0].Text)
		}
	})

	t.Run("unknown button", func(t *testing.T) {
		l := &fakeLedger{}
		h, _ := newTestHandler(t, l)
		c := newFakeContext(42, "")
		c.callback = &telebot.Callback{ID: "cb", Data: "\fsomething_else"}

		if err := h.wrap(h.HandleCallback)(c); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if len(l.userIDs) != 0 {
			t.Errorf("ledger must not be called")
		}
	})

	t.Run("store failure", func(t *testing.T) {
		l := &fakeLedger{err: ledger.ErrStoreUnavailable}
		h, _ := newTestHandler(t, l)
		c := newFakeContext(42, "/checkin")

		if err := h.HandleCheckin(NewUpdateContext(context.Background(), c)); !errors.Is(err, ledger.ErrStoreUnavailable) {
			t.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
		if got := lastReply(t, c); got != replyFailure {
			t.Errorf("unexpected reply %q", got)
		}
	})
}

func TestHandleCheckinPrompt(t *testing.T) {
	h, _ := newTestHandler(t, &fakeLedger{})

	c := newFakeContext(42, "!checkin")
	if err := h.wrap(h.HandleText)(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if len(c.sent) != 1 || c.sent[0] != replyCheckinPrompt {
		t.Errorf("expected check-in prompt, got %v", c.sent)
	}

	c = newFakeContext(42, "hello")
	if err := h.wrap(h.HandleText)(c); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if len(c.sent) != 0 {
		t.Errorf("plain text must be ignored, got %v", c.sent)
	}
}

func TestHandlePoints(t *testing.T) {
	t.Run("own balance", func(t *testing.T) {
		l := &fakeLedger{result: &ledger.Result{Outcome: ledger.OutcomeFound, Points: 0}}
		h, _ := newTestHandler(t, l)
		c := newFakeContext(42, "/points")

		if err := h.wrap(h.HandlePoints)(c); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if got := lastReply(t, c); got != "Ann has 0 points." {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("replied user without record", func(t *testing.T) {
		l := &fakeLedger{result: &ledger.Result{Outcome: ledger.OutcomeNotFound}}
		h, _ := newTestHandler(t, l)
		c := newFakeContext(42, "/points")
		c.message.ReplyTo = &telebot.Message{Sender: &telebot.User{ID: 9, Username: "bob"}}

		if err := h.wrap(h.HandlePoints)(c); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if l.userIDs[0] != "9" {
			t.Errorf("expected query for 9, got %v", l.userIDs)
		}
		if got := lastReply(t, c); got != "bob has no points yet." {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("bad id", func(t *testing.T) {
		l := &fakeLedger{}
		h, _ := newTestHandler(t, l)
		c := newFakeContext(42, "/points abc", "abc")

		if err := h.wrap(h.HandlePoints)(c); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if got := lastReply(t, c); got != usagePoints {
			t.Errorf("unexpected reply %q", got)
		}
		if len(l.userIDs) != 0 {
			t.Errorf("ledger must not be called")
		}
	})
}

func TestHandleAdjust(t *testing.T) {
	t.Run("forbidden", func(t *testing.T) {
		l := &fakeLedger{}
		h, _ := newTestHandler(t, l)
		c := newFakeContext(42, "/addpoints 9 5", "9", "5")

		if err := h.wrap(h.HandleAddPoints)(c); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if got := lastReply(t, c); got != replyForbidden {
			t.Errorf("unexpected reply %q", got)
		}
		if len(l.adjusts) != 0 {
			t.Errorf("ledger must not be called")
		}
	})

	t.Run("remove by reply", func(t *testing.T) {
		l := &fakeLedger{result: &ledger.Result{Outcome: ledger.OutcomeAdjusted, Points: 0, Amount: 100}}
		h, _ := newTestHandler(t, l)
		c := newFakeContext(adminID, "/removepoints 100", "100")
		c.message.ReplyTo = &telebot.Message{Sender: &telebot.User{ID: 9, FirstName: "Bob"}}

		if err := h.wrap(h.HandleRemovePoints)(c); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		want := adjustCall{operatorID: "777", userID: "9", delta: -100}
		if len(l.adjusts) != 1 || l.adjusts[0] != want {
			t.Errorf("got %+v, want %+v", l.adjusts, want)
		}
		if got := lastReply(t, c); got != "Removed 100 points from Bob, balance is now 0." {
			t.Errorf("unexpected reply %q", got)
		}
	})

	t.Run("add by id", func(t *testing.T) {
		l := &fakeLedger{result: &ledger.Result{Outcome: ledger.OutcomeAdjusted, Points: 15, Amount: 5}}
		h, _ := newTestHandler(t, l)
		c := newFakeContext(adminID, "/addpoints 9 5", "9", "5")

		if err := h.wrap(h.HandleAddPoints)(c); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		want := adjustCall{operatorID: "777", userID: "9", delta: 5}
		if len(l.adjusts) != 1 || l.adjusts[0] != want {
			t.Errorf("got %+v, want %+v", l.adjusts, want)
		}
	})

	t.Run("invalid amount", func(t *testing.T) {
		l := &fakeLedger{}
		h, _ := newTestHandler(t, l)
		c := newFakeContext(adminID, "/addpoints 9 lots", "9", "lots")

		if err := h.wrap(h.HandleAddPoints)(c); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if got := lastReply(t, c); !strings.HasPrefix(got, "Usage: reply to a message with /addpoints") {
			t.Errorf("unexpected reply %q", got)
		}
		if len(l.adjusts) != 0 {
			t.Errorf("ledger must not be called")
		}
	})
}

func TestRateLimitedUpdate(t *testing.T) {
	l := &fakeLedger{result: &ledger.Result{Outcome: ledger.OutcomeFound}}
	h, _ := newTestHandler(t, l)
	h.limiter = newRateLimiter(1)

	for i := 0; i < 2; i++ {
		c := newFakeContext(42, "/points")
		if err := h.wrap(h.HandlePoints)(c); err != nil {
			t.Fatalf("handler error = %v", err)
		}
		if i == 1 && lastReply(t, c) != replyRateLimited {
			t.Errorf("expected rate limit reply, got %q", lastReply(t, c))
		}
	}
	if len(l.userIDs) != 1 {
		t.Errorf("expected one ledger call, got %d", len(l.userIDs))
	}
}
