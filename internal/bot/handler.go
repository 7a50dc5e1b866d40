package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/config"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/ledger"
	"gopkg.in/telebot.v4"
)

// Ledger is the part of the ledger service the bot dispatches to.
type Ledger interface {
	Checkin(ctx context.Context, userID string, now time.Time) (*ledger.Result, error)
	Adjust(ctx context.Context, operatorID, userID string, delta int64) (*ledger.Result, error)
	Query(ctx context.Context, userID string) (*ledger.Result, error)
}

type UpdateStore interface {
	UpdateLastUpdate(ctx context.Context, updateID int) error
}

type Handler struct {
	config  *config.Config
	ledger  Ledger
	updates UpdateStore
	admins  *adminCache
	limiter *rateLimiter
	now     func() time.Time
}

func New(cfg *config.Config, l Ledger, updates UpdateStore) (*Handler, error) {
	if cfg.BotHandleTimeout <= 0 {
		return nil, fmt.Errorf("bot handle timeout must be positive, got %v", cfg.BotHandleTimeout)
	}

	admins, err := newAdminCache(cfg.AdminIDs, cfg.AdminCacheSize, cfg.AdminCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("creating admin cache: %w", err)
	}

	return &Handler{
		config:  cfg,
		ledger:  l,
		updates: updates,
		admins:  admins,
		limiter: newRateLimiter(cfg.CommandsPerMin),
		now:     time.Now,
	}, nil
}

func (h *Handler) Register(b *telebot.Bot) {
	b.Handle("/checkin", h.wrap(h.HandleCheckin))
	b.Handle("/checkinbutton", h.wrap(h.HandleCheckinPrompt))
	b.Handle("/points", h.wrap(h.HandlePoints))
	b.Handle("/addpoints", h.wrap(h.HandleAddPoints))
	b.Handle("/removepoints", h.wrap(h.HandleRemovePoints))
	b.Handle(telebot.OnText, h.wrap(h.HandleText))
	b.Handle(telebot.OnCallback, h.wrap(h.HandleCallback))
}

func (h *Handler) wrap(fn func(uc *UpdateContext) error) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), h.config.BotHandleTimeout)
		defer cancel()

		uc := NewUpdateContext(ctx, c)

		if err := h.updates.UpdateLastUpdate(uc, c.Update().ID); err != nil {
			uc.L().Errorf("failed to update last update: %v", err)
		}

		if c.Sender() == nil {
			uc.L().Debugf("ignoring update without sender")
			return nil
		}

		if !h.limiter.Allow(c.Sender().ID) {
			uc.L().Infof("rate limiting user %d", c.Sender().ID)
			if err := h.reply(uc, replyRateLimited); err != nil {
				uc.L().Warnf("failed to reply: %v", err)
			}
			return nil
		}

		if err := fn(uc); err != nil {
			uc.L().Errorf("failed to handle update: %v", err)
		}

		return nil
	}
}

func (h *Handler) HandleText(uc *UpdateContext) error {
	if strings.TrimSpace(uc.TC().Text()) != "!checkin" {
		return nil
	}
	return h.HandleCheckinPrompt(uc)
}

func (h *Handler) HandleCheckinPrompt(uc *UpdateContext) error {
	markup := &telebot.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data(buttonCheckin, CallbackActionDailyCheckin.String())))

	if err := uc.TC().Send(replyCheckinPrompt, markup); err != nil {
		return fmt.Errorf("sending check-in prompt: %w", err)
	}
	return nil
}

func (h *Handler) HandleCallback(uc *UpdateContext) error {
	data := uc.TC().Callback().Data
	if !CallbackActionDailyCheckin.DataMatches(data) {
		uc.L().Debugf("ignoring unknown callback %q", data)
		return uc.TC().Respond()
	}
	return h.HandleCheckin(uc)
}

func (h *Handler) HandleCheckin(uc *UpdateContext) error {
	res, err := h.ledger.Checkin(uc, uc.SenderID(), h.now())
	if err != nil {
		return h.fail(uc, fmt.Errorf("checking in: %w", err), replyFailure)
	}

	uc.L().Infof("check-in for user %s: %v", uc.SenderID(), res)
	return h.reply(uc, checkinReply(res))
}

func (h *Handler) HandlePoints(uc *UpdateContext) error {
	t, err := parseQueryTarget(uc.TC().Args(), uc.Sender(), repliedUser(uc))
	if err != nil {
		return h.fail(uc, err, usagePoints)
	}

	res, err := h.ledger.Query(uc, t.ID)
	if err != nil {
		return h.fail(uc, fmt.Errorf("querying points: %w", err), usagePoints)
	}

	return h.reply(uc, pointsReply(res, t.Name))
}

func (h *Handler) HandleAddPoints(uc *UpdateContext) error {
	return h.handleAdjust(uc, "addpoints", 1)
}

func (h *Handler) HandleRemovePoints(uc *UpdateContext) error {
	return h.handleAdjust(uc, "removepoints", -1)
}

func (h *Handler) handleAdjust(uc *UpdateContext, command string, sign int64) error {
	isAdmin, err := h.admins.IsAdmin(uc.Chat(), uc.Sender(), func(chat *telebot.Chat, user *telebot.User) (*telebot.ChatMember, error) {
		return uc.Bot().ChatMemberOf(chat, user)
	})
	if err != nil {
		return h.fail(uc, fmt.Errorf("checking admin: %w", err), replyFailure)
	}
	if !isAdmin {
		uc.L().Warnf("user %s tried /%s without admin rights", uc.SenderID(), command)
		return h.reply(uc, replyForbidden)
	}

	usage := fmt.Sprintf(usageAdjust, command)
	t, amount, err := parseAdjustArgs(uc.TC().Args(), repliedUser(uc))
	if err != nil {
		return h.fail(uc, err, usage)
	}

	res, err := h.ledger.Adjust(uc, uc.SenderID(), t.ID, sign*amount)
	if err != nil {
		return h.fail(uc, fmt.Errorf("adjusting points: %w", err), usage)
	}

	return h.reply(uc, adjustReply(res, t.Name, sign > 0))
}

// reply answers callbacks with an alert and everything else with a reply.
func (h *Handler) reply(uc *UpdateContext, text string) error {
	if uc.TC().Callback() != nil {
		if err := uc.TC().Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true}); err != nil {
			return fmt.Errorf("responding to callback: %w", err)
		}
		return nil
	}

	if err := uc.TC().Reply(text); err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	return nil
}

// fail tells the user what went wrong. Input mistakes are answered with the
// usage text and are not reported as handler errors.
func (h *Handler) fail(uc *UpdateContext, err error, usage string) error {
	if rerr := h.reply(uc, errorReply(err, usage)); rerr != nil {
		uc.L().Warnf("failed to reply: %v", rerr)
	}
	if errors.Is(err, ledger.ErrInvalidInput) {
		uc.L().Infof("rejected input: %v", err)
		return nil
	}
	return err
}

func repliedUser(uc *UpdateContext) *telebot.User {
	msg := uc.TC().Message()
	if msg == nil || msg.ReplyTo == nil {
		return nil
	}
	return msg.ReplyTo.Sender
}
