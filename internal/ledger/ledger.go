package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/config"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/models"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/storage"
	"github.com/sirupsen/logrus"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Store is the persistence contract of the ledger. UpdateAccount must
// serialize concurrent calls for the same user.
type Store interface {
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID string, fn storage.MutateFunc) (*models.Account, error)
	ListEntries(ctx context.Context, userID string, limit int) ([]*models.LedgerEntry, error)
}

// Notifier is told about every committed change.
type Notifier interface {
	Notify(ctx context.Context, entry *models.LedgerEntry)
}

type Service struct {
	store    Store
	notifier Notifier

	bonus   int64
	loc     *time.Location
	timeout time.Duration
}

func New(cfg *config.Config, store Store, notifier Notifier) (*Service, error) {
	if cfg.DailyBonus <= 0 {
		return nil, fmt.Errorf("daily bonus must be positive, got %d", cfg.DailyBonus)
	}
	if cfg.StoreTimeout <= 0 {
		return nil, fmt.Errorf("store timeout must be positive, got %v", cfg.StoreTimeout)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &Service{
		store:    store,
		notifier: notifier,
		bonus:    cfg.DailyBonus,
		loc:      loc,
		timeout:  cfg.StoreTimeout,
	}, nil
}

func (s *Service) Checkin(ctx context.Context, userID string, now time.Time) (*Result, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var entry *models.LedgerEntry
	acc, err := s.store.UpdateAccount(ctx, userID, func(acc *models.Account) (*models.LedgerEntry, error) {
		entry = nil
		if acc.LastCheckin != nil && SameDay(*acc.LastCheckin, now, s.loc) {
			return nil, nil
		}

		points, err := addPoints(acc.Points, s.bonus)
		if err != nil {
			return nil, err
		}
		checkedIn := now.UTC()
		acc.Points = points
		acc.LastCheckin = &checkedIn

		entry = &models.LedgerEntry{
			Kind:      models.EntryKindCheckin,
			Requested: s.bonus,
			Applied:   s.bonus,
		}
		return entry, nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	if entry == nil {
		return &Result{
			UserID:  userID,
			Outcome: OutcomeAlreadyCheckedIn,
			Points:  acc.Points,
			Amount:  acc.Points,
		}, nil
	}

	s.notify(ctx, entry)
	return &Result{
		UserID:  userID,
		Outcome: OutcomeGranted,
		Points:  acc.Points,
		Amount:  s.bonus,
	}, nil
}

// Adjust applies a signed delta on behalf of an operator whose privileges the
// caller has already checked. The balance saturates at zero.
func (s *Service) Adjust(ctx context.Context, operatorID, userID string, delta int64) (*Result, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if delta == math.MinInt64 {
		return nil, fmt.Errorf("%w: delta out of range", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var entry *models.LedgerEntry
	acc, err := s.store.UpdateAccount(ctx, userID, func(acc *models.Account) (*models.LedgerEntry, error) {
		points, err := addPoints(acc.Points, delta)
		if err != nil {
			return nil, err
		}
		if points < 0 {
			points = 0
		}

		entry = &models.LedgerEntry{
			Kind:       models.EntryKindAdjust,
			Requested:  delta,
			Applied:    points - acc.Points,
			OperatorID: operatorID,
		}
		acc.Points = points
		return entry, nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	logrus.WithFields(logrus.Fields{
		"operator_id": operatorID,
		"user_id":     userID,
		"requested":   entry.Requested,
		"applied":     entry.Applied,
		"points":      acc.Points,
	}).Info("balance adjusted")

	s.notify(ctx, entry)
	return &Result{
		UserID:  userID,
		Outcome: OutcomeAdjusted,
		Points:  acc.Points,
		Amount:  abs(delta),
	}, nil
}

func (s *Service) Query(ctx context.Context, userID string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	acc, err := s.store.GetAccount(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return &Result{UserID: userID, Outcome: OutcomeNotFound}, nil
	case err != nil:
		return nil, storeError(err)
	}

	return &Result{
		UserID:  userID,
		Outcome: OutcomeFound,
		Points:  acc.Points,
		Amount:  acc.Points,
	}, nil
}

// History returns the newest journal entries of a user, at most limit of them.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*models.LedgerEntry, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entries, err := s.store.ListEntries(ctx, userID, limit)
	if err != nil {
		return nil, storeError(err)
	}
	return entries, nil
}

func (s *Service) notify(ctx context.Context, entry *models.LedgerEntry) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(context.WithoutCancel(ctx), entry)
}

func addPoints(points, delta int64) (int64, error) {
	if delta > 0 && points > math.MaxInt64-delta {
		return 0, fmt.Errorf("%w: balance overflow", ErrInvalidInput)
	}
	return points + delta, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
