package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/authutil"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/config"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/ledger"
	"github.com/C4T-BuT-S4D/ledgerbot/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const operatorKey = "operator"

type Ledger interface {
	Query(ctx context.Context, userID string) (*ledger.Result, error)
	Adjust(ctx context.Context, operatorID, userID string, delta int64) (*ledger.Result, error)
	History(ctx context.Context, userID string, limit int) ([]*models.LedgerEntry, error)
}

type Service struct {
	config *config.Config
	ledger Ledger
}

func NewService(cfg *config.Config, l Ledger) *Service {
	return &Service{
		config: cfg,
		ledger: l,
	}
}

func (s *Service) Register(e *echo.Echo) {
	e.GET("/healthz", s.HandleHealth())
	e.GET("/users/:id/points", s.HandlePoints())
	e.GET("/users/:id/history", s.HandleHistory())
	e.POST("/users/:id/adjust", s.HandleAdjust(), s.RequireOperator())
}

func (s *Service) HandleHealth() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}

func (s *Service) HandlePoints() echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Param("id")

		res, err := s.ledger.Query(c.Request().Context(), userID)
		if err != nil {
			return s.fail(c, err, "failed to query points")
		}
		if res.Outcome == ledger.OutcomeNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}

		return c.JSON(http.StatusOK, echo.Map{
			"user_id": userID,
			"points":  res.Points,
		})
	}
}

func (s *Service) HandleHistory() echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 0
		if raw := c.QueryParam("limit"); raw != "" {
			var err error
			if limit, err = strconv.Atoi(raw); err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be an integer"})
			}
		}

		entries, err := s.ledger.History(c.Request().Context(), c.Param("id"), limit)
		if err != nil {
			return s.fail(c, err, "failed to get history")
		}
		if entries == nil {
			entries = []*models.LedgerEntry{}
		}

		return c.JSON(http.StatusOK, entries)
	}
}

func (s *Service) HandleAdjust() echo.HandlerFunc {
	type adjustRequest struct {
		Delta *int64 `json:"delta"`
	}

	return func(c echo.Context) error {
		var req adjustRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "delta must be an integer"})
		}
		if req.Delta == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "delta is required"})
		}

		operator := c.Get(operatorKey).(*authutil.OperatorClaims)
		userID := c.Param("id")

		res, err := s.ledger.Adjust(c.Request().Context(), operator.Subject, userID, *req.Delta)
		if err != nil {
			return s.fail(c, err, "failed to adjust points")
		}

		logrus.Infof("operator %s adjusted %s by %d via api", operator.Subject, userID, *req.Delta)

		return c.JSON(http.StatusOK, echo.Map{
			"user_id": userID,
			"points":  res.Points,
			"amount":  res.Amount,
		})
	}
}

// RequireOperator accepts requests carrying a valid operator JWT.
func (s *Service) RequireOperator() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "bearer token is required"})
			}

			claims, err := authutil.ParseOperatorToken(s.config.APIJWTSecret, raw)
			if err != nil {
				logrus.Warnf("rejected operator token: %v", err)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(operatorKey, claims)
			return next(c)
		}
	}
}

func (s *Service) fail(c echo.Context, err error, msg string) error {
	if errors.Is(err, ledger.ErrInvalidInput) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	logrus.Errorf("%s: %v", msg, err)
	return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": msg})
}
