package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecosort/waste-bank/internal/model"
	"github.com/ecosort/waste-bank/internal/repository"
)

// UserHandler serves the normal_user self-service endpoints: intake
// history, the reward balance with its ledger, the scan token and
// aggregate stats.
type UserHandler struct {
	Users      *repository.UserRepo
	Waste      *repository.WasteRepo
	RewardRepo *repository.RewardRepo
}

func NewUserHandler(u *repository.UserRepo, w *repository.WasteRepo, rw *repository.RewardRepo) *UserHandler {
	return &UserHandler{Users: u, Waste: w, RewardRepo: rw}
}

// WasteHistory lists the caller's own submissions, newest first.
func (h *UserHandler) WasteHistory(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	records, err := h.Waste.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]wastePart, 0, len(records))
	for _, w := range records {
		out = append(out, wasteRecordPart(w))
	}
	return c.JSON(http.StatusOK, echo.Map{"waste_data": out, "count": len(out)})
}

type rewardEntryPart struct {
	ID        uint64    `json:"id"`
	Points    uint64    `json:"points"`
	WasteType string    `json:"waste_type"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

// Rewards returns the caller's current balance alongside the ledger
// entries it is the sum of.
func (h *UserHandler) Rewards(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	entries, err := h.RewardRepo.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	history := make([]rewardEntryPart, 0, len(entries))
	for _, e := range entries {
		history = append(history, rewardEntryPart{
			ID:        e.ID,
			Points:    e.Points,
			WasteType: string(e.WasteType),
			Weight:    e.Weight,
			CreatedAt: e.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_rewards": u.Rewards,
		"history":       history,
	})
}

// QRCode returns the caller's scan token.  Buyer and admin accounts never
// carry one, so for them this reports not found.
func (h *UserHandler) QRCode(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.Role != model.RoleNormalUser || u.QRCode == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no qr code for this account"})
	}
	return c.JSON(http.StatusOK, echo.Map{"qr_code": *u.QRCode})
}

// Stats aggregates the caller's lifetime contribution: summed weights per
// category, submission count and the current balance.
func (h *UserHandler) Stats(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	totals, err := h.Waste.TotalsByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"totals":        totals,
		"total_rewards": u.Rewards,
	})
}
