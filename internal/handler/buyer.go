package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecosort/waste-bank/internal/repository"
)

// BuyerHandler serves the buyer-facing read-only views over recyclable
// submissions.
type BuyerHandler struct {
	Waste *repository.WasteRepo
}

func NewBuyerHandler(w *repository.WasteRepo) *BuyerHandler {
	return &BuyerHandler{Waste: w}
}

// Recyclables lists every submission with a positive recyclable weight,
// joined with the submitting user's contact details so buyers can reach
// out.
func (h *BuyerHandler) Recyclables(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	listings, err := h.Waste.ListRecyclables(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"recyclables": listings, "count": len(listings)})
}

// Stats reports the total recyclable volume plus a per-month breakdown.
func (h *BuyerHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	total, entries, monthly, err := h.Waste.RecyclableStats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_recyclable_weight": total,
		"total_entries":           entries,
		"monthly":                 monthly,
	})
}
