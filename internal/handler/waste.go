package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecosort/waste-bank/internal/config"
	"github.com/ecosort/waste-bank/internal/metrics"
	"github.com/ecosort/waste-bank/internal/model"
	"github.com/ecosort/waste-bank/internal/queue"
	"github.com/ecosort/waste-bank/internal/repository"
	publisher "github.com/ecosort/waste-bank/internal/service"
	"github.com/ecosort/waste-bank/internal/utils"
)

// WasteHandler implements the device-facing intake endpoint and the
// admin-facing record lookup.  Upload is the one place in the system where
// waste_data, the rewards ledger and the users balance are written, and
// all three writes share a single transaction.
type WasteHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Devices *repository.DeviceRepo
	Waste   *repository.WasteRepo
	Rewards *repository.RewardRepo
}

func NewWasteHandler(cfg config.Config, u *repository.UserRepo, d *repository.DeviceRepo, w *repository.WasteRepo, rw *repository.RewardRepo) *WasteHandler {
	return &WasteHandler{Cfg: cfg, Users: u, Devices: d, Waste: w, Rewards: rw}
}

type uploadReq struct {
	DeviceID         string  `json:"device_id"`
	APIKey           string  `json:"api_key"`
	QRCode           string  `json:"qr_code"`
	OrganicWeight    float64 `json:"organic_weight"`
	RecyclableWeight float64 `json:"recyclable_weight"`
	HazardousWeight  float64 `json:"hazardous_weight"`
}

type uploadResp struct {
	WasteID       uint64               `json:"waste_id"`
	UserID        uint64               `json:"user_id"`
	Points        utils.PointBreakdown `json:"points"`
	TotalPoints   uint64               `json:"total_points"`
	RewardBalance uint64               `json:"reward_balance"`
	RecordedAt    time.Time            `json:"recorded_at"`
}

// Upload records a waste submission from a scanning device.  The device
// authenticates with its own credentials (no user token is involved), the
// scanned QR code resolves the beneficiary, and points are computed as
// floor(weight * rate) per category.  The waste record, one ledger entry
// per earning category and the balance increment commit atomically; a
// failure at any step leaves no partial state behind.
func (h *WasteHandler) Upload(c echo.Context) error {
	var req uploadReq
	if err := c.Bind(&req); err != nil {
		metrics.WasteUploadsTotal.WithLabelValues("bad_request").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	req.APIKey = strings.TrimSpace(req.APIKey)
	req.QRCode = strings.TrimSpace(req.QRCode)
	if req.DeviceID == "" || req.APIKey == "" || req.QRCode == "" {
		metrics.WasteUploadsTotal.WithLabelValues("bad_request").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "device_id, api_key and qr_code required"})
	}
	if req.OrganicWeight < 0 || req.RecyclableWeight < 0 || req.HazardousWeight < 0 {
		metrics.WasteUploadsTotal.WithLabelValues("bad_request").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "weights must be non-negative"})
	}
	if req.OrganicWeight > utils.MaxSubmissionWeightKG ||
		req.RecyclableWeight > utils.MaxSubmissionWeightKG ||
		req.HazardousWeight > utils.MaxSubmissionWeightKG {
		metrics.WasteUploadsTotal.WithLabelValues("bad_request").Inc()
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": fmt.Sprintf("weights must not exceed %.0f kg per category", utils.MaxSubmissionWeightKG),
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dev, err := h.Devices.Authorize(ctx, req.DeviceID, req.APIKey)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			metrics.WasteUploadsTotal.WithLabelValues("unknown_device").Inc()
			return c.JSON(http.StatusNotFound, echo.Map{"error": "device not registered"})
		case repository.ErrDeviceUnauthorized:
			metrics.WasteUploadsTotal.WithLabelValues("unauthorized").Inc()
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid device credentials"})
		case repository.ErrForbidden:
			metrics.WasteUploadsTotal.WithLabelValues("inactive_device").Inc()
			return c.JSON(http.StatusForbidden, echo.Map{"error": "device is deactivated"})
		}
		metrics.WasteUploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "device check failed"})
	}

	u, err := h.Users.GetByQRCode(ctx, req.QRCode)
	if err != nil {
		if err == sql.ErrNoRows {
			metrics.WasteUploadsTotal.WithLabelValues("unknown_user").Inc()
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no user for this qr code"})
		}
		metrics.WasteUploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	points := utils.CalculatePoints(req.OrganicWeight, req.RecyclableWeight, req.HazardousWeight, h.Cfg.Rates)
	total := points.Total()

	rec := model.WasteRecord{
		UserID:           u.ID,
		DeviceID:         dev.ID,
		OrganicWeight:    req.OrganicWeight,
		RecyclableWeight: req.RecyclableWeight,
		HazardousWeight:  req.HazardousWeight,
	}

	tx, err := h.Waste.DB().BeginTx(ctx, nil)
	if err != nil {
		metrics.WasteUploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Waste.CreateTx(ctx, tx, &rec); err != nil {
		metrics.WasteUploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store record failed"})
	}
	// One ledger entry per category with a positive weight, so the ledger
	// always sums to the balance delta.  A sub-point weight still gets its
	// zero-point entry for audit completeness.
	for _, part := range []struct {
		wt     model.WasteType
		points uint64
		weight float64
	}{
		{model.WasteOrganic, points.Organic, req.OrganicWeight},
		{model.WasteRecyclable, points.Recyclable, req.RecyclableWeight},
		{model.WasteHazardous, points.Hazardous, req.HazardousWeight},
	} {
		if part.weight <= 0 {
			continue
		}
		entry := model.RewardEntry{
			UserID:    u.ID,
			Points:    part.points,
			WasteType: part.wt,
			Weight:    part.weight,
		}
		if err := h.Rewards.CreateTx(ctx, tx, &entry); err != nil {
			metrics.WasteUploadsTotal.WithLabelValues("error").Inc()
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store reward failed"})
		}
	}
	if total > 0 {
		if err := h.Users.IncrementRewardsTx(ctx, tx, u.ID, total); err != nil {
			metrics.WasteUploadsTotal.WithLabelValues("error").Inc()
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update balance failed"})
		}
	}
	// Re-read inside the transaction so the response reports the balance
	// this commit produces, not the pre-transaction snapshot.
	balance, err := h.Users.BalanceTx(ctx, tx, u.ID)
	if err != nil {
		metrics.WasteUploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read balance failed"})
	}
	if err := tx.Commit(); err != nil {
		metrics.WasteUploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	metrics.WasteUploadsTotal.WithLabelValues("success").Inc()
	metrics.PointsAwardedTotal.Add(float64(total))

	// Best-effort notification; a broker outage never fails the upload.
	ev := queue.WasteRecordedEvent{
		WasteID:          rec.ID,
		UserID:           u.ID,
		DeviceID:         dev.DeviceID,
		OrganicWeight:    rec.OrganicWeight,
		RecyclableWeight: rec.RecyclableWeight,
		HazardousWeight:  rec.HazardousWeight,
		PointsAwarded:    total,
		RecordedAt:       rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := publisher.PublishWasteRecorded(ctx, ev); err != nil {
		log.Printf("waste: publish recorded event failed: %v", err)
	}

	return c.JSON(http.StatusCreated, uploadResp{
		WasteID:       rec.ID,
		UserID:        u.ID,
		Points:        points,
		TotalPoints:   total,
		RewardBalance: balance,
		RecordedAt:    rec.CreatedAt,
	})
}

// GetByID returns one waste record.  Admin only; route registration
// applies the role gate.
func (h *WasteHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	rec, err := h.Waste.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "record not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, wasteRecordPart(rec))
}

type wastePart struct {
	ID               uint64    `json:"id"`
	UserID           uint64    `json:"user_id"`
	DeviceID         uint64    `json:"device_id"`
	OrganicWeight    float64   `json:"organic_weight"`
	RecyclableWeight float64   `json:"recyclable_weight"`
	HazardousWeight  float64   `json:"hazardous_weight"`
	CreatedAt        time.Time `json:"created_at"`
}

func wasteRecordPart(w model.WasteRecord) wastePart {
	return wastePart{
		ID:               w.ID,
		UserID:           w.UserID,
		DeviceID:         w.DeviceID,
		OrganicWeight:    w.OrganicWeight,
		RecyclableWeight: w.RecyclableWeight,
		HazardousWeight:  w.HazardousWeight,
		CreatedAt:        w.CreatedAt,
	}
}
