package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
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

// OTPHandler implements the email verification flow: issuing a one-time
// passcode and verifying a submitted one.  Both operations are
// multi-statement database units; the handler owns the transaction so the
// repositories stay composable.
type OTPHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	OTPs  *repository.OTPRepo
}

func NewOTPHandler(cfg config.Config, u *repository.UserRepo, o *repository.OTPRepo) *OTPHandler {
	return &OTPHandler{Cfg: cfg, Users: u, OTPs: o}
}

type sendOTPReq struct {
	Email string `json:"email"`
}
type verifyOTPReq struct {
	Email string `json:"email"`
	Code  string `json:"otp_code"`
}

// SendOTP issues a fresh verification code for the account behind the
// email.  Every previously issued unused code is invalidated in the same
// transaction, so at most one code is live per user at any moment.  The
// email itself is delivered by a background worker: the handler publishes
// an event after commit, and a broker failure is reported as a retryable
// delivery error while the stored code stays valid.
func (h *OTPHandler) SendOTP(c echo.Context) error {
	var req sendOTPReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no account with this email"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.IsEmailVerified {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already verified"})
	}

	code, err := utils.GenerateOTPCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate code failed"})
	}
	now := time.Now().UTC()
	rec := model.OTPVerification{
		UserID:    u.ID,
		Email:     u.Email,
		Code:      code,
		ExpiresAt: now.Add(time.Duration(h.Cfg.OTPTTLMin) * time.Minute),
	}

	tx, err := h.OTPs.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.OTPs.InvalidateActiveTx(ctx, tx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invalidate old codes failed"})
	}
	if err := h.OTPs.CreateTx(ctx, tx, &rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store code failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true
	metrics.OTPIssuedTotal.Inc()

	ev := queue.OTPEmailEvent{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Code:      rec.Code,
		ExpiresAt: rec.ExpiresAt.Format(time.RFC3339),
		IssuedAt:  now.Format(time.RFC3339),
	}
	if err := publisher.PublishOTPEmail(ctx, ev); err != nil {
		// The code is stored and will verify; only delivery needs a retry.
		log.Printf("otp: queue publish for %s failed: %v", u.Email, err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"error": "verification code issued but email delivery failed; request a new code shortly",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":            "verification code sent",
		"expires_in_minutes": h.Cfg.OTPTTLMin,
	})
}

// VerifyOTP consumes a submitted code and flips the account to verified.
// An already-verified account short-circuits to success regardless of the
// code.  Failure precedence for a found record is used before expired, so
// a code that is both reports as used.
func (h *OTPHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and otp_code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no account with this email"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.IsEmailVerified {
		return c.JSON(http.StatusOK, echo.Map{"message": "email already verified"})
	}

	o, err := h.OTPs.FindLatestByCode(ctx, u.ID, u.Email, req.Code)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid verification code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	switch repository.Classify(o, time.Now().UTC()) {
	case repository.ErrOTPUsed:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification code already used"})
	case repository.ErrOTPExpired:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification code expired"})
	}

	tx, err := h.OTPs.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.OTPs.ConsumeTx(ctx, tx, o.ID); err != nil {
		if err == repository.ErrOTPUsed {
			// Lost the race against a concurrent verification of the same code.
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification code already used"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "consume code failed"})
	}
	if err := h.Users.MarkVerifiedTx(ctx, tx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark verified failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true
	metrics.OTPVerifiedTotal.Inc()

	return c.JSON(http.StatusOK, echo.Map{"message": "email verified successfully"})
}
