package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ecosort/waste-bank/internal/model"
	"github.com/ecosort/waste-bank/internal/repository"
	"github.com/ecosort/waste-bank/internal/utils"
)

// AdminHandler serves the administration surface: system overview, user
// and device listings, device lifecycle and user removal.  Every route is
// behind the admin role gate.
type AdminHandler struct {
	Users   *repository.UserRepo
	Devices *repository.DeviceRepo
	Waste   *repository.WasteRepo
}

func NewAdminHandler(u *repository.UserRepo, d *repository.DeviceRepo, w *repository.WasteRepo) *AdminHandler {
	return &AdminHandler{Users: u, Devices: d, Waste: w}
}

// Overview reports system-wide counts and weight totals for the admin
// dashboard.
func (h *AdminHandler) Overview(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	totals, err := h.Waste.Totals(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	userCount, err := h.Users.CountByRole(ctx, model.RoleNormalUser)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	buyerCount, err := h.Users.CountByRole(ctx, model.RoleBuyer)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	deviceCount, err := h.Devices.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_users":   userCount,
		"total_buyers":  buyerCount,
		"total_devices": deviceCount,
		"waste_totals":  totals,
	})
}

// ListUsers returns every account, newest first, without password hashes.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out, "count": len(out)})
}

// GetUser returns one account by id.
func (h *AdminHandler) GetUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// DeleteUser removes a non-admin account and every dependent row.  Admin
// accounts are protected and report a conflict.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Users.Delete(ctx, id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "admin accounts cannot be deleted"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

type devicePart struct {
	ID        uint64    `json:"id"`
	DeviceID  string    `json:"device_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toDevicePart(d model.Device) devicePart {
	return devicePart{ID: d.ID, DeviceID: d.DeviceID, IsActive: d.IsActive, CreatedAt: d.CreatedAt}
}

// ListDevices returns every registered device.  API keys are never
// included in listings.
func (h *AdminHandler) ListDevices(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	devices, err := h.Devices.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]devicePart, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDevicePart(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"devices": out, "count": len(out)})
}

type registerDeviceReq struct {
	DeviceID string `json:"device_id"`
	APIKey   string `json:"api_key"` // optional, generated when absent
}

// RegisterDevice creates a scanning device.  When no key is supplied one
// is generated; either way the key appears in this response and is never
// disclosed again.  A taken device_id reports a conflict and leaves the
// existing device untouched.
func (h *AdminHandler) RegisterDevice(c echo.Context) error {
	var req registerDeviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	req.APIKey = strings.TrimSpace(req.APIKey)
	if req.DeviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "device_id required"})
	}
	if req.APIKey == "" {
		req.APIKey = utils.GenerateDeviceKey()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	d, err := h.Devices.Create(ctx, req.DeviceID, req.APIKey)
	if err != nil {
		if err == repository.ErrDeviceExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "device already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "register failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"device":  toDevicePart(d),
		"api_key": d.APIKey, // shown once at registration
	})
}

// DeactivateDevice permanently turns a device off.  The operation is
// idempotent and never reactivates.
func (h *AdminHandler) DeactivateDevice(c echo.Context) error {
	deviceID := strings.TrimSpace(c.Param("device_id"))
	if deviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "device_id required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	d, err := h.Devices.Deactivate(ctx, deviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "device not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"device":  toDevicePart(d),
		"message": "device deactivated",
	})
}
