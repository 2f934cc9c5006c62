package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosort/waste-bank/internal/config"
	"github.com/ecosort/waste-bank/internal/repository"
)

const (
	selectDeviceSQL = "SELECT id,device_id,api_key,is_active,created_at FROM devices WHERE device_id=? LIMIT 1"
	selectByQRSQL   = "SELECT id,name,email,phone_no,password_hash,role,qr_code,rewards,is_email_verified,created_at,updated_at FROM users WHERE qr_code=? LIMIT 1"
	selectByMailSQL = "SELECT id,name,email,phone_no,password_hash,role,qr_code,rewards,is_email_verified,created_at,updated_at FROM users WHERE email=? LIMIT 1"
)

var userColumns = []string{
	"id", "name", "email", "phone_no", "password_hash", "role",
	"qr_code", "rewards", "is_email_verified", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func userRow(id int64, email string, rewards int64, verified bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(userColumns).
		AddRow(id, "Dina", email, "0811111111", "$2a$04$hash", "normal_user",
			"USER_AB12CD34", rewards, verified, now, now)
}

func deviceRow(id int64, deviceID, key string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "device_id", "api_key", "is_active", "created_at"}).
		AddRow(id, deviceID, key, active, time.Now().UTC())
}

func postJSON(t *testing.T, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newWasteHandler(t *testing.T) (*WasteHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	cfg := config.Config{Rates: config.RewardRates{Organic: 10, Recyclable: 15, Hazardous: 5}}
	h := NewWasteHandler(cfg,
		repository.NewUserRepo(db),
		repository.NewDeviceRepo(db),
		repository.NewWasteRepo(db),
		repository.NewRewardRepo(db))
	return h, mock
}

func TestUpload_RejectsNegativeWeight(t *testing.T) {
	h, mock := newWasteHandler(t)
	c, rec := postJSON(t, "/v1/waste/upload",
		`{"device_id":"SCANNER-001","api_key":"DEV_KEY","qr_code":"USER_AB12CD34","organic_weight":-1}`)

	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	// Validation failed before any storage access.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpload_RejectsOversizedWeight(t *testing.T) {
	h, mock := newWasteHandler(t)
	c, rec := postJSON(t, "/v1/waste/upload",
		`{"device_id":"SCANNER-001","api_key":"DEV_KEY","qr_code":"USER_AB12CD34","organic_weight":3e18}`)

	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must not exceed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpload_AtomicIntake(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "amqp://127.0.0.1:1") // event publish is best effort
	h, mock := newWasteHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectDeviceSQL)).
		WithArgs("SCANNER-001").
		WillReturnRows(deviceRow(1, "SCANNER-001", "DEV_KEY", true))
	mock.ExpectQuery(regexp.QuoteMeta(selectByQRSQL)).
		WithArgs("USER_AB12CD34").
		WillReturnRows(userRow(9, "dina@x.test", 40, true))

	// Waste record, ledger entries and balance increment share one
	// transaction; the response balance is read inside it too.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO waste_data (user_id, device_id, organic_weight, recyclable_weight, hazardous_weight) VALUES (?,?,?,?,?)")).
		WithArgs(9, 1, 2.5, 1.8, 0.3).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at FROM waste_data WHERE id=?")).
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rewards (user_id, points, waste_type, weight) VALUES (?,?,?,?)")).
		WithArgs(9, 25, "organic", 2.5).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rewards (user_id, points, waste_type, weight) VALUES (?,?,?,?)")).
		WithArgs(9, 27, "recyclable", 1.8).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rewards (user_id, points, waste_type, weight) VALUES (?,?,?,?)")).
		WithArgs(9, 1, "hazardous", 0.3).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET rewards = rewards + ? WHERE id=?")).
		WithArgs(53, 9).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT rewards FROM users WHERE id=?")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"rewards"}).AddRow(93))
	mock.ExpectCommit()

	c, rec := postJSON(t, "/v1/waste/upload",
		`{"device_id":"SCANNER-001","api_key":"DEV_KEY","qr_code":"USER_AB12CD34","organic_weight":2.5,"recyclable_weight":1.8,"hazardous_weight":0.3}`)
	require.NoError(t, h.Upload(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(77), resp["waste_id"])
	assert.Equal(t, float64(53), resp["total_points"])
	assert.Equal(t, float64(93), resp["reward_balance"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpload_LedgerFailureRollsBackEverything(t *testing.T) {
	h, mock := newWasteHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectDeviceSQL)).
		WithArgs("SCANNER-001").
		WillReturnRows(deviceRow(1, "SCANNER-001", "DEV_KEY", true))
	mock.ExpectQuery(regexp.QuoteMeta(selectByQRSQL)).
		WithArgs("USER_AB12CD34").
		WillReturnRows(userRow(9, "dina@x.test", 40, true))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO waste_data (user_id, device_id, organic_weight, recyclable_weight, hazardous_weight) VALUES (?,?,?,?,?)")).
		WithArgs(9, 1, 2.5, 0.0, 0.0).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at FROM waste_data WHERE id=?")).
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rewards (user_id, points, waste_type, weight) VALUES (?,?,?,?)")).
		WithArgs(9, 25, "organic", 2.5).
		WillReturnError(errors.New("disk full"))
	// No balance update may run; the whole unit aborts.
	mock.ExpectRollback()

	c, rec := postJSON(t, "/v1/waste/upload",
		`{"device_id":"SCANNER-001","api_key":"DEV_KEY","qr_code":"USER_AB12CD34","organic_weight":2.5}`)
	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpload_InactiveDeviceForbidden(t *testing.T) {
	h, mock := newWasteHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectDeviceSQL)).
		WithArgs("SCANNER-001").
		WillReturnRows(deviceRow(1, "SCANNER-001", "DEV_KEY", false))

	c, rec := postJSON(t, "/v1/waste/upload",
		`{"device_id":"SCANNER-001","api_key":"DEV_KEY","qr_code":"USER_AB12CD34","organic_weight":1}`)
	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
