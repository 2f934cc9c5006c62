package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/ecosort/waste-bank/internal/model"
)

// WasteRepo owns the 'waste_data' table.  Record creation only happens
// inside the intake transaction (CreateTx); everything else is read-only
// reporting for users, buyers and admins.
type WasteRepo struct{ db *sql.DB }

func NewWasteRepo(db *sql.DB) *WasteRepo { return &WasteRepo{db: db} }

// DB exposes the underlying handle so the intake handler can begin the
// transaction that spans waste_data, rewards and the users balance.
func (r *WasteRepo) DB() *sql.DB { return r.db }

const wasteCols = "id,user_id,device_id,organic_weight,recyclable_weight,hazardous_weight,created_at"

// CreateTx inserts a waste record within the scope of an existing
// transaction, then queries the row back to populate the server-assigned
// timestamp.  The caller must commit or roll back.
func (r *WasteRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.WasteRecord) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO waste_data (user_id, device_id, organic_weight, recyclable_weight, hazardous_weight) VALUES (?,?,?,?,?)",
		rec.UserID, rec.DeviceID, rec.OrganicWeight, rec.RecyclableWeight, rec.HazardousWeight)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		"SELECT created_at FROM waste_data WHERE id=?", rec.ID).Scan(&rec.CreatedAt)
}

// GetByID fetches a single waste record.
func (r *WasteRepo) GetByID(ctx context.Context, id uint64) (model.WasteRecord, error) {
	var w model.WasteRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT "+wasteCols+" FROM waste_data WHERE id=? LIMIT 1", id).
		Scan(&w.ID, &w.UserID, &w.DeviceID, &w.OrganicWeight, &w.RecyclableWeight, &w.HazardousWeight, &w.CreatedAt)
	return w, err
}

// ListByUser returns a user's intake history, newest first.
func (r *WasteRepo) ListByUser(ctx context.Context, userID uint64) ([]model.WasteRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+wasteCols+" FROM waste_data WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make([]model.WasteRecord, 0)
	for rows.Next() {
		var w model.WasteRecord
		if err := rows.Scan(&w.ID, &w.UserID, &w.DeviceID, &w.OrganicWeight, &w.RecyclableWeight, &w.HazardousWeight, &w.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, w)
	}
	return records, rows.Err()
}

// WeightTotals aggregates the three category weights plus the entry count
// for a user or for the whole system.
type WeightTotals struct {
	Organic    float64 `json:"total_organic"`
	Recyclable float64 `json:"total_recyclable"`
	Hazardous  float64 `json:"total_hazardous"`
	Entries    uint64  `json:"total_entries"`
}

// TotalsByUser sums a single user's submitted weights.
func (r *WasteRepo) TotalsByUser(ctx context.Context, userID uint64) (WeightTotals, error) {
	var t WeightTotals
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(organic_weight),0), COALESCE(SUM(recyclable_weight),0),
		        COALESCE(SUM(hazardous_weight),0), COUNT(*)
		 FROM waste_data WHERE user_id=?`, userID).
		Scan(&t.Organic, &t.Recyclable, &t.Hazardous, &t.Entries)
	return t, err
}

// Totals sums all submitted weights across every user.
func (r *WasteRepo) Totals(ctx context.Context) (WeightTotals, error) {
	var t WeightTotals
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(organic_weight),0), COALESCE(SUM(recyclable_weight),0),
		        COALESCE(SUM(hazardous_weight),0), COUNT(*)
		 FROM waste_data`).
		Scan(&t.Organic, &t.Recyclable, &t.Hazardous, &t.Entries)
	return t, err
}

// RecyclableListing is one row of the buyer-facing recyclable feed: the
// submission joined with the submitting user's contact details.
type RecyclableListing struct {
	WasteID   uint64  `json:"waste_id"`
	Weight    float64 `json:"recyclable_weight"`
	Timestamp string  `json:"timestamp"`
	UserName  string  `json:"user_name"`
	UserEmail string  `json:"user_email"`
}

// ListRecyclables returns every submission with a positive recyclable
// weight, newest first, for buyer browsing.
func (r *WasteRepo) ListRecyclables(ctx context.Context) ([]RecyclableListing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT wd.id, wd.recyclable_weight, wd.created_at, u.name, u.email
		 FROM waste_data wd
		 JOIN users u ON u.id = wd.user_id
		 WHERE wd.recyclable_weight > 0
		 ORDER BY wd.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	listings := make([]RecyclableListing, 0)
	for rows.Next() {
		var (
			l  RecyclableListing
			ts time.Time
		)
		if err := rows.Scan(&l.WasteID, &l.Weight, &ts, &l.UserName, &l.UserEmail); err != nil {
			return nil, err
		}
		l.Timestamp = ts.UTC().Format(time.RFC3339)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// MonthlyRecyclable is one month's aggregated recyclable intake.
type MonthlyRecyclable struct {
	Month  string  `json:"month"`
	Weight float64 `json:"total_weight"`
}

// RecyclableStats returns the overall recyclable totals plus a per-month
// breakdown for buyer dashboards.
func (r *WasteRepo) RecyclableStats(ctx context.Context) (total float64, entries uint64, monthly []MonthlyRecyclable, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(recyclable_weight),0), COUNT(*)
		 FROM waste_data WHERE recyclable_weight > 0`).Scan(&total, &entries)
	if err != nil {
		return 0, 0, nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT DATE_FORMAT(created_at, '%Y-%m') AS month, SUM(recyclable_weight)
		 FROM waste_data WHERE recyclable_weight > 0
		 GROUP BY month ORDER BY month`)
	if err != nil {
		return 0, 0, nil, err
	}
	defer rows.Close()
	monthly = make([]MonthlyRecyclable, 0)
	for rows.Next() {
		var m MonthlyRecyclable
		if err := rows.Scan(&m.Month, &m.Weight); err != nil {
			return 0, 0, nil, err
		}
		monthly = append(monthly, m)
	}
	return total, entries, monthly, rows.Err()
}
