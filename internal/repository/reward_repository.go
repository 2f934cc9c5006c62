package repository

import (
	"context"
	"database/sql"

	"github.com/ecosort/waste-bank/internal/model"
)

// RewardRepo owns the append-only 'rewards' ledger.  Entries are only ever
// written inside the intake transaction; nothing updates or deletes them
// except the cascading user delete.
type RewardRepo struct{ DB *sql.DB }

func NewRewardRepo(db *sql.DB) *RewardRepo { return &RewardRepo{DB: db} }

// CreateTx appends one ledger entry within an existing transaction and
// populates the generated ID.
func (r *RewardRepo) CreateTx(ctx context.Context, tx *sql.Tx, entry *model.RewardEntry) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO rewards (user_id, points, waste_type, weight) VALUES (?,?,?,?)",
		entry.UserID, entry.Points, string(entry.WasteType), entry.Weight)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = uint64(id)
	return nil
}

// ListByUser returns a user's earning history, newest first.
func (r *RewardRepo) ListByUser(ctx context.Context, userID uint64) ([]model.RewardEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,points,waste_type,weight,created_at FROM rewards WHERE user_id=? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.RewardEntry, 0)
	for rows.Next() {
		var (
			e  model.RewardEntry
			wt string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Points, &wt, &e.Weight, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.WasteType = model.WasteType(wt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumByUser derives the balance from the ledger.  Used by audit checks to
// confirm the denormalized users.rewards column never diverges from the
// entries it summarizes.
func (r *RewardRepo) SumByUser(ctx context.Context, userID uint64) (uint64, error) {
	var sum uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(points),0) FROM rewards WHERE user_id=?", userID).Scan(&sum)
	return sum, err
}
