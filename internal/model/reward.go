package model

import "time"

// WasteType names one of the three segregated waste categories.  Reward
// ledger entries carry the category they were earned from.
type WasteType string

const (
	WasteOrganic    WasteType = "organic"
	WasteRecyclable WasteType = "recyclable"
	WasteHazardous  WasteType = "hazardous"
)

// RewardEntry is one category's point award from one intake, stored in the
// append-only `rewards` table.  An entry exists only for categories whose
// weight in the triggering waste record was strictly positive, and the sum
// of a user's entries always equals users.rewards.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user the points were awarded to.
//  Points    – points earned; zero when the weight truncated below one point.
//  WasteType – category the points were earned from.
//  Weight    – the contributing weight in kg.
//  CreatedAt – when the entry was written.
type RewardEntry struct {
	ID        uint64    // rewards.id
	UserID    uint64    // rewards.user_id
	Points    uint64    // rewards.points
	WasteType WasteType // rewards.waste_type
	Weight    float64   // rewards.weight
	CreatedAt time.Time // rewards.created_at
}
