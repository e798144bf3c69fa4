package entities

import "time"

// BanBoxStatus is the persisted state of a BanBox record
type BanBoxStatus string

const (
	// BanBoxStatusBoxed means the player is restricted and waiting for revival
	BanBoxStatusBoxed BanBoxStatus = "boxed"

	// BanBoxStatusPendingRestore means the player was released while offline and is
	// restored on next login
	BanBoxStatusPendingRestore BanBoxStatus = "pending_restore"
)

// ReleaseReason records why a player left the BanBox
type ReleaseReason string

const (
	ReleaseRevived   ReleaseReason = "revived"
	ReleaseDestroyed ReleaseReason = "token_destroyed"
	ReleaseExpired   ReleaseReason = "timer_expired"
	ReleaseManual    ReleaseReason = "manual"
)

// BanBoxRecord is the durable state of one boxed player
type BanBoxRecord struct {
	PlayerID      string       `json:"player_id"`
	PlayerName    string       `json:"player_name"`
	DeathLocation Location     `json:"death_location"`
	BannedAt      time.Time    `json:"banned_at"`
	TimerDays     int          `json:"timer_days"`
	KillerID      string       `json:"killer_id,omitempty"`
	TokenID       string       `json:"token_id,omitempty"`
	Status        BanBoxStatus `json:"status"`
	// Set only for pending restorations
	RestoreLocation *Location     `json:"restore_location,omitempty"`
	ReleaseReason   ReleaseReason `json:"release_reason,omitempty"`
	ReviverName     string        `json:"reviver_name,omitempty"`
}

// IsBoxed reports whether the record represents an active restriction
func (r *BanBoxRecord) IsBoxed() bool {
	return r != nil && r.Status == BanBoxStatusBoxed
}

// ReleaseAt is the instant the timer releases the player
func (r *BanBoxRecord) ReleaseAt() time.Time {
	return r.BannedAt.Add(time.Duration(r.TimerDays) * 24 * time.Hour)
}

// Expired reports whether now is past the release deadline. A non-positive timer never expires.
func (r *BanBoxRecord) Expired(now time.Time) bool {
	if r.TimerDays <= 0 {
		return false
	}
	return now.Sub(r.BannedAt) > time.Duration(r.TimerDays)*24*time.Hour
}

// Clone returns a deep copy
func (r *BanBoxRecord) Clone() *BanBoxRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.RestoreLocation != nil {
		loc := *r.RestoreLocation
		out.RestoreLocation = &loc
	}
	return &out
}
