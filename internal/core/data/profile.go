package data

import (
	"errors"

	"gorm.io/gorm"
)

// Premium tiers understood by the game servers. Tier zero is a regular
// account; the distinction between paid tiers only matters downstream.
const (
	PremiumNone byte = iota
	PremiumSilver
	PremiumGold
)

// Profile holds the per-account game state loaded when a session is
// authorized: experience, currency, and the premium subscription.
type Profile struct {
	ID            uint64 `gorm:"primaryKey"`
	AccountID     uint64 `gorm:"uniqueIndex; not null"`
	XP            uint64
	Money         uint32
	PremiumTier   byte
	PremiumExpiry uint64
}

// FindProfileByAccountID searches for the profile belonging to an account,
// returning the *Profile instance if found or nil if there is no match.
func FindProfileByAccountID(db *gorm.DB, accountID uint64) (*Profile, error) {
	var profile Profile
	err := db.Where("account_id = ?", accountID).First(&profile).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &profile, nil
}

// CreateProfile persists the Profile record to the database.
func CreateProfile(db *gorm.DB, profile *Profile) error {
	return db.Create(profile).Error
}
