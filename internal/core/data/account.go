package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Account contains the login information specific to each registered user.
//
// Password holds the hex digest of the user's password concatenated with
// PasswordSalt; see the auth package for the hashing contract. RightsByte is
// stored raw and parsed at login time so that a corrupted value can be
// handled by the authentication flow rather than the query layer.
type Account struct {
	ID               uint64 `gorm:"primaryKey"`
	Username         string `gorm:"unique; not null"`
	DisplayName      string
	Password         string `gorm:"not null"`
	PasswordSalt     string `gorm:"not null"`
	RightsByte       byte
	RegistrationDate time.Time
}

// FindAccountByID searches for an account with the specified id, returning
// the *Account instance if found or nil if there is no match.
func FindAccountByID(db *gorm.DB, id uint64) (*Account, error) {
	var account Account
	err := db.First(&account, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

// FindAccountByUsername searches for an account with the specified username,
// returning the *Account instance if found or nil if there is no match.
func FindAccountByUsername(db *gorm.DB, username string) (*Account, error) {
	var account Account
	err := db.Where("username = ?", username).First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

// DisplayNameTaken reports whether any account already uses the display name.
func DisplayNameTaken(db *gorm.DB, displayName string) (bool, error) {
	var count int64
	err := db.Model(&Account{}).Where("display_name = ?", displayName).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateDisplayName sets the display name on the account with the given id.
func UpdateDisplayName(db *gorm.DB, accountID uint64, displayName string) error {
	return db.Model(&Account{}).Where("id = ?", accountID).
		Update("display_name", displayName).Error
}

// CreateAccount persists the Account record to the database.
func CreateAccount(db *gorm.DB, account *Account) error {
	return db.Create(account).Error
}

// DeleteAccount deletes an Account record from the database.
func DeleteAccount(db *gorm.DB, account *Account) error {
	return db.Delete(account).Error
}
