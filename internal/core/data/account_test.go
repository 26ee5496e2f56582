package data

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gorm.io/gorm"
)

func seedRandomAccounts(t *testing.T, db *gorm.DB) {
	t.Helper()
	for i := 0; i < 10; i++ {
		if err := CreateAccount(db, generateAccount(t)); err != nil {
			t.Fatalf("error seeding test account: %v", err)
		}
	}
}

func generateAccount(t *testing.T) *Account {
	t.Helper()
	return &Account{
		Username:     strconv.Itoa(rand.Int()),
		Password:     strconv.Itoa(rand.Int()),
		PasswordSalt: strconv.Itoa(rand.Int()),
	}
}

func assertAccountsMatch(t *testing.T, expected *Account, got *Account) {
	t.Helper()
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("account did not match expected; diff:\n%s", diff)
	}
}

func TestFindAccountByUsername(t *testing.T) {
	db := setUpDatabase(t)
	seedRandomAccounts(t, db)

	testAccount := generateAccount(t)
	tests := []struct {
		name     string
		seedData func(db *gorm.DB)
		want     *Account
		wantErr  bool
	}{
		{
			name:     "account does not exist",
			seedData: func(db *gorm.DB) {},
			want:     nil,
			wantErr:  false,
		},
		{
			name: "account exists",
			seedData: func(db *gorm.DB) {
				if err := CreateAccount(db, testAccount); err != nil {
					t.Fatalf("error creating test account data: %s", err)
				}
			},
			want:    testAccount,
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.seedData(db)

			account, err := FindAccountByUsername(db, testAccount.Username)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindAccountByUsername() wantErr = %v, error = %v", tt.wantErr, err)
			}
			assertAccountsMatch(t, tt.want, account)
		})
	}
}

func TestFindAccountByID(t *testing.T) {
	db := setUpDatabase(t)
	seedRandomAccounts(t, db)

	testAccount := generateAccount(t)
	if err := CreateAccount(db, testAccount); err != nil {
		t.Fatalf("error creating test account data: %s", err)
	}

	// gorm assigns IDs back to the struct on creation.
	account, err := FindAccountByID(db, testAccount.ID)
	if err != nil {
		t.Fatalf("FindAccountByID() returned an unexpected error: %v", err)
	}
	assertAccountsMatch(t, testAccount, account)

	account, err = FindAccountByID(db, testAccount.ID+1000)
	if err != nil {
		t.Fatalf("FindAccountByID() returned an unexpected error: %v", err)
	}
	if account != nil {
		t.Fatalf("FindAccountByID() returned an account unexpectedly: %v", account)
	}
}

func TestUpdateDisplayName(t *testing.T) {
	db := setUpDatabase(t)

	testAccount := generateAccount(t)
	if err := CreateAccount(db, testAccount); err != nil {
		t.Fatalf("error creating test account data: %s", err)
	}

	if err := UpdateDisplayName(db, testAccount.ID, "PlayerOne"); err != nil {
		t.Fatalf("UpdateDisplayName() returned an unexpected error: %v", err)
	}

	account, err := FindAccountByID(db, testAccount.ID)
	if err != nil {
		t.Fatalf("FindAccountByID() returned an unexpected error: %v", err)
	}
	if account.DisplayName != "PlayerOne" {
		t.Errorf("expected display name %q, got %q", "PlayerOne", account.DisplayName)
	}
}

func TestDisplayNameTaken(t *testing.T) {
	db := setUpDatabase(t)

	testAccount := generateAccount(t)
	testAccount.DisplayName = "PlayerOne"
	if err := CreateAccount(db, testAccount); err != nil {
		t.Fatalf("error creating test account data: %s", err)
	}

	taken, err := DisplayNameTaken(db, "PlayerOne")
	if err != nil {
		t.Fatalf("DisplayNameTaken() returned an unexpected error: %v", err)
	}
	if !taken {
		t.Error("expected display name to be reported as taken")
	}

	taken, err = DisplayNameTaken(db, "SomebodyElse")
	if err != nil {
		t.Fatalf("DisplayNameTaken() returned an unexpected error: %v", err)
	}
	if taken {
		t.Error("expected display name to be reported as available")
	}
}
