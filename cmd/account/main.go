// This script is a small convenience tool for manipulating user accounts in
// the configured server database.
package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/aserdan/citadel/internal/core"
	"github.com/aserdan/citadel/internal/core/auth"
	"github.com/aserdan/citadel/internal/core/data"
	"gorm.io/gorm"
)

var (
	configFlag = flag.String("config", "./", "Path to the directory containing the server config file")
	add        = flag.Bool("add", false, "Add an account.")
	del        = flag.Bool("delete", false, "Delete an account permanently.")
	help       = flag.Bool("help", false, "Print this usage info.")
)

func main() {
	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	config := core.LoadConfig(*configFlag)
	db, err := data.Initialize(config.DatabaseURL(), false)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	defer data.Shutdown(db)

	switch {
	case *add:
		username := scanInput("Username")
		password := scanInput("Password")
		displayName := scanInput("Display name (blank to pick at first login)")
		err = addAccount(db, username, password, displayName)
	case *del:
		err = deleteAccount(db, scanInput("Username"))
	default:
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func scanInput(prompt string) string {
	fmt.Printf("%s: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return scanner.Text()
}

func addAccount(db *gorm.DB, username, password, displayName string) error {
	if !auth.ValidUsername(username) {
		return fmt.Errorf("username must be at least %d alphanumeric characters", auth.MinUsernameLength)
	}
	if !auth.ValidPassword(password) {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}

	saltBytes := make([]byte, 16)
	if _, err := rand.Read(saltBytes); err != nil {
		return fmt.Errorf("failed to generate salt: %v", err)
	}
	salt := hex.EncodeToString(saltBytes)

	account := &data.Account{
		Username:         username,
		DisplayName:      displayName,
		Password:         auth.HashPassword(password, salt),
		PasswordSalt:     salt,
		RightsByte:       byte(data.RightsNormal),
		RegistrationDate: time.Now(),
	}
	if err := data.CreateAccount(db, account); err != nil {
		return fmt.Errorf("failed to create account: %v", err)
	}
	if err := data.CreateProfile(db, &data.Profile{AccountID: account.ID}); err != nil {
		return fmt.Errorf("failed to create profile: %v", err)
	}

	fmt.Println("created account with ID:", account.ID)
	return nil
}

func deleteAccount(db *gorm.DB, username string) error {
	account, err := data.FindAccountByUsername(db, username)
	if err != nil {
		return fmt.Errorf("failed to look up account: %v", err)
	}
	if account == nil {
		return fmt.Errorf("no account exists with username %s", username)
	}

	if err := data.DeleteAccount(db, account); err != nil {
		return fmt.Errorf("failed to delete account: %v", err)
	}
	fmt.Println("deleted account")
	return nil
}
