// Package main は SQLite のユーザーストアにログイン可能なユーザーを追加する CLI です。
//
//	useradd -db users.db -email bob@dylan.com -password bobbycool -first Bob -last Dylan
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yourusername/session-auth/internal/user"
)

func main() {
	var (
		dbPath    = flag.String("db", os.Getenv("USER_DB_PATH"), "path to the SQLite user database (defaults to $USER_DB_PATH)")
		email     = flag.String("email", "", "email address used to log in")
		password  = flag.String("password", "", "plaintext password; stored as a bcrypt hash")
		firstName = flag.String("first", "", "first name")
		lastName  = flag.String("last", "", "last name")
	)
	flag.Parse()

	if err := run(*dbPath, *email, *password, *firstName, *lastName); err != nil {
		log.Fatalf("useradd: %v", err)
	}
}

func run(dbPath, email, password, firstName, lastName string) error {
	if dbPath == "" {
		return fmt.Errorf("-db or USER_DB_PATH is required")
	}
	store, err := user.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	u, err := user.New(email, password, firstName, lastName)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Create(ctx, u); err != nil {
		return err
	}
	fmt.Println(u.ID)
	return nil
}
