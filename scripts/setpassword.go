// Command setpassword rotates a mentor's password out-of-band. The request
// path of the service never writes password hashes; this tool is the only
// writer against the auth store.
//
// Usage:
//
//	go run scripts/setpassword.go @handle            # random password
//	go run scripts/setpassword.go -s @handle         # short password, for testing
//	go run scripts/setpassword.go @handle s3cret     # explicit password
package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/coution-app/be-kb-platform/utils"
)

func main() {
	short := flag.Bool("s", false, "generate a short password (8 hex chars)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: setpassword [-s] <@handle> [password]")
		os.Exit(1)
	}

	handle := flag.Arg(0)
	if !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}

	password := flag.Arg(1)
	if password == "" {
		var err error
		password, err = generatePassword(*short)
		if err != nil {
			log.Fatalf("Failed to generate password: %v", err)
		}
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	_ = godotenv.Load()
	dsn := os.Getenv("AUTH_DATABASE_URL")
	if dsn == "" {
		log.Fatal("AUTH_DATABASE_URL must be configured")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to auth database: %v", err)
	}
	defer db.Close()

	res, err := db.Exec("UPDATE mentors SET password_hash = $1 WHERE telegram = $2", hash, handle)
	if err != nil {
		log.Fatalf("Failed to update password hash: %v", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		log.Fatalf("No mentor with handle %s", handle)
	}

	fmt.Printf("Password updated for %s\n", handle)
	fmt.Printf("Password: %s\n", password)
}

func generatePassword(short bool) (string, error) {
	if short {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		return hex.EncodeToString(buf), nil
	}
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
