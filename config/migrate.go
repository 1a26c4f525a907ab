package config

import (
	"log"

	"github.com/pressly/goose/v3"

	"github.com/coution-app/be-kb-platform/migrations"
)

// MigrateKB runs the embedded goose migrations against the kb store.
// The auth store is owned by the mentor dashboard and never migrated here.
func MigrateKB() {
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Failed to set goose dialect: %v", err)
	}

	goose.SetBaseFS(migrations.FS)

	if err := goose.Up(KBDB.DB, "."); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("kb migrations applied")
}
