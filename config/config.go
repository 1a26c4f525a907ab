package config

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/viper"
)

// AuthDB holds mentor identity. It is owned by the mentor dashboard and
// read-only from this service except for out-of-band password rotation.
// KBDB holds pages and blocks.
var (
	AuthDB *sqlx.DB
	KBDB   *sqlx.DB
)

func InitConfig() {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Env-only deployments have no .env file.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("Error reading config file: %v", err)
		}
	}
}

// InitDBs connects both stores. A missing connection string for either store
// is a fatal startup condition.
func InitDBs() {
	authDSN := viper.GetString("AUTH_DATABASE_URL")
	kbDSN := viper.GetString("KB_DATABASE_URL")
	if authDSN == "" || kbDSN == "" {
		log.Fatal("AUTH_DATABASE_URL and KB_DATABASE_URL must be configured")
	}

	AuthDB = connect("auth", authDSN)
	KBDB = connect("kb", kbDSN)
}

func connect(name, dsn string) *sqlx.DB {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to %s database: %v", name, err)
	}

	maxOpenConns := viper.GetInt("DB_MAX_OPEN_CONNS")
	if maxOpenConns == 0 {
		maxOpenConns = 25
	}

	maxIdleConns := viper.GetInt("DB_MAX_IDLE_CONNS")
	if maxIdleConns == 0 {
		maxIdleConns = 10
	}

	connMaxLifetime := viper.GetDuration("DB_CONN_MAX_LIFETIME")
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}

	connMaxIdleTime := viper.GetDuration("DB_CONN_MAX_IDLE_TIME")
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 1 * time.Minute
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("%s database ping failed: %v", name, err)
	}

	log.Printf("%s database connected (max_open=%d, max_idle=%d, max_lifetime=%s)",
		name, maxOpenConns, maxIdleConns, connMaxLifetime)

	return db
}

// CloseDBs closes both database connections gracefully.
func CloseDBs() {
	if AuthDB != nil {
		AuthDB.Close()
	}
	if KBDB != nil {
		KBDB.Close()
	}
}
