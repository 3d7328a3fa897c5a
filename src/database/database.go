package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/vestfolio/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Ensuring database schema", "databasePath", databasePath)
	} else {
		stdlog.Println("Ensuring database schema for:", databasePath)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS report_runs (
		id TEXT PRIMARY KEY,
		year INTEGER NOT NULL,
		broker TEXT NOT NULL,
		strategy TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		result_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transaction_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		file_order INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		type TEXT NOT NULL,
		date TEXT NOT NULL,
		symbol TEXT,
		payload TEXT NOT NULL,
		FOREIGN KEY(run_id) REFERENCES report_runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_transaction_events_run ON transaction_events(run_id, date, file_order, seq);
	`
	if _, err := db.Exec(createTableStatement); err != nil {
		stdlog.Fatalf("failed to create database schema: %v", err)
	}
}
