package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration

	"voice-detection/models"
	"voice-detection/utils"
)

type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	// Create the directory if it doesn't exist (cross-platform)
	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteClient{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createPredictionsTable := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        label TEXT NOT NULL,
        confidence REAL NOT NULL DEFAULT 0,
        explanation TEXT,
        snr_db REAL,
        latency_ms REAL NOT NULL DEFAULT 0,
        source TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_timestamp ON predictions(timestamp);
    CREATE INDEX IF NOT EXISTS idx_predictions_label ON predictions(label);
    `

	if _, err := db.Exec(createPredictionsTable); err != nil {
		return fmt.Errorf("error creating predictions table: %s", err)
	}
	return nil
}

func (db *SQLiteClient) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// StorePrediction stores a detection verdict in the database
func (db *SQLiteClient) StorePrediction(record *models.PredictionRecord) error {
	_, err := db.db.Exec(`
		INSERT INTO predictions (
			timestamp, label, confidence, explanation, snr_db, latency_ms, source
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp,
		record.Label,
		record.Confidence,
		record.Explanation,
		record.SNRDb,
		record.LatencyMs,
		record.Source,
	)
	if err != nil {
		return fmt.Errorf("error storing prediction: %s", err)
	}
	return nil
}

// RecentPredictions retrieves stored verdicts, newest first
func (db *SQLiteClient) RecentPredictions(limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.db.Query(`
		SELECT id, timestamp, label, confidence, explanation, snr_db, latency_ms, source
		FROM predictions
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying predictions: %s", err)
	}
	defer rows.Close()

	var records []models.PredictionRecord
	for rows.Next() {
		var r models.PredictionRecord
		var explanation, source sql.NullString
		var snrDb sql.NullFloat64

		err := rows.Scan(
			&r.ID,
			&r.Timestamp,
			&r.Label,
			&r.Confidence,
			&explanation,
			&snrDb,
			&r.LatencyMs,
			&source,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning prediction: %s", err)
		}

		r.Explanation = explanation.String
		r.SNRDb = snrDb.Float64
		r.Source = source.String
		records = append(records, r)
	}

	return records, rows.Err()
}
