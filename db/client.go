// Package db persists detection verdicts for the audit trail. Two backends
// are supported: SQLite (default, zero-setup) and MongoDB, selected with the
// DB_TYPE environment variable.
package db

import (
	"fmt"

	"voice-detection/models"
	"voice-detection/utils"
)

type DBClient interface {
	Close() error
	StorePrediction(record *models.PredictionRecord) error
	// RecentPredictions returns stored verdicts, newest first, at most limit.
	RecentPredictions(limit int) ([]models.PredictionRecord, error)
}

// NewDBClient selects the backend from DB_TYPE ("sqlite" or "mongo").
func NewDBClient() (DBClient, error) {
	dbType := utils.GetEnv("DB_TYPE", "sqlite")

	switch dbType {
	case "sqlite":
		dsn := utils.GetEnv("SQLITE_DB_PATH", "storage/predictions.db")
		return NewSQLiteClient(dsn)
	case "mongo":
		uri := utils.GetEnv("DB_URI", "mongodb://localhost:27017")
		name := utils.GetEnv("DB_NAME", "voice-detection")
		return NewMongoClient(uri, name)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE: %s", dbType)
	}
}
