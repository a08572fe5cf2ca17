package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"voice-detection/models"
)

const mongoOpTimeout = 10 * time.Second

type MongoClient struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoClient(uri, dbName string) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %s", err)
	}

	return &MongoClient{client: client, db: client.Database(dbName)}, nil
}

func (m *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

type mongoPrediction struct {
	Timestamp   time.Time `bson:"timestamp"`
	Label       string    `bson:"label"`
	Confidence  float64   `bson:"confidence"`
	Explanation string    `bson:"explanation,omitempty"`
	SNRDb       float64   `bson:"snrDb,omitempty"`
	LatencyMs   float64   `bson:"latencyMs"`
	Source      string    `bson:"source,omitempty"`
}

// StorePrediction stores a detection verdict in the predictions collection
func (m *MongoClient) StorePrediction(record *models.PredictionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	doc := mongoPrediction{
		Timestamp:   record.Timestamp,
		Label:       record.Label,
		Confidence:  record.Confidence,
		Explanation: record.Explanation,
		SNRDb:       record.SNRDb,
		LatencyMs:   record.LatencyMs,
		Source:      record.Source,
	}

	if _, err := m.db.Collection("predictions").InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error storing prediction: %s", err)
	}
	return nil
}

// RecentPredictions retrieves stored verdicts, newest first
func (m *MongoClient) RecentPredictions(limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.db.Collection("predictions").Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying predictions: %s", err)
	}
	defer cursor.Close(ctx)

	var records []models.PredictionRecord
	for cursor.Next(ctx) {
		var doc mongoPrediction
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding prediction: %s", err)
		}
		records = append(records, models.PredictionRecord{
			Timestamp:   doc.Timestamp,
			Label:       doc.Label,
			Confidence:  doc.Confidence,
			Explanation: doc.Explanation,
			SNRDb:       doc.SNRDb,
			LatencyMs:   doc.LatencyMs,
			Source:      doc.Source,
		})
	}

	return records, cursor.Err()
}
