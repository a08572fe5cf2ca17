package models

import "time"

// DetectRequest is the JSON body of a detection call. Exactly one of
// AudioURL or Audio (base64 WAV bytes) must be set.
type DetectRequest struct {
	AudioURL string `json:"audio_url,omitempty"`
	Audio    string `json:"audio,omitempty"`
}

// PredictionRecord is a stored detection verdict with request metadata
type PredictionRecord struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Label       string    `json:"label"`
	Confidence  float64   `json:"confidence"`
	Explanation string    `json:"explanation,omitempty"`
	SNRDb       float64   `json:"snrDb,omitempty"`
	LatencyMs   float64   `json:"latencyMs"`
	Source      string    `json:"source,omitempty"` // "url" or "upload"
}
