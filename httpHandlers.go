package main

import (
	"context"
	"crypto/subtle"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mdobak/go-xerrors"

	"voice-detection/db"
	"voice-detection/download"
	"voice-detection/models"
	"voice-detection/modelstore"
	"voice-detection/utils"
	"voice-detection/voice"
)

type apiError struct {
	Message string `json:"message"`
}

type detectResponse struct {
	Label            string  `json:"label"`
	Confidence       float64 `json:"confidence"`
	Explanation      string  `json:"fraud_risk_explanation"`
	Language         string  `json:"language"`
	SNRDb            float64 `json:"snr_db"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
	Status           string  `json:"status"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type modelInfoResponse struct {
	SchemaVersion int                     `json:"schema_version"`
	FeatureCount  int                     `json:"feature_count"`
	Classes       []string                `json:"classes"`
	TrainedAt     time.Time               `json:"trained_at"`
	Metrics       voice.ValidationMetrics `json:"metrics"`
}

const defaultAPIKey = "buildathon_demo_key_2026"

// maxRequestBytes caps the detect request body. Inline audio arrives base64
// encoded, so the cap is the download limit plus encoding overhead.
const maxRequestBytes = download.MaxAudioBytes + download.MaxAudioBytes/2

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

// requireAPIKey wraps a handler with Bearer token auth. OPTIONS preflight
// passes through so CORS keeps working for browser clients.
func requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	apiKey := utils.GetEnv("API_KEY", defaultAPIKey)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

func setCORSHeaders(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
}

func newDetectHandler(engine *voice.Engine, dbClient db.DBClient) http.HandlerFunc {
	logger := utils.GetLogger()

	normCfg := voice.DefaultNormalizerConfig()
	normCfg.TargetSampleRate = utils.GetEnvInt("TARGET_SAMPLE_RATE", normCfg.TargetSampleRate)

	extractorCfg := voice.DefaultExtractorConfig()
	extractorCfg.MinDuration = utils.GetEnvFloat("MIN_AUDIO_DURATION", extractorCfg.MinDuration)
	extractor := voice.NewExtractor(extractorCfg)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		setCORSHeaders(w, "POST")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

		var req models.DetectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.ErrorContext(ctx, "failed to parse request body", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		if (req.AudioURL == "") == (req.Audio == "") {
			writeJSONError(w, http.StatusBadRequest, "exactly one of audio_url or audio is required")
			return
		}

		started := time.Now()
		requestID := utils.GenerateUniqueID()

		var audioBytes []byte
		var source string
		var err error
		language := utils.LanguageUnknown
		if req.AudioURL != "" {
			source = "url"
			language = utils.DetectLanguageFromName(req.AudioURL)
			audioBytes, err = download.FetchAudio(req.AudioURL)
			if err != nil {
				logger.ErrorContext(ctx, "failed to fetch remote audio", slog.Any("error", xerrors.New(err)))
				writeJSONError(w, http.StatusBadRequest, "unable to fetch audio from URL")
				return
			}
		} else {
			source = "upload"
			audioBytes, err = base64.StdEncoding.DecodeString(req.Audio)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "audio field is not valid base64")
				return
			}
		}

		signal, err := voice.NormalizeWavBytes(audioBytes, normCfg)
		if err != nil {
			logger.ErrorContext(ctx, "failed to normalize audio", slog.Any("error", xerrors.New(err)))
			writeJSONError(w, http.StatusBadRequest, "unable to decode audio")
			return
		}

		snrDb := voice.EstimateSNR(signal.Samples)

		features, err := extractor.Extract(signal)
		if err != nil {
			logger.ErrorContext(ctx, "failed to extract features", slog.Any("error", xerrors.New(err)))
			writeJSONError(w, statusForError(err), "unable to extract features from audio")
			return
		}

		result, err := engine.Predict(features)
		if err != nil {
			logger.ErrorContext(ctx, "inference failed", slog.Any("error", xerrors.New(err)))
			switch {
			case errors.Is(err, voice.ErrModelNotLoaded):
				writeJSONError(w, http.StatusServiceUnavailable, "no model is loaded")
			case errors.Is(err, voice.ErrSchemaMismatch):
				writeJSONError(w, http.StatusInternalServerError, "model schema mismatch")
			default:
				writeJSONError(w, http.StatusInternalServerError, "inference error")
			}
			return
		}

		latency := time.Since(started).Seconds() * 1000

		logger.InfoContext(ctx, "detection complete",
			slog.Uint64("requestId", uint64(requestID)),
			slog.String("label", result.Label),
			slog.Float64("confidence", result.Confidence),
			slog.Float64("snrDb", snrDb),
			slog.Float64("latencyMs", latency),
			slog.String("source", source),
		)

		if dbClient != nil {
			record := &models.PredictionRecord{
				Timestamp:   time.Now().UTC(),
				Label:       result.Label,
				Confidence:  result.Confidence,
				Explanation: result.Explanation,
				SNRDb:       snrDb,
				LatencyMs:   latency,
				Source:      source,
			}
			if err := dbClient.StorePrediction(record); err != nil {
				logger.ErrorContext(ctx, "failed to store prediction", slog.Any("error", xerrors.New(err)))
				// The verdict still goes back to the caller.
			}
		}

		writeJSON(w, http.StatusOK, detectResponse{
			Label:            result.Label,
			Confidence:       result.Confidence,
			Explanation:      result.Explanation,
			Language:         language,
			SNRDb:            snrDb,
			ProcessingTimeMs: latency,
			Status:           "success",
		})
	}
}

// statusForError maps pipeline errors onto HTTP statuses. Bad input is the
// caller's fault; a schema mismatch inside the service is ours.
func statusForError(err error) int {
	switch {
	case errors.Is(err, voice.ErrDecode),
		errors.Is(err, voice.ErrEmptySignal),
		errors.Is(err, voice.ErrFeatureExtraction):
		return http.StatusBadRequest
	case errors.Is(err, voice.ErrSchemaMismatch):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func newHealthHandler(engine *voice.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w, "GET")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		writeJSON(w, http.StatusOK, healthResponse{
			Status:      "healthy",
			ModelLoaded: engine.Loaded(),
		})
	}
}

func newModelInfoHandler(engine *voice.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w, "GET")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		model := engine.Model()
		if model == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "no model is loaded")
			return
		}

		writeJSON(w, http.StatusOK, modelInfoResponse{
			SchemaVersion: model.SchemaVersion,
			FeatureCount:  model.FeatureCount,
			Classes:       model.Classes,
			TrainedAt:     model.TrainedAt,
			Metrics:       model.Metrics,
		})
	}
}

func newDetectionsHandler(dbClient db.DBClient) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		setCORSHeaders(w, "GET")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if dbClient == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "prediction storage is not configured")
			return
		}

		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		records, err := dbClient.RecentPredictions(limit)
		if err != nil {
			logger.ErrorContext(ctx, "failed to load predictions", slog.Any("error", xerrors.New(err)))
			writeJSONError(w, http.StatusInternalServerError, "failed to load predictions")
			return
		}
		if records == nil {
			records = []models.PredictionRecord{}
		}

		writeJSON(w, http.StatusOK, records)
	}
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)

	engine := voice.NewEngine()
	modelPath := utils.GetEnv("MODEL_PATH", "storage/model.json")
	if model, err := modelstore.Load(modelPath); err != nil {
		log.Printf("WARNING: failed to load model from %s: %v", modelPath, err)
		log.Println("The server will start but detection will fail until a model is trained.")
	} else if err := engine.Load(model); err != nil {
		log.Fatalf("failed to load model: %v", err)
	} else {
		log.Printf("Loaded model from %s (trained %s, accuracy %.3f)",
			modelPath, model.TrainedAt.Format(time.RFC3339), model.Metrics.Accuracy)
	}

	dbClient, err := db.NewDBClient()
	if err != nil {
		log.Printf("WARNING: prediction storage unavailable: %v", err)
		dbClient = nil
	} else {
		defer dbClient.Close()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/detect", requireAPIKey(newDetectHandler(engine, dbClient)))
	mux.HandleFunc("/api/v1/health", newHealthHandler(engine))
	mux.HandleFunc("/api/v1/model/info", requireAPIKey(newModelInfoHandler(engine)))
	mux.HandleFunc("/api/v1/detections", requireAPIKey(newDetectionsHandler(dbClient)))

	serveHTTP(protocol == "https", port, mux)
}

func serveHTTP(serveHTTPS bool, port string, handler http.Handler) {
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		certKey := utils.GetEnv("CERT_KEY", "")
		certFile := utils.GetEnv("CERT_FILE", "")
		if certKey == "" || certFile == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(certFile, certKey); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
		return
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}
