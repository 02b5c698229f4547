package models

import (
	"time"
)

// PriceObservation is a single daily data point for one asset.
// Observations are append-only and unique per (AssetID, Timestamp).
type PriceObservation struct {
	AssetID   string    `json:"asset_id"`
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
	MarketCap float64   `json:"market_cap,omitempty"`
}

// FeatureVector holds the engineered features for one asset at one
// timestamp. Targets maps horizon (days) to the realized close at
// Timestamp+horizon and is populated only for rows where that future
// observation already exists.
type FeatureVector struct {
	AssetID   string             `json:"asset_id"`
	Timestamp time.Time          `json:"timestamp"`
	Close     float64            `json:"close"`
	Features  map[string]float64 `json:"features"`
	Targets   map[int]float64    `json:"targets,omitempty"`
}

// EvaluationMetrics are computed on the chronological hold-out split.
type EvaluationMetrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// TrainedModel is the persisted metadata of one fitted regressor.
// Records are immutable; a retraining run produces new records and
// never touches prior ones.
type TrainedModel struct {
	ID            string            `json:"id"`
	AssetID       string            `json:"asset_id"`
	HorizonDays   int               `json:"horizon_days"`
	Algorithm     string            `json:"algorithm"`
	TrainedAt     time.Time         `json:"trained_at"`
	TrainingStart time.Time         `json:"training_start"`
	TrainingEnd   time.Time         `json:"training_end"`
	TrainRows     int               `json:"train_rows"`
	TestRows      int               `json:"test_rows"`
	Metrics       EvaluationMetrics `json:"metrics"`
}

// Prediction is a single forecast produced by the ensemble. Immutable
// once written; later predictions supersede it.
type Prediction struct {
	ID             string    `json:"id"`
	AssetID        string    `json:"asset_id"`
	HorizonDays    int       `json:"horizon_days"`
	PredictedPrice float64   `json:"predicted_price"`
	CurrentPrice   float64   `json:"current_price"`
	ChangePct      float64   `json:"change_pct"`
	Confidence     float64   `json:"confidence"` // 0..1
	Algorithms     []string  `json:"algorithms"` // contributing model algorithms
	GeneratedAt    time.Time `json:"generated_at"`
	TargetDate     time.Time `json:"target_date"`
}

// LevelKind classifies a detected price level.
type LevelKind string

const (
	LevelSupport    LevelKind = "support"
	LevelResistance LevelKind = "resistance"
)

// Level is a clustered support or resistance price level.
// Strength is the number of extrema that fell into the cluster.
type Level struct {
	AssetID  string    `json:"asset_id"`
	Price    float64   `json:"price"`
	Kind     LevelKind `json:"kind"`
	Strength int       `json:"strength"`
	Window   int       `json:"window"` // observations scanned
}

// FibonacciLevel is one retracement line over a window's high/low range.
type FibonacciLevel struct {
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
}
