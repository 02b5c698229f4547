// Package store persists price history, trained-model records and
// predictions in PostgreSQL. The engine itself only depends on the
// PredictionStore interface; any put/get-by-key backend satisfies it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/lib/pq"

	"github.com/Alias1177/CryptoForecaster/models"
)

// PredictionStore is the storage contract the engine requires.
type PredictionStore interface {
	AppendPriceHistory(ctx context.Context, obs []models.PriceObservation) error
	PriceHistory(ctx context.Context, assetID string) ([]models.PriceObservation, error)
	SavePredictions(ctx context.Context, predictions []models.Prediction) error
	LatestPredictions(ctx context.Context, assetID string) ([]models.Prediction, error)
	SaveTrainedModels(ctx context.Context, records []models.TrainedModel) error
	ModelHistory(ctx context.Context, assetID string, horizon int) ([]models.TrainedModel, error)
}

// Store is a PostgreSQL-backed PredictionStore.
type Store struct {
	*sql.DB
}

var _ PredictionStore = (*Store)(nil)

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New opens a connection, verifies it and creates tables if they don't
// exist.
func New(params ConnectionParams) (*Store, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &Store{db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS price_history (
			asset_id TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			close_price DOUBLE PRECISION NOT NULL,
			volume DOUBLE PRECISION,
			market_cap DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (asset_id, ts)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS predictions (
			id UUID PRIMARY KEY,
			asset_id TEXT NOT NULL,
			horizon_days INT NOT NULL,
			predicted_price DOUBLE PRECISION NOT NULL,
			current_price DOUBLE PRECISION NOT NULL,
			change_pct DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			algorithms TEXT[] NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			target_date TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trained_models (
			id UUID PRIMARY KEY,
			asset_id TEXT NOT NULL,
			horizon_days INT NOT NULL,
			algorithm TEXT NOT NULL,
			trained_at TIMESTAMPTZ NOT NULL,
			train_start TIMESTAMPTZ NOT NULL,
			train_end TIMESTAMPTZ NOT NULL,
			train_rows INT NOT NULL,
			test_rows INT NOT NULL,
			mae DOUBLE PRECISION NOT NULL,
			rmse DOUBLE PRECISION NOT NULL,
			r2 DOUBLE PRECISION
		)
	`)
	return err
}

// AppendPriceHistory inserts observations, silently skipping
// (asset_id, ts) pairs already recorded. History is append-only:
// existing rows are never updated.
func (s *Store) AppendPriceHistory(ctx context.Context, obs []models.PriceObservation) error {
	for _, o := range obs {
		_, err := s.ExecContext(ctx, `
			INSERT INTO price_history (asset_id, ts, close_price, volume, market_cap)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (asset_id, ts) DO NOTHING
		`, o.AssetID, o.Timestamp, o.Close, nullableFloat(o.Volume), nullableFloat(o.MarketCap))
		if err != nil {
			return fmt.Errorf("appending price history: %w", err)
		}
	}
	return nil
}

// PriceHistory returns the full recorded series for an asset, oldest
// first.
func (s *Store) PriceHistory(ctx context.Context, assetID string) ([]models.PriceObservation, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT asset_id, ts, close_price, volume, market_cap
		FROM price_history
		WHERE asset_id = $1
		ORDER BY ts ASC
	`, assetID)
	if err != nil {
		return nil, fmt.Errorf("loading price history: %w", err)
	}
	defer rows.Close()

	var out []models.PriceObservation
	for rows.Next() {
		var o models.PriceObservation
		var volume, marketCap sql.NullFloat64
		if err := rows.Scan(&o.AssetID, &o.Timestamp, &o.Close, &volume, &marketCap); err != nil {
			return nil, err
		}
		o.Volume = math.NaN()
		if volume.Valid {
			o.Volume = volume.Float64
		}
		o.MarketCap = math.NaN()
		if marketCap.Valid {
			o.MarketCap = marketCap.Float64
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SavePredictions writes forecast records. Insert-only: predictions
// are superseded by later rows, never edited.
func (s *Store) SavePredictions(ctx context.Context, predictions []models.Prediction) error {
	for _, p := range predictions {
		_, err := s.ExecContext(ctx, `
			INSERT INTO predictions (
				id, asset_id, horizon_days, predicted_price, current_price,
				change_pct, confidence, algorithms, generated_at, target_date
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, p.ID, p.AssetID, p.HorizonDays, p.PredictedPrice, p.CurrentPrice,
			p.ChangePct, p.Confidence, pq.Array(p.Algorithms), p.GeneratedAt, p.TargetDate)
		if err != nil {
			return fmt.Errorf("saving prediction %s: %w", p.ID, err)
		}
	}
	return nil
}

// LatestPredictions returns the newest prediction per horizon for an
// asset.
func (s *Store) LatestPredictions(ctx context.Context, assetID string) ([]models.Prediction, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT DISTINCT ON (horizon_days)
			id, asset_id, horizon_days, predicted_price, current_price,
			change_pct, confidence, algorithms, generated_at, target_date
		FROM predictions
		WHERE asset_id = $1
		ORDER BY horizon_days, generated_at DESC
	`, assetID)
	if err != nil {
		return nil, fmt.Errorf("loading predictions: %w", err)
	}
	defer rows.Close()

	var out []models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(&p.ID, &p.AssetID, &p.HorizonDays, &p.PredictedPrice, &p.CurrentPrice,
			&p.ChangePct, &p.Confidence, pq.Array(&p.Algorithms), &p.GeneratedAt, &p.TargetDate); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveTrainedModels writes the metadata of one training run.
// Insert-only; each run carries fresh IDs, so prior runs stay intact.
func (s *Store) SaveTrainedModels(ctx context.Context, records []models.TrainedModel) error {
	for _, m := range records {
		_, err := s.ExecContext(ctx, `
			INSERT INTO trained_models (
				id, asset_id, horizon_days, algorithm, trained_at,
				train_start, train_end, train_rows, test_rows, mae, rmse, r2
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, m.ID, m.AssetID, m.HorizonDays, m.Algorithm, m.TrainedAt,
			m.TrainingStart, m.TrainingEnd, m.TrainRows, m.TestRows,
			m.Metrics.MAE, m.Metrics.RMSE, nullableFloat(m.Metrics.R2))
		if err != nil {
			return fmt.Errorf("saving trained model %s: %w", m.ID, err)
		}
	}
	return nil
}

// ModelHistory returns trained-model records for (asset, horizon),
// newest run first, for auditing metric drift across retrainings.
func (s *Store) ModelHistory(ctx context.Context, assetID string, horizon int) ([]models.TrainedModel, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT id, asset_id, horizon_days, algorithm, trained_at,
			train_start, train_end, train_rows, test_rows, mae, rmse, r2
		FROM trained_models
		WHERE asset_id = $1 AND horizon_days = $2
		ORDER BY trained_at DESC
	`, assetID, horizon)
	if err != nil {
		return nil, fmt.Errorf("loading model history: %w", err)
	}
	defer rows.Close()

	var out []models.TrainedModel
	for rows.Next() {
		var m models.TrainedModel
		var r2 sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.AssetID, &m.HorizonDays, &m.Algorithm, &m.TrainedAt,
			&m.TrainingStart, &m.TrainingEnd, &m.TrainRows, &m.TestRows,
			&m.Metrics.MAE, &m.Metrics.RMSE, &r2); err != nil {
			return nil, err
		}
		m.Metrics.R2 = math.NaN()
		if r2.Valid {
			m.Metrics.R2 = r2.Float64
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// nullableFloat persists NaN as NULL. Zero is an observed value and
// stays zero; only an undefined reading becomes NULL.
func nullableFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
