// Package coingecko fetches daily market data from the CoinGecko API.
// It is the acquisition collaborator: the engine only requires the
// ordered, de-duplicated series this client returns.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpClient "github.com/Alias1177/CryptoForecaster/internal/platform/http"
	"github.com/Alias1177/CryptoForecaster/models"
)

// Client is the CoinGecko API client
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new CoinGecko client
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewClient creates a new CoinGecko API client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = "https://api.coingecko.com/api/v3"
	}

	return &Client{
		baseURL: options.BaseURL,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
		}),
		logger: log.With().Str("component", "coingecko_client").Logger(),
	}
}

// marketChartResponse mirrors /coins/{id}/market_chart: parallel
// [timestamp_ms, value] arrays.
type marketChartResponse struct {
	Prices     [][2]float64 `json:"prices"`
	MarketCaps [][2]float64 `json:"market_caps"`
	Volumes    [][2]float64 `json:"total_volumes"`
}

// MarketChart fetches up to days of daily history for one coin and
// returns it as an ordered observation series, one point per calendar
// day (the last sample of a day wins).
func (c *Client) MarketChart(ctx context.Context, coinID string, days int) ([]models.PriceObservation, error) {
	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d&interval=daily",
		c.baseURL, coinID, days)

	c.logger.Debug().Str("coin", coinID).Int("days", days).Msg("Fetching market chart")

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var data marketChartResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if len(data.Prices) == 0 {
		return nil, fmt.Errorf("empty data returned for %s", coinID)
	}

	caps := indexByDay(data.MarketCaps)
	volumes := indexByDay(data.Volumes)

	byDay := make(map[time.Time]models.PriceObservation, len(data.Prices))
	for _, point := range data.Prices {
		ts := time.UnixMilli(int64(point[0])).UTC().Truncate(24 * time.Hour)
		byDay[ts] = models.PriceObservation{
			AssetID:   coinID,
			Timestamp: ts,
			Close:     point[1],
			Volume:    lookupByDay(volumes, ts),
			MarketCap: lookupByDay(caps, ts),
		}
	}

	out := make([]models.PriceObservation, 0, len(byDay))
	for _, o := range byDay {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })

	c.logger.Info().Str("coin", coinID).Int("observations", len(out)).Msg("Market chart fetched")
	return out, nil
}

// LatestObservation returns the newest daily point for one coin.
func (c *Client) LatestObservation(ctx context.Context, coinID string) (models.PriceObservation, error) {
	obs, err := c.MarketChart(ctx, coinID, 1)
	if err != nil {
		return models.PriceObservation{}, err
	}
	return obs[len(obs)-1], nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if strings.Contains(string(body), `"error"`) {
		c.logger.Error().Str("response", string(body)).Msg("CoinGecko API error")
		return nil, fmt.Errorf("CoinGecko API error: %s", string(body))
	}
	return body, nil
}

func indexByDay(points [][2]float64) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(points))
	for _, p := range points {
		ts := time.UnixMilli(int64(p[0])).UTC().Truncate(24 * time.Hour)
		out[ts] = p[1]
	}
	return out
}

// lookupByDay distinguishes a day with no reported value (NaN) from a
// reported zero.
func lookupByDay(m map[time.Time]float64, ts time.Time) float64 {
	if v, ok := m[ts]; ok {
		return v
	}
	return math.NaN()
}
