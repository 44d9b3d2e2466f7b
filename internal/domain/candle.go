package domain

// Candle is a one-minute OHLCV bucket.
// Series are ordered oldest first; the index of a candle is its elapsed minute minus one.
type Candle struct {
	Time   int64   `json:"time"` // bucket start (unix seconds), informational only
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// IsGreen reports whether the candle closed above its open.
func (c Candle) IsGreen() bool {
	return c.Close > c.Open
}

// ChartType selects the upstream chart a series was fetched from.
type ChartType string

const (
	// ChartPrice is the USD price chart.
	ChartPrice ChartType = "price"
	// ChartMarketCap is the market-cap chart, used as the volume proxy.
	ChartMarketCap ChartType = "mcap"
)

// String returns the chart type as string.
func (c ChartType) String() string {
	return string(c)
}

// IsValid checks if the chart type is valid.
func (c ChartType) IsValid() bool {
	return c == ChartPrice || c == ChartMarketCap
}

// CandleSeries is a token's candle sequence for one chart type.
// Corresponds to the candles table in ClickHouse.
type CandleSeries struct {
	TokenID string
	Chart   ChartType
	Candles []Candle
}
