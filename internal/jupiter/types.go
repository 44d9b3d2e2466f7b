package jupiter

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// TokenInfo is one entry of the dev stats topTokens list.
type TokenInfo struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Symbol        string          `json:"symbol"`
	MarketCap     float64         `json:"mcap"`
	Liquidity     float64         `json:"liquidity"`
	HolderCount   int             `json:"holderCount"`
	USDPrice      float64         `json:"usdPrice"`
	IsVerified    bool            `json:"isVerified"`
	CreatedAt     Timestamp       `json:"createdAt"`
	GraduatedAt   Timestamp       `json:"graduatedAt"`
	UpdatedAt     Timestamp       `json:"updatedAt"`
	FirstPool     *Pool           `json:"firstPool"`
	GraduatedPool json.RawMessage `json:"graduatedPool"`
	Stats24h      *Stats          `json:"stats24h"`
}

// Pool is the subset of pool fields the collector reads.
type Pool struct {
	ID        string    `json:"id"`
	CreatedAt Timestamp `json:"createdAt"`
}

// Stats holds 24h trading stats.
type Stats struct {
	BuyVolume   float64 `json:"buyVolume"`
	SellVolume  float64 `json:"sellVolume"`
	PriceChange float64 `json:"priceChange"`
}

// IsGraduated reports whether the token has a graduated pool.
func (t TokenInfo) IsGraduated() bool {
	raw := bytes.TrimSpace(t.GraduatedPool)
	switch string(raw) {
	case "", "null", "false", `""`, "0":
		return false
	}
	return true
}

// Volume24h returns buy plus sell volume over the last 24h.
func (t TokenInfo) Volume24h() float64 {
	if t.Stats24h == nil {
		return 0
	}
	return t.Stats24h.BuyVolume + t.Stats24h.SellVolume
}

// Timestamp accepts RFC 3339 strings or unix milliseconds.
// Unparseable values decode to the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	ts.Time = time.Time{}
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	if raw[0] != '"' {
		ms, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return nil
		}
		ts.Time = time.UnixMilli(int64(ms)).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t.UTC()
			return nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		ts.Time = time.UnixMilli(ms).UTC()
	}
	return nil
}

type statsResponse struct {
	TopTokens []TokenInfo `json:"topTokens"`
}

type chartResponse struct {
	Candles []chartCandle `json:"candles"`
}

type chartCandle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}
