package domain

import "time"

// TokenSnapshot describes a token at fetch time.
// Built once per fetch batch and never mutated afterwards.
// Corresponds to token_snapshots table in PostgreSQL.
type TokenSnapshot struct {
	ID          string    `json:"id"` // mint address
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	MarketCap   float64   `json:"mcap"`
	Liquidity   float64   `json:"liquidity"`
	HolderCount int       `json:"holderCount"`
	Price       float64   `json:"price"`
	Volume24h   float64   `json:"volume24h"`
	CreatedAt   time.Time `json:"createdAt"`
	FetchedAt   time.Time `json:"fetchedAt"`
	MinutesAgo  float64   `json:"minutesAgo"` // wall-clock age at FetchedAt
	IsGraduated bool      `json:"isGraduated"`
	IsVerified  bool      `json:"isVerified"`
	BatchID     string    `json:"batchId,omitempty"`
}

// AgeMinutes returns the token age clamped at zero.
func (t TokenSnapshot) AgeMinutes() float64 {
	if t.MinutesAgo < 0 {
		return 0
	}
	return t.MinutesAgo
}
