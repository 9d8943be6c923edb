package entities

import "fmt"

// Denomination is one of the four coin face values tracked by the kiosk.
type Denomination int64

const (
	DenomOne  Denomination = 1
	DenomTwo  Denomination = 2
	DenomFive Denomination = 5
	DenomTen  Denomination = 10
)

// Denominations lists the tracked face values in ascending order.
var Denominations = []Denomination{DenomOne, DenomTwo, DenomFive, DenomTen}

// CoinSnapshot is an immutable point-in-time read of the coin inventory.
type CoinSnapshot struct {
	Coin1       int64 `json:"coin1"`
	Coin2       int64 `json:"coin2"`
	Coin5       int64 `json:"coin5"`
	Coin10      int64 `json:"coin10"`
	TotalAmount int64 `json:"total_amount"`
}

// Count returns the number of coins on hand for the given denomination.
func (s CoinSnapshot) Count(d Denomination) int64 {
	switch d {
	case DenomOne:
		return s.Coin1
	case DenomTwo:
		return s.Coin2
	case DenomFive:
		return s.Coin5
	case DenomTen:
		return s.Coin10
	}
	return 0
}

// Value returns the monetary value held in the given denomination.
func (s CoinSnapshot) Value(d Denomination) int64 {
	return s.Count(d) * int64(d)
}

// ComputedTotal derives the total value from the per-denomination counts.
func (s CoinSnapshot) ComputedTotal() int64 {
	var total int64
	for _, d := range Denominations {
		total += s.Value(d)
	}
	return total
}

// Validate checks the snapshot invariants: non-negative counts and a total
// equal to the sum of per-denomination values.
func (s CoinSnapshot) Validate() error {
	for _, d := range Denominations {
		if s.Count(d) < 0 {
			return fmt.Errorf("negative count %d for denomination %d", s.Count(d), d)
		}
	}
	if s.TotalAmount != s.ComputedTotal() {
		return fmt.Errorf("total %d does not match computed total %d", s.TotalAmount, s.ComputedTotal())
	}
	return nil
}

// WithdrawalRequest is the number of coins of each denomination removed by
// the sorting device. All fields are counts, not values.
type WithdrawalRequest struct {
	Coin1  int64 `json:"coin1"`
	Coin2  int64 `json:"coin2"`
	Coin5  int64 `json:"coin5"`
	Coin10 int64 `json:"coin10"`
}

// Count returns the requested coin count for the given denomination.
func (r WithdrawalRequest) Count(d Denomination) int64 {
	switch d {
	case DenomOne:
		return r.Coin1
	case DenomTwo:
		return r.Coin2
	case DenomFive:
		return r.Coin5
	case DenomTen:
		return r.Coin10
	}
	return 0
}

// Validate rejects negative withdrawal counts.
func (r WithdrawalRequest) Validate() error {
	for _, d := range Denominations {
		if r.Count(d) < 0 {
			return fmt.Errorf("negative withdrawal count %d for denomination %d", r.Count(d), d)
		}
	}
	return nil
}

// IsEmpty reports whether the request withdraws nothing.
func (r WithdrawalRequest) IsEmpty() bool {
	return r.Coin1 == 0 && r.Coin2 == 0 && r.Coin5 == 0 && r.Coin10 == 0
}
