package notifier

import (
	"context"
	"time"
)

// Alert reports that the price moved across a Dual Thrust line
type Alert struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Price     float64   `json:"price"`
	BuyLine   float64   `json:"buy_line"`
	SellLine  float64   `json:"sell_line"`
	Time      time.Time `json:"time"`
}

// Notifier delivers alerts to an outside channel
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	Send(ctx context.Context, a Alert) error
}
