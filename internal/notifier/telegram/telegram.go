package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/thrust/internal/notifier"
	"github.com/shopspring/decimal"
)

const defaultAPIURL = "https://api.telegram.org"

// Telegram sends alerts through the Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) (*Telegram, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram: chat_id is required")
	}
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiURL:   defaultAPIURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Send(ctx context.Context, a notifier.Alert) error {
	return t.sendMessage(ctx, format(a))
}

func format(a notifier.Alert) string {
	var sb strings.Builder

	emoji := "➡️"
	switch a.To {
	case "above":
		emoji = "📈"
	case "below":
		emoji = "📉"
	}

	sb.WriteString(fmt.Sprintf("%s *%s* %s: %s -> %s\n", emoji, a.Symbol, a.Timeframe, a.From, a.To))
	sb.WriteString(fmt.Sprintf("💰 Price: %s\n", fixed(a.Price)))
	sb.WriteString(fmt.Sprintf("Buy line: %s\n", fixed(a.BuyLine)))
	sb.WriteString(fmt.Sprintf("Sell line: %s\n", fixed(a.SellLine)))
	sb.WriteString(fmt.Sprintf("⏰ Time: %s UTC", a.Time.UTC().Format("2006-01-02 15:04")))

	return sb.String()
}

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
