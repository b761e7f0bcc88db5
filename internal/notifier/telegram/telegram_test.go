package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/thrust/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegram_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Telegram)(nil)
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New("", "chat")
	assert.Error(t, err)

	_, err = New("token", "")
	assert.Error(t, err)
}

func TestTelegram_Send(t *testing.T) {
	var (
		path     string
		received map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tg, err := New("test-token", "test-chat")
	require.NoError(t, err)
	tg.apiURL = server.URL

	err = tg.Send(context.Background(), notifier.Alert{
		Symbol:    "ETHUSDT",
		Timeframe: "4h",
		From:      "inside",
		To:        "below",
		Price:     2999.5,
		BuyLine:   3100,
		SellLine:  3000.25,
		Time:      time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "/bottest-token/sendMessage", path)
	assert.Equal(t, "test-chat", received["chat_id"])
	text, _ := received["text"].(string)
	assert.True(t, strings.HasPrefix(text, "📉 *ETHUSDT* 4h: inside -> below"))
	assert.Contains(t, text, "2999.5000")
	assert.Contains(t, text, "3000.2500")
	assert.Contains(t, text, "2024-03-01 08:00 UTC")
}

func TestTelegram_Send_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	tg, err := New("token", "chat")
	require.NoError(t, err)
	tg.apiURL = server.URL

	err = tg.Send(context.Background(), notifier.Alert{Symbol: "BTCUSDT"})
	assert.ErrorContains(t, err, "status 400")
}
