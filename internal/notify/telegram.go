package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	sendTimeout    = 10 * time.Second

	// Telegram allows roughly one message per second per chat; a small
	// burst absorbs the occasional alert cluster.
	sendRate  = rate.Limit(1)
	sendBurst = 3
)

// TelegramSender delivers messages to a Telegram chat via the Bot API,
// rendered with MarkdownV2 formatting. Sends are rate limited to stay inside
// Telegram's per-chat quota.
type TelegramSender struct {
	token   string
	chatID  int64
	apiBase string // overridable in tests
	client  *http.Client
	limiter *rate.Limiter
}

// NewTelegram creates a sender for the given bot token and chat.
func NewTelegram(token string, chatID int64) *TelegramSender {
	return &TelegramSender{
		token:   token,
		chatID:  chatID,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: sendTimeout},
		limiter: rate.NewLimiter(sendRate, sendBurst),
	}
}

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Send posts text to the chat. It blocks on the rate limiter first, so a
// burst of alerts is smeared out rather than rejected by Telegram.
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram: rate limit wait: %w", err)
	}

	payload := struct {
		ChatID    int64  `json:"chat_id"`
		Text      string `json:"text"`
		ParseMode string `json:"parse_mode"`
	}{
		ChatID:    s.chatID,
		Text:      text,
		ParseMode: "MarkdownV2",
	}

	var resp apiResponse
	if err := s.call(ctx, "sendMessage", payload, &resp); err != nil {
		return err
	}
	return nil
}

// Verify calls getMe to confirm the bot token works. Intended to run once at
// startup; a bad token should be fatal before any task is spawned.
func (s *TelegramSender) Verify(ctx context.Context) error {
	var resp apiResponse
	if err := s.call(ctx, "getMe", struct{}{}, &resp); err != nil {
		return err
	}

	var me struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(resp.Result, &me); err == nil && me.Username != "" {
		slog.Info("telegram: bot connected", "username", me.Username)
	}
	return nil
}

func (s *TelegramSender) call(ctx context.Context, method string, payload any, out *apiResponse) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal %s: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", s.apiBase, s.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	// The Bot API reports failures in the JSON body; prefer its
	// description over the bare HTTP status when present.
	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr == nil && !out.OK && out.Description != "" {
		return fmt.Errorf("telegram: %s failed: %s", method, out.Description)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("telegram: %s returned %s", method, resp.Status)
	}
	return nil
}
