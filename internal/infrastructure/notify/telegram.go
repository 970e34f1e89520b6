package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/pos-api/internal/application/auth"
)

var _ auth.OTPSender = (*TelegramSender)(nil)

// TelegramSender reenvía los códigos a un chat de operadores vía Bot API.
type TelegramSender struct {
	baseURL    string
	botToken   string
	chatID     string
	httpClient *http.Client
}

// NewTelegramSender construye el adaptador. baseURL suele ser "https://api.telegram.org".
func NewTelegramSender(baseURL, botToken, chatID string, timeout time.Duration) *TelegramSender {
	return &TelegramSender{
		baseURL:    strings.TrimRight(baseURL, "/"),
		botToken:   botToken,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send publica el texto en el chat configurado, precedido del teléfono destino.
func (s *TelegramSender) Send(ctx context.Context, phone, text string) error {
	payload, err := json.Marshal(telegramMessage{ChatID: s.chatID, Text: phone + "\n" + text})
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// El error de url incluye el token del bot; no se propaga.
		return errors.New("telegram: fallo de red al llamar sendMessage")
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var out telegramResponse
	_ = json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK || !out.OK {
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, out.Description)
	}
	return nil
}
