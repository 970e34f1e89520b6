// Package notify entrega los códigos OTP por SMS (Eskiz) y Telegram.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/pos-api/internal/application/auth"
)

var _ auth.OTPSender = (*EskizSender)(nil)

var errEskizUnauthorized = errors.New("eskiz: token rechazado")

// EskizSender envía SMS por la API REST de Eskiz. El token bearer se obtiene con email y
// contraseña y se reutiliza hasta que la API lo rechace.
type EskizSender struct {
	baseURL    string
	email      string
	password   string
	from       string
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

// NewEskizSender construye el adaptador. baseURL suele ser "https://notify.eskiz.uz/api".
func NewEskizSender(baseURL, email, password, from string, timeout time.Duration) *EskizSender {
	return &EskizSender{
		baseURL:    strings.TrimRight(baseURL, "/"),
		email:      email,
		password:   password,
		from:       from,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type eskizLoginResponse struct {
	Message string `json:"message"`
	Data    struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Send envía text al teléfono. Ante un 401 renueva el token y reintenta una vez.
func (s *EskizSender) Send(ctx context.Context, phone, text string) error {
	token, err := s.currentToken(ctx)
	if err != nil {
		return err
	}
	err = s.send(ctx, token, phone, text)
	if !errors.Is(err, errEskizUnauthorized) {
		return err
	}
	s.mu.Lock()
	if s.token == token {
		s.token = ""
	}
	s.mu.Unlock()
	if token, err = s.currentToken(ctx); err != nil {
		return err
	}
	return s.send(ctx, token, phone, text)
}

func (s *EskizSender) currentToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}
	token, err := s.login(ctx)
	if err != nil {
		return "", err
	}
	s.token = token
	return token, nil
}

func (s *EskizSender) login(ctx context.Context) (string, error) {
	form := url.Values{"email": {s.email}, "password": {s.password}}
	resp, err := s.postForm(ctx, "/auth/login", "", form)
	if err != nil {
		return "", fmt.Errorf("eskiz login: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("eskiz login: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out eskizLoginResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("eskiz login: respuesta inválida: %w", err)
	}
	if out.Data.Token == "" {
		return "", errors.New("eskiz login: respuesta sin token")
	}
	return out.Data.Token, nil
}

func (s *EskizSender) send(ctx context.Context, token, phone, text string) error {
	form := url.Values{
		"mobile_phone": {strings.TrimPrefix(phone, "+")},
		"message":      {text},
		"from":         {s.from},
	}
	resp, err := s.postForm(ctx, "/message/sms/send", token, form)
	if err != nil {
		return fmt.Errorf("eskiz send: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errEskizUnauthorized
	case resp.StatusCode >= 300:
		return fmt.Errorf("eskiz send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (s *EskizSender) postForm(ctx context.Context, path, token string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.httpClient.Do(req)
}
