package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/infrastructure/notify"
	"github.com/jhoicas/pos-api/pkg/config"
)

// ──────────────────────────────────────────────────────────────────────────────
// Eskiz
// ──────────────────────────────────────────────────────────────────────────────

func TestEskizSender_LoginThenSend(t *testing.T) {
	var logins int32
	var gotPhone, gotMessage, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		switch r.URL.Path {
		case "/auth/login":
			atomic.AddInt32(&logins, 1)
			assert.Equal(t, "ops@example.uz", r.PostForm.Get("email"))
			_, _ = w.Write([]byte(`{"message":"token_generated","data":{"token":"tok-1"}}`))
		case "/message/sms/send":
			gotAuth = r.Header.Get("Authorization")
			gotPhone = r.PostForm.Get("mobile_phone")
			gotMessage = r.PostForm.Get("message")
			_, _ = w.Write([]byte(`{"status":"waiting"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := notify.NewEskizSender(srv.URL, "ops@example.uz", "secret", "4546", time.Second)
	require.NoError(t, s.Send(context.Background(), "+998901234567", "Código: 123456"))
	require.NoError(t, s.Send(context.Background(), "+998901234567", "Código: 654321"))

	assert.EqualValues(t, 1, atomic.LoadInt32(&logins), "el token se reutiliza")
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "998901234567", gotPhone)
	assert.Equal(t, "Código: 654321", gotMessage)
}

func TestEskizSender_RenewsExpiredToken(t *testing.T) {
	var logins int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			n := atomic.AddInt32(&logins, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"token": map[int32]string{1: "old", 2: "new"}[n]}})
		case "/message/sms/send":
			if r.Header.Get("Authorization") != "Bearer new" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	s := notify.NewEskizSender(srv.URL, "a", "b", "4546", time.Second)
	require.NoError(t, s.Send(context.Background(), "998901234567", "x"))
	assert.EqualValues(t, 2, atomic.LoadInt32(&logins))
}

func TestEskizSender_LoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
	}))
	defer srv.Close()

	s := notify.NewEskizSender(srv.URL, "a", "b", "4546", time.Second)
	err := s.Send(context.Background(), "998901234567", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

// ──────────────────────────────────────────────────────────────────────────────
// Telegram
// ──────────────────────────────────────────────────────────────────────────────

func TestTelegramSender_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botBOT:TOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := notify.NewTelegramSender(srv.URL, "BOT:TOKEN", "42", time.Second)
	require.NoError(t, s.Send(context.Background(), "+998901234567", "Código: 1"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "+998901234567\nCódigo: 1", got["text"])
}

func TestTelegramSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	s := notify.NewTelegramSender(srv.URL, "t", "1", time.Second)
	err := s.Send(context.Background(), "1", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

// ──────────────────────────────────────────────────────────────────────────────
// MultiSender
// ──────────────────────────────────────────────────────────────────────────────

type fakeSender struct {
	err   error
	calls int
}

func (f *fakeSender) Send(context.Context, string, string) error {
	f.calls++
	return f.err
}

func TestMultiSender_OneChannelIsEnough(t *testing.T) {
	bad := &fakeSender{err: errors.New("down")}
	good := &fakeSender{}
	m := notify.NewMultiSender(zerolog.Nop(),
		notify.Channel{Name: "sms", Sender: bad},
		notify.Channel{Name: "tg", Sender: good},
	)
	require.NoError(t, m.Send(context.Background(), "1", "x"))
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, good.calls)
}

func TestMultiSender_FailuresAreSwallowed(t *testing.T) {
	sms := &fakeSender{err: errors.New("sms down")}
	tg := &fakeSender{err: errors.New("tg down")}
	m := notify.NewMultiSender(zerolog.Nop(),
		notify.Channel{Name: "sms", Sender: sms},
		notify.Channel{Name: "tg", Sender: tg},
	)
	assert.NoError(t, m.Send(context.Background(), "1", "x"))
	assert.Equal(t, 1, sms.calls)
	assert.Equal(t, 1, tg.calls)
}

func TestNewSenderFromConfig(t *testing.T) {
	s := notify.NewSenderFromConfig(config.NotifyConfig{}, zerolog.Nop())
	assert.IsType(t, &notify.LogSender{}, s)
	assert.NoError(t, s.Send(context.Background(), "1", "x"))

	s = notify.NewSenderFromConfig(config.NotifyConfig{TelegramBotToken: "t", TelegramChatID: "1", Timeout: time.Second}, zerolog.Nop())
	assert.IsType(t, &notify.MultiSender{}, s)
}
