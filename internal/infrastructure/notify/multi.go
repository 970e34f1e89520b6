package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-api/internal/application/auth"
	"github.com/jhoicas/pos-api/pkg/config"
)

var (
	_ auth.OTPSender = (*MultiSender)(nil)
	_ auth.OTPSender = (*LogSender)(nil)
)

// Channel un canal con nombre para los logs.
type Channel struct {
	Name   string
	Sender auth.OTPSender
}

// MultiSender entrega por todos los canales. Los fallos se registran y no se propagan:
// el código queda guardado y el usuario puede pedir otro.
type MultiSender struct {
	channels []Channel
	log      zerolog.Logger
}

// NewMultiSender construye el sender compuesto.
func NewMultiSender(log zerolog.Logger, channels ...Channel) *MultiSender {
	return &MultiSender{channels: channels, log: log}
}

// Send intenta cada canal en orden y nunca devuelve error.
func (m *MultiSender) Send(ctx context.Context, phone, text string) error {
	delivered := 0
	for _, ch := range m.channels {
		if err := ch.Sender.Send(ctx, phone, text); err != nil {
			m.log.Warn().Err(err).Str("channel", ch.Name).Msg("no se pudo entregar el OTP")
			continue
		}
		delivered++
		m.log.Debug().Str("channel", ch.Name).Msg("otp entregado")
	}
	if delivered == 0 {
		m.log.Error().Int("channels", len(m.channels)).Msg("otp sin entregar por ningún canal")
	}
	return nil
}

// LogSender escribe el código en el log. Solo para desarrollo, cuando no hay canales configurados.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender construye el sender de desarrollo.
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send registra el mensaje y nunca falla.
func (s *LogSender) Send(_ context.Context, phone, text string) error {
	s.log.Warn().Str("phone", phone).Str("text", text).Msg("otp sin canal de entrega")
	return nil
}

// NewSenderFromConfig arma los canales con credenciales. Sin ninguno devuelve un LogSender.
func NewSenderFromConfig(cfg config.NotifyConfig, log zerolog.Logger) auth.OTPSender {
	var channels []Channel
	if cfg.EskizEmail != "" && cfg.EskizPassword != "" {
		channels = append(channels, Channel{
			Name:   "eskiz",
			Sender: NewEskizSender(cfg.EskizBaseURL, cfg.EskizEmail, cfg.EskizPassword, cfg.EskizFrom, cfg.Timeout),
		})
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		channels = append(channels, Channel{
			Name:   "telegram",
			Sender: NewTelegramSender(cfg.TelegramBaseURL, cfg.TelegramBotToken, cfg.TelegramChatID, cfg.Timeout),
		})
	}
	if len(channels) == 0 {
		return NewLogSender(log)
	}
	return NewMultiSender(log, channels...)
}
