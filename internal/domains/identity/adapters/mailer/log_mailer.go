package mailer

import (
	"context"
	"log/slog"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
)

var _ ports.Mailer = (*LogMailer)(nil)

// LogMailer writes codes to the log instead of delivering mail. Development only.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerificationCode(ctx context.Context, email string, purpose domain.Purpose, code string) error {
	m.logger.LogAttrs(ctx, slog.LevelInfo, "verification code",
		slog.String("email", email),
		slog.String("purpose", string(purpose)),
		slog.String("code", code),
	)
	return nil
}
