package service

import (
	"context"
	"fmt"
	"strings"

	"edufolio/internal/entity"

	"github.com/resend/resend-go"
	"github.com/sirupsen/logrus"
)

type ResendEmailSender struct {
	Client *resend.Client
	From   string
}

func NewResendEmailSender(apiKey string, from string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return nil
	}
	return &ResendEmailSender{
		Client: resend.NewClient(apiKey),
		From:   from,
	}
}

func (s *ResendEmailSender) SendVerificationCode(ctx context.Context, to string, code string, purpose entity.VerificationPurpose) error {
	subject, intro := verificationCopy(purpose)
	params := &resend.SendEmailRequest{
		From:    s.From,
		To:      []string{to},
		Subject: subject,
		Html:    fmt.Sprintf("<p>%s</p><p><strong>%s</strong></p><p>The code expires in 15 minutes.</p>", intro, code),
		Text:    fmt.Sprintf("%s %s (expires in 15 minutes)", intro, code),
	}
	if _, err := s.Client.Emails.Send(params); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}
	return nil
}

func verificationCopy(purpose entity.VerificationPurpose) (string, string) {
	switch purpose {
	case entity.PurposeReset:
		return "Password reset code", "Your password reset code is:"
	case entity.PurposeProfile:
		return "Confirm your new email", "Your email change confirmation code is:"
	default:
		return "Registration code", "Your registration code is:"
	}
}

// LogEmailSender stands in when no mail provider is configured. Codes are
// still issued, delivery is just a log line.
type LogEmailSender struct {
	Logger *logrus.Logger
}

func (s LogEmailSender) SendVerificationCode(ctx context.Context, to string, code string, purpose entity.VerificationPurpose) error {
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"to":      to,
			"purpose": purpose,
		}).Warn("mail sender not configured, verification code not delivered")
	}
	return nil
}
