// Package email sends transactional mail through SendGrid. With no API key
// configured the service is disabled and every send is a logged no-op, so
// local development never needs SendGrid credentials.
package email

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Service sends transactional emails
type Service struct {
	client  *sendgrid.Client
	from    *mail.Email
	enabled bool
}

// NewService creates a new email service. An empty API key disables sending.
func NewService(apiKey, fromEmail, fromName string) *Service {
	if apiKey == "" {
		log.Println("⚠️  SendGrid API key not set, email sending disabled")
		return &Service{enabled: false}
	}
	return &Service{
		client:  sendgrid.NewSendClient(apiKey),
		from:    mail.NewEmail(fromName, fromEmail),
		enabled: true,
	}
}

// Enabled reports whether the service will actually send mail.
func (s *Service) Enabled() bool {
	return s.enabled
}

// SendPlanActivated notifies a user that their paid plan is now active.
func (s *Service) SendPlanActivated(ctx context.Context, toEmail, plan string) error {
	subject := fmt.Sprintf("CodeMentor %s 플랜이 활성화되었습니다", plan)
	body := fmt.Sprintf(
		"안녕하세요!\n\n%s 플랜 구독이 활성화되었습니다. 이제 더 많은 코드 리뷰를 받아보실 수 있습니다.\n\n감사합니다.\nCodeMentor 팀",
		plan,
	)
	return s.send(ctx, toEmail, subject, body)
}

// SendPlanCanceled notifies a user that their subscription has ended and
// they are back on the free plan.
func (s *Service) SendPlanCanceled(ctx context.Context, toEmail string) error {
	subject := "CodeMentor 구독이 해지되었습니다"
	body := "안녕하세요!\n\n구독이 해지되어 무료 플랜으로 전환되었습니다. 언제든지 다시 업그레이드하실 수 있습니다.\n\n감사합니다.\nCodeMentor 팀"
	return s.send(ctx, toEmail, subject, body)
}

func (s *Service) send(ctx context.Context, toEmail, subject, body string) error {
	if !s.enabled {
		log.Printf("📧 Email sending disabled, skipping %q to %s", subject, toEmail)
		return nil
	}

	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", toEmail), body, "")
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
