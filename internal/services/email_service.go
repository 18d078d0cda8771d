package services

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendVerificationOTP(email, name, flow, otp string) error
	SendPasswordResetToken(email, name, token string) error
}

type emailService struct {
	dialer  *gomail.Dialer
	from    string
	support string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, supportEmail string) EmailService {
	if supportEmail == "" {
		supportEmail = fromEmail
	}
	return &emailService{
		dialer:  gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:    fromEmail,
		support: supportEmail,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *emailService) SendVerificationOTP(email, name, flow, otp string) error {
	flowCap := capitalize(flow)
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", fmt.Sprintf("Your %s OTP Request", flowCap))
	m.SetBody("text/html", s.messageBody(
		fmt.Sprintf("%s Verification", flowCap),
		fmt.Sprintf("Thank you for %s to IconBuzzer. Please verify using the below OTP:", flow),
		name, otp,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetToken(email, name, token string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Reset Your Password")
	m.SetBody("text/html", s.messageBody(
		"Password Reset Request",
		"We received a request to reset your password. Use the TOKEN below to reset your password:",
		name, token,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// messageBody is the shared HTML template of all outbound mail.
func (s *emailService) messageBody(header, description, name, code string) string {
	if name == "" {
		name = "User"
	}
	return fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9f9f9;">
		<div style="background-color: #ffffff; padding: 30px; border-radius: 8px;">
			<h2 style="color: #333333; text-align: center;">%s</h2>
			<p style="color: #555555; font-size: 14px;">Hello %s,</p>
			<p style="color: #555555; font-size: 14px;">%s</p>
			<div style="text-align: center; margin: 30px 0;">
				<span style="display: inline-block; font-weight: bold; color: #007bff; background-color: #e7f3ff; padding: 5px 10px; border-radius: 10px; border: 1px solid #007bff;">%s</span>
			</div>
			<p style="color: #9aa4b2; font-size: 13px; text-align: center;">This code expires in <strong>10 minutes</strong>. For your safety, do not share it with anyone.</p>
			<p style="font-size: 13px; color: #8da0b3; text-align: center;">Need help? Contact us at <a href="mailto:%s">%s</a></p>
			<p style="font-size: 13px; color: #6b7280; text-align: center;">If you did not request this, please ignore this email.</p>
		</div>
	</div>
	`, header, strings.ToUpper(name), description, code, s.support, s.support)
}
