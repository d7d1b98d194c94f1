// Package email sends transactional mail through the EmailJS REST API.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/config"
	"github.com/01moynul/a2z-storefront/internal/models"
)

// VerificationExpiryMinutes is shown to users in the verification email.
const VerificationExpiryMinutes = 10

// Sender delivers one templated message.
type Sender interface {
	Send(ctx context.Context, templateID string, params map[string]string) error
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// EmailJS posts to the EmailJS send endpoint.
type EmailJS struct {
	httpClient *resty.Client
	cfg        config.EmailJSConfig
}

func NewEmailJS(cfg config.EmailJSConfig) *EmailJS {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")
	return &EmailJS{httpClient: client, cfg: cfg}
}

func (e *EmailJS) Send(ctx context.Context, templateID string, params map[string]string) error {
	if templateID == "" {
		return fmt.Errorf("emailjs: no template configured")
	}
	resp, err := e.httpClient.R().
		SetContext(ctx).
		SetBody(sendRequest{
			ServiceID:      e.cfg.ServiceID,
			TemplateID:     templateID,
			UserID:         e.cfg.PublicKey,
			AccessToken:    e.cfg.PrivateKey,
			TemplateParams: params,
		}).
		Post(e.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("emailjs: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("emailjs: %s: %s", resp.Status(), resp.String())
	}
	return nil
}

// NoopSender is used when email is not configured.
type NoopSender struct {
	Logger *zap.Logger
}

func (n NoopSender) Send(_ context.Context, templateID string, params map[string]string) error {
	n.Logger.Debug("email disabled, message dropped", zap.String("template", templateID), zap.Int("params", len(params)))
	return nil
}

// Mailer builds the storefront's messages on top of a Sender.
type Mailer struct {
	sender Sender
	cfg    config.EmailJSConfig
}

func NewMailer(sender Sender, cfg config.EmailJSConfig) *Mailer {
	return &Mailer{sender: sender, cfg: cfg}
}

// OrderConfirmation mails the order summary to the customer.
func (m *Mailer) OrderConfirmation(ctx context.Context, o *models.Order) error {
	s := o.Summarize()
	return m.sender.Send(ctx, m.cfg.OrderTemplateID, map[string]string{
		"reply_to":         s.CustomerEmail,
		"order_id":         s.OrderID,
		"customer_name":    s.CustomerName,
		"customer_email":   s.CustomerEmail,
		"customer_phone":   s.CustomerPhone,
		"items":            s.Items,
		"total":            s.Total,
		"payment_method":   s.PaymentMethod,
		"shipping_address": s.ShippingAddress,
		"order_date":       s.OrderDate,
		"business_email":   m.cfg.BusinessEmail,
	})
}

// VerificationCode mails a sign-up verification code.
func (m *Mailer) VerificationCode(ctx context.Context, to, code string) error {
	return m.sender.Send(ctx, m.cfg.VerificationTemplate, map[string]string{
		"to_email":          to,
		"verification_code": code,
		"expiry_minutes":    fmt.Sprint(VerificationExpiryMinutes),
	})
}

// PasswordReset mails a one-time reset token.
func (m *Mailer) PasswordReset(ctx context.Context, to, token string) error {
	return m.sender.Send(ctx, m.cfg.ResetTemplateID, map[string]string{
		"to_email":    to,
		"reset_token": token,
	})
}
