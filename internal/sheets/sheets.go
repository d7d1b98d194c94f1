// Package sheets appends rows to the business spreadsheet through its Apps
// Script web app. Each row is a JSON object whose "type" picks the sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/01moynul/a2z-storefront/internal/models"
)

var ErrDisabled = errors.New("sheets logging is not configured")

// Contact is a message sent through a store's contact form.
type Contact struct {
	BusinessID string `json:"businessId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
}

type Logger struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
	timeout    time.Duration
	wg         sync.WaitGroup
}

// New returns a Logger posting to webAppURL. An empty URL disables it.
func New(webAppURL string, logger *zap.Logger) *Logger {
	client := resty.New().
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json")
	return &Logger{httpClient: client, url: webAppURL, logger: logger, timeout: 15 * time.Second}
}

func (l *Logger) Enabled() bool { return l.url != "" }

func (l *Logger) LogOrder(ctx context.Context, s models.OrderSummary) error {
	return l.post(ctx, map[string]any{
		"type":            "order",
		"orderId":         s.OrderID,
		"customerName":    s.CustomerName,
		"customerEmail":   s.CustomerEmail,
		"customerPhone":   s.CustomerPhone,
		"items":           s.Items,
		"total":           s.Total,
		"paymentMethod":   s.PaymentMethod,
		"shippingAddress": s.ShippingAddress,
		"orderDate":       s.OrderDate,
	})
}

func (l *Logger) LogUser(ctx context.Context, u *models.User) error {
	return l.post(ctx, map[string]any{
		"type":   "user",
		"userId": u.ID,
		"name":   u.Name,
		"email":  u.Email,
	})
}

func (l *Logger) LogContact(ctx context.Context, c Contact) error {
	return l.post(ctx, map[string]any{
		"type":       "contact",
		"businessId": c.BusinessID,
		"name":       c.Name,
		"email":      c.Email,
		"phone":      c.Phone,
		"subject":    c.Subject,
		"message":    c.Message,
	})
}

func (l *Logger) post(ctx context.Context, row map[string]any) error {
	if !l.Enabled() {
		return ErrDisabled
	}
	row["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	resp, err := l.httpClient.R().SetContext(ctx).SetBody(row).Post(l.url)
	if err != nil {
		return fmt.Errorf("sheets: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sheets: %s", resp.Status())
	}
	return nil
}

// Async runs fn in the background with its own timeout and logs a failure.
// The caller never waits for it.
func (l *Logger) Async(what string, fn func(ctx context.Context) error) {
	if !l.Enabled() {
		return
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			l.logger.Warn("sheets log failed", zap.String("row", what), zap.Error(err))
		}
	}()
}

// Wait blocks until background posts have finished. Used on shutdown.
func (l *Logger) Wait() { l.wg.Wait() }
