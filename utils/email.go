// utils/email.go
package utils

import (
	"context"
	"fmt"
	"strings"

	"agri-market/models"

	"github.com/keighl/postmark"
	"github.com/rs/zerolog"
)

// EmailService handles sending emails using Postmark
type EmailService struct {
	client *postmark.Client
	sender string
}

// NewEmailService returns nil when no API token is configured; a nil
// *EmailService sends nothing.
func NewEmailService(apiToken, sender string) *EmailService {
	if apiToken == "" {
		return nil
	}
	return &EmailService{
		client: postmark.NewClient(apiToken, ""),
		sender: sender,
	}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if es == nil {
		return nil
	}
	_, err := es.client.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// OrderConfirmationBody renders the confirmation mail for order.
func OrderConfirmationBody(name string, order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<strong>Dear %s,</strong><br><br>", name)
	fmt.Fprintf(&b, "Thank you for your purchase! Your order (ID: %s) has been placed successfully.<br><br>", order.ID.Hex())
	fmt.Fprintf(&b, "Total Amount: <strong>&#8377;%.2f</strong><br>", order.TotalAmount)
	fmt.Fprintf(&b, "Payment Method: <strong>%s</strong><br>", order.PaymentMethod)
	fmt.Fprintf(&b, "Shipping to: %s<br><br>", order.ShippingAddress)
	b.WriteString("Thank you for supporting local farmers!")
	return b.String()
}

// OrderPlaced mails an order confirmation to the user in the background.
// Users without an email address are skipped.
func (es *EmailService) OrderPlaced(ctx context.Context, user *models.User, order *models.Order) {
	if es == nil || user.Email == "" {
		return
	}
	logger := zerolog.Ctx(ctx).With().Str("order_id", order.ID.Hex()).Logger()
	name := user.Name
	if name == "" {
		name = user.Username
	}
	body := OrderConfirmationBody(name, order)
	go func(email string) {
		if err := es.SendEmail(email, "Order Confirmation", body); err != nil {
			logger.Error().Err(err).Str("email", email).Msg("failed to send order confirmation")
			return
		}
		logger.Info().Msg("order confirmation sent")
	}(user.Email)
}
