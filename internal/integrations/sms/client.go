package sms

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Client собирает тексты уведомлений и передает их Sender
type Client struct {
	sender Sender
	log    Logger
}

// NewClient создает новый экземпляр SMS-клиента
func NewClient(sender Sender, log Logger) *Client {
	return &Client{
		sender: sender,
		log:    log,
	}
}

// SendBookingConfirmation отправляет подтверждение записи
func (c *Client) SendBookingConfirmation(ctx context.Context, phone string, details domain.MessageDetails) error {
	return c.send(ctx, phone, BookingConfirmationText(details), "confirmation")
}

// SendReminder отправляет напоминание о записи
func (c *Client) SendReminder(ctx context.Context, phone string, details domain.MessageDetails) error {
	return c.send(ctx, phone, ReminderText(details), "reminder")
}

// Deliver отправляет уведомление из outbox в зависимости от его типа
func (c *Client) Deliver(ctx context.Context, n *domain.Notification) error {
	switch n.Kind {
	case domain.NotificationBookingConfirmation:
		return c.SendBookingConfirmation(ctx, n.Phone, n.Payload)
	case domain.NotificationReminder:
		return c.SendReminder(ctx, n.Phone, n.Payload)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, n.Kind)
	}
}

func (c *Client) send(ctx context.Context, phone, body, what string) error {
	if phone == "" {
		return ErrInvalidRecipient
	}

	if err := c.sender.Send(ctx, phone, body); err != nil {
		c.log.Error("Failed to send %s to %s via %s: %v", what, phone, c.sender.ProviderID(), err)
		return err
	}

	c.log.Info("Sent %s to %s via %s", what, phone, c.sender.ProviderID())
	return nil
}
