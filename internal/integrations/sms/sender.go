package sms

import (
	"context"
	"fmt"

	twilio "github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator подмножество twilioApi.ApiService, используемое отправителем
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender отправляет SMS через Twilio Messaging Service
type TwilioSender struct {
	api                 messageCreator
	messagingServiceSID string
	log                 Logger
}

// NewTwilioSender создает отправителя с учетными данными аккаунта Twilio
func NewTwilioSender(accountSID, authToken, messagingServiceSID string, log Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{
		api:                 client.Api,
		messagingServiceSID: messagingServiceSID,
		log:                 log,
	}
}

func (s *TwilioSender) ProviderID() string {
	return "twilio"
}

// Send отправляет сообщение; SDK Twilio не принимает context, поэтому проверяем его до вызова
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetMessagingServiceSid(s.messagingServiceSID)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("%w: twilio: %v", ErrSendFailed, err)
	}

	if resp != nil && resp.Sid != nil {
		s.log.Info("SMS sent via twilio: to=%s sid=%s", to, *resp.Sid)
	}
	return nil
}

// NoopSender только логирует сообщение (провайдер не настроен)
type NoopSender struct {
	log Logger
}

func NewNoopSender(log Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) ProviderID() string {
	return "noop"
}

func (s *NoopSender) Send(_ context.Context, to, body string) error {
	s.log.Info("SMS provider not configured, would send to=%s: %q", to, body)
	return nil
}
