package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type recordingSender struct {
	to   []string
	body []string
	err  error
}

func (s *recordingSender) Send(_ context.Context, to, body string) error {
	s.to = append(s.to, to)
	s.body = append(s.body, body)
	return s.err
}

func (s *recordingSender) ProviderID() string { return "test" }

var details = domain.MessageDetails{ServiceName: "Haircut", Date: "2024-06-10", Time: "10:00"}

func TestClient_Deliver(t *testing.T) {
	sender := &recordingSender{}
	client := NewClient(sender, nopLogger{})

	require.NoError(t, client.Deliver(context.Background(), &domain.Notification{
		Kind: domain.NotificationBookingConfirmation, Phone: "+1", Payload: details,
	}))
	require.NoError(t, client.Deliver(context.Background(), &domain.Notification{
		Kind: domain.NotificationReminder, Phone: "+2", Payload: details,
	}))

	assert.Equal(t, []string{"+1", "+2"}, sender.to)
	assert.Equal(t, BookingConfirmationText(details), sender.body[0])
	assert.Equal(t, ReminderText(details), sender.body[1])
	assert.Contains(t, sender.body[0], "Haircut")
	assert.Contains(t, sender.body[1], "10:00")
}

func TestClient_Errors(t *testing.T) {
	sender := &recordingSender{err: ErrSendFailed}
	client := NewClient(sender, nopLogger{})

	assert.ErrorIs(t, client.SendReminder(context.Background(), "+1", details), ErrSendFailed)
	assert.ErrorIs(t, client.SendReminder(context.Background(), "", details), ErrInvalidRecipient)
	assert.ErrorIs(t, client.Deliver(context.Background(), &domain.Notification{Kind: "fax", Phone: "+1"}), ErrUnknownKind)
}

type fakeCreator struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioSender_Send(t *testing.T) {
	creator := &fakeCreator{}
	sender := &TwilioSender{api: creator, messagingServiceSID: "MG1", log: nopLogger{}}

	require.NoError(t, sender.Send(context.Background(), "+15550001111", "hello"))

	require.NotNil(t, creator.params)
	assert.Equal(t, "+15550001111", *creator.params.To)
	assert.Equal(t, "MG1", *creator.params.MessagingServiceSid)
	assert.Equal(t, "hello", *creator.params.Body)
}

func TestTwilioSender_Failure(t *testing.T) {
	sender := &TwilioSender{api: &fakeCreator{err: errors.New("401")}, messagingServiceSID: "MG1", log: nopLogger{}}

	assert.ErrorIs(t, sender.Send(context.Background(), "+1", "x"), ErrSendFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.Send(ctx, "+1", "x"), ErrSendFailed)
}

func TestNoopSender(t *testing.T) {
	s := NewNoopSender(nopLogger{})
	assert.NoError(t, s.Send(context.Background(), "+1", "x"))
	assert.Equal(t, "noop", s.ProviderID())
}
