package notifications

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/you/careauth/domain"
)

// messageCreator is the subset of the Twilio API used to send messages
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioServiceImpl implements domain.NotificationService
type TwilioServiceImpl struct {
	api        messageCreator
	fromNumber string
	log        *logrus.Logger
}

// NewTwilioService creates a new Twilio notification service.
// With no sender number configured, messages are logged instead of sent.
func NewTwilioService(accountSID, authToken, fromNumber string, log *logrus.Logger) domain.NotificationService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioServiceImpl{
		api:        client.Api,
		fromNumber: fromNumber,
		log:        log,
	}
}

// Simulated reports whether messages are only logged
func (t *TwilioServiceImpl) Simulated() bool {
	return t.fromNumber == ""
}

// SendSMS implements domain.NotificationService
func (t *TwilioServiceImpl) SendSMS(to, message string) error {
	if t.Simulated() {
		t.log.WithFields(logrus.Fields{"to": to, "body": message}).Info("simulated sms")
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(message)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	entry := t.log.WithField("to", to)
	if resp != nil && resp.Sid != nil {
		entry = entry.WithField("sid", *resp.Sid)
	}
	entry.Debug("sms sent")
	return nil
}
