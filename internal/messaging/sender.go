package messaging

import (
	"fmt"
	"strings"

	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/config"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender sends outbound WhatsApp messages through the Twilio REST API.
type Sender struct {
	client *twilio.RestClient
	from   string
}

// NewSender returns nil, error when the account SID, auth token or sender
// number is missing; callers treat a nil sender as "outbound disabled".
func NewSender(cfg *config.Config) (*Sender, error) {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFrom == "" {
		return nil, fmt.Errorf("missing Twilio configuration")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})

	return &Sender{
		client: client,
		from:   cfg.TwilioFrom,
	}, nil
}

// Send delivers body to the given number and returns the provider message
// SID. The whatsapp: channel prefix is added when the caller omits it.
func (s *Sender) Send(to, body string) (string, error) {
	if !strings.HasPrefix(to, "whatsapp:") {
		to = "whatsapp:" + to
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	return sid, nil
}
