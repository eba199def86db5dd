package notifxses

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
)

const ProviderName = "ses"

// API is the subset of the SES client the provider needs.
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESProvider implements notifx.EmailSender using AWS SES.
type SESProvider struct {
	client API
}

// NewSESProvider creates a new SES email provider.
func NewSESProvider(client API) *SESProvider {
	return &SESProvider{client: client}
}

// SendEmail sends a single email via SES.
func (p *SESProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage) (*notifx.Receipt, error) {
	body := &types.Body{}
	if msg.TextBody != "" {
		body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String("UTF-8")}
	}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")}
	}

	input := &ses.SendEmailInput{
		Source: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	}
	if len(msg.CC) > 0 {
		input.Destination.CcAddresses = msg.CC
	}
	if len(msg.BCC) > 0 {
		input.Destination.BccAddresses = msg.BCC
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	out, err := p.client.SendEmail(ctx, input)
	if err != nil {
		return nil, toNotifxError(err)
	}

	messageID := aws.ToString(out.MessageId)
	raw, _ := json.Marshal(map[string]string{"id": messageID})

	return &notifx.Receipt{
		MessageID: messageID,
		Provider:  ProviderName,
		Raw:       raw,
	}, nil
}

// toNotifxError maps an SES failure onto the shared rejection shape when AWS
// answered with an HTTP status, and onto a transport failure otherwise.
func toNotifxError(err error) error {
	var respErr *awshttp.ResponseError
	if !errors.As(err, &respErr) {
		return notifx.SendFailedError(ProviderName, err)
	}

	var message, code string
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		message = apiErr.ErrorMessage()
		code = apiErr.ErrorCode()
	}

	raw, _ := json.Marshal(map[string]string{"code": code, "message": message})
	e := notifx.RejectedError(ProviderName, respErr.HTTPStatusCode(), message, raw)
	e.Err = err
	return e
}
