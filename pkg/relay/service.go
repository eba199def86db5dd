package relay

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/mailrelay/pkg/activity"
	"github.com/Abraxas-365/mailrelay/pkg/config"
	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/iam"
	"github.com/Abraxas-365/mailrelay/pkg/kernel"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/Abraxas-365/mailrelay/pkg/profile"
)

// Service relays emails. Each Send makes at most one provider call and the
// steps run strictly in sequence.
type Service struct {
	mailer   *notifx.Client
	profiles profile.Repository
	recorder *activity.Recorder
	cfg      config.RelayConfig
}

// NewService wires the relay. A nil provider means no mail provider is
// configured and every valid request fails with ErrNotConfigured.
func NewService(
	provider notifx.EmailSender,
	profiles profile.Repository,
	recorder *activity.Recorder,
	cfg config.RelayConfig,
) *Service {
	s := &Service{
		profiles: profiles,
		recorder: recorder,
		cfg:      cfg,
	}
	if provider != nil {
		s.mailer = notifx.NewClient(provider)
	}
	return s
}

// Configured reports whether a mail provider is available.
func (s *Service) Configured() bool {
	return s.mailer != nil
}

// Send validates req and delivers it for caller.
func (s *Service) Send(ctx context.Context, caller *kernel.Caller, req Request) (*Result, error) {
	if !caller.IsValid() {
		return nil, iam.ErrUnauthorized()
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	if s.mailer == nil {
		return nil, ErrNotConfigured()
	}

	from, err := s.senderFor(ctx, caller, req.From)
	if err != nil {
		return nil, err
	}

	msg := notifx.EmailMessage{
		From:     from,
		To:       []string{req.To},
		CC:       nonEmpty(req.CC),
		BCC:      nonEmpty(req.BCC),
		ReplyTo:  req.ReplyTo,
		Subject:  req.Subject,
		TextBody: req.Body,
		HTMLBody: FormatHTML(req.Body, s.cfg.Signature),
	}

	receipt, err := s.mailer.SendEmail(ctx, msg)
	if err != nil {
		e := errx.From(err)
		logx.WithContext(ctx).WithError(e).WithFields(sendFields(caller, req, logx.Fields{
			"status": e.HTTPStatus,
		})).Warn("relay: provider rejected email")
		return nil, e
	}

	logx.WithContext(ctx).WithFields(sendFields(caller, req, logx.Fields{
		"message_id": receipt.MessageID,
		"provider":   receipt.Provider,
	})).Info("relay: email sent")

	s.recordSent(ctx, caller, req, receipt)

	return Succeeded(receipt.MessageID, receipt.Raw), nil
}

// recordSent writes the activity entry. Its outcome never reaches the caller.
func (s *Service) recordSent(ctx context.Context, caller *kernel.Caller, req Request, receipt *notifx.Receipt) activity.Outcome {
	entityType, entityID := kernel.EntityEmail, receipt.MessageID
	if t, ok := kernel.ParseEntityType(req.EntityType); ok && req.EntityID != "" {
		entityType, entityID = t, req.EntityID
	}

	return s.recorder.Record(ctx, &activity.Entry{
		Type:        activity.TypeEmailSent,
		Title:       "Email sent: " + req.Subject,
		Description: fmt.Sprintf("Sent to %s (message id: %s)", req.To, receipt.MessageID),
		EntityType:  entityType,
		EntityID:    entityID,
		UserID:      caller.ID,
	})
}

// senderFor builds the From header. An explicit override is used verbatim.
func (s *Service) senderFor(ctx context.Context, caller *kernel.Caller, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	address := s.cfg.FromAddress
	if address == "" {
		address = caller.Email
	}
	if address == "" {
		return "", ErrNotConfigured().WithMessage("Email sender address not configured")
	}

	return fmt.Sprintf("%s <%s>", s.displayName(ctx, caller), address), nil
}

// displayName prefers the stored profile name, then the email local part,
// then the product name.
func (s *Service) displayName(ctx context.Context, caller *kernel.Caller) string {
	if s.profiles != nil {
		p, err := s.profiles.FindByID(ctx, caller.ID)
		switch {
		case err == nil:
			if name := p.DisplayName(); name != "" {
				return name
			}
		case errx.Is(err, profile.CodeNotFound):
			logx.WithContext(ctx).WithField("user_id", caller.ID).Debug("relay: no profile for caller")
		default:
			logx.WithContext(ctx).WithError(err).WithField("user_id", caller.ID).Warn("relay: profile lookup failed")
		}
	}

	if local := caller.EmailLocalPart(); local != "" {
		return local
	}
	return s.cfg.ProductName
}

// sendFields returns a fresh field set for one log line about a send.
func sendFields(caller *kernel.Caller, req Request, extra logx.Fields) logx.Fields {
	fields := logx.Fields{
		"user_id": caller.ID,
		"to":      req.To,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

func nonEmpty(list []string) []string {
	var out []string
	for _, v := range list {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
