package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ErrThrottled means the provider refused the message for rate reasons.
// Login code requests surface it as a delivery failure.
var ErrThrottled = errors.New("email provider throttled the request")

// sendViaResend posts one message to the Resend API. A throttled request is
// not retried; the admin can ask for a new code.
func (s *Service) sendViaResend(ctx context.Context, msg message) error {
	if s.resendClient == nil {
		return errors.New("resend client not initialized")
	}

	req := &resend.SendEmailRequest{
		From:    s.fromHeader(),
		To:      []string{msg.to},
		Subject: msg.subject,
		Html:    msg.html,
		Text:    msg.text,
	}
	if msg.kind != "" {
		req.Tags = []resend.Tag{{Name: "kind", Value: msg.kind}}
	}

	resp, err := s.resendClient.Emails.SendWithContext(ctx, req)
	var throttled *resend.RateLimitError
	switch {
	case errors.As(err, &throttled):
		wait := throttled.Reset
		if wait == "" {
			wait = throttled.RetryAfter
		}
		s.logger.Warn().
			Str("kind", msg.kind).
			Str("remaining", throttled.Remaining).
			Str("retry_seconds", wait).
			Msg("resend throttled login mail")
		if wait == "" {
			return fmt.Errorf("%w: %v", ErrThrottled, err)
		}
		return fmt.Errorf("%w (retry in %ss): %v", ErrThrottled, wait, err)
	case err != nil:
		return fmt.Errorf("resend send %s: %w", msg.kind, err)
	}

	s.logger.Info().Str("kind", msg.kind).Str("resend_id", resp.Id).Msg("mail accepted by resend")
	return nil
}
