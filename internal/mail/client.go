package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const user = "me"

// recentQuery keeps the digest to the last day of real mail, skipping bulk
// categories and chat transcripts.
const recentQuery = "newer_than:1d -category:social -category:promotions -in:chats"

// Client wraps the Gmail API for the single configured account. The service
// is rebuilt per call from the stored token, so a token obtained through the
// auth flow is picked up without a restart.
type Client struct {
	flow *Flow
}

func NewClient(flow *Flow) *Client {
	return &Client{flow: flow}
}

func (c *Client) service(ctx context.Context) (*gmailv1.Service, error) {
	ts, err := c.flow.tokenSource(ctx)
	if err != nil {
		return nil, err
	}
	srv, err := gmailv1.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("mail: failed to create Gmail service: %w", err)
	}
	return srv, nil
}

// FetchRecent lists recent non-bulk messages and fetches each one in full
// format, ids in the order Gmail returns them.
func (c *Client) FetchRecent(ctx context.Context, limit int64) ([]*gmailv1.Message, error) {
	srv, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	res, err := srv.Users.Messages.List(user).Q(recentQuery).MaxResults(limit).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("mail: failed to list messages: %w", err)
	}

	msgs := make([]*gmailv1.Message, 0, len(res.Messages))
	for _, m := range res.Messages {
		full, err := srv.Users.Messages.Get(user, m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("mail: failed to get message %s: %w", m.Id, err)
		}
		msgs = append(msgs, full)
	}
	return msgs, nil
}

// Profile returns the authenticated account's email address.
func (c *Client) Profile(ctx context.Context) (string, error) {
	srv, err := c.service(ctx)
	if err != nil {
		return "", err
	}
	profile, err := srv.Users.GetProfile(user).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("mail: failed to get profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// Send mails an HTML document to the account's own address.
func (c *Client) Send(ctx context.Context, subject, htmlBody string) error {
	srv, err := c.service(ctx)
	if err != nil {
		return err
	}

	profile, err := srv.Users.GetProfile(user).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mail: failed to get profile: %w", err)
	}

	raw := buildRawMessage(profile.EmailAddress, subject, htmlBody)
	if _, err := srv.Users.Messages.Send(user, &gmailv1.Message{Raw: raw}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("mail: failed to send message: %w", err)
	}
	return nil
}

// buildRawMessage assembles a base64url-encoded RFC 822 text/html message.
func buildRawMessage(to, subject, htmlBody string) string {
	var sb strings.Builder
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)
	return base64.URLEncoding.EncodeToString([]byte(sb.String()))
}
