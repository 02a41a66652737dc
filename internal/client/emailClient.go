package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"nosweat-backend/internal/config"
)

// EmailSender reports success as a bool instead of an error: email failures
// are logged here and must never propagate to the calling flow.
type EmailSender interface {
	Send(ctx context.Context, subject, bodyText, bodyHTML, recipient string) bool
}

type sesEmailSender struct {
	sesClient *ses.Client
	sender    string
}

func NewSESEmailSender(ctx context.Context, sesCfg *config.SES) (EmailSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(sesCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &sesEmailSender{
		sesClient: ses.NewFromConfig(awsCfg),
		sender:    sesCfg.Sender,
	}, nil
}

func (s *sesEmailSender) Send(ctx context.Context, subject, bodyText, bodyHTML, recipient string) bool {
	if s.sender == "" || recipient == "" {
		slog.Error("ses send: missing sender or recipient address")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	body := &types.Body{
		Text: &types.Content{Data: aws.String(bodyText), Charset: aws.String("UTF-8")},
	}
	if bodyHTML != "" {
		body.Html = &types.Content{Data: aws.String(bodyHTML), Charset: aws.String("UTF-8")}
	}

	out, err := s.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.sender),
		Destination: &types.Destination{ToAddresses: []string{recipient}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	})
	if err != nil {
		slog.Error("ses send email", "recipient", recipient, "error", err)
		return false
	}

	slog.Info("email sent", "recipient", recipient, "message_id", aws.ToString(out.MessageId))
	return true
}
