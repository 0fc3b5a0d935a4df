package ses

import (
	"context"
	"fmt"
	"html"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"docdesk/internal/domain"
	"docdesk/internal/port"
)

type sesNotifier struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	recipient   string
}

// NewSESNotifier creates an SES-backed Notifier mailing batch completions to recipient.
func NewSESNotifier(region, fromAddress, fromName, recipient string) (port.Notifier, error) {
	if recipient == "" {
		return nil, fmt.Errorf("ses notifier: recipient is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return &sesNotifier{
		client:      sesv2.NewFromConfig(cfg),
		fromAddress: fromAddress,
		fromName:    fromName,
		recipient:   recipient,
	}, nil
}

func (s *sesNotifier) BatchFinished(ctx context.Context, batch *domain.Batch) error {
	subject, textBody := buildBatchText(batch)
	htmlBody := buildBatchHTML(batch)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{s.recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func batchLabel(batch *domain.Batch) string {
	if batch.Name != nil && *batch.Name != "" {
		return fmt.Sprintf("%s (%s)", *batch.Name, batch.ID)
	}
	return batch.ID
}

func buildBatchText(batch *domain.Batch) (subject, body string) {
	label := batchLabel(batch)
	subject = fmt.Sprintf("Batch %s %s", label, batch.Status)

	var b strings.Builder
	fmt.Fprintf(&b, "Batch %s finished with status %s.\n\n", label, batch.Status)
	fmt.Fprintf(&b, "Total: %d\nCompleted: %d\nFailed: %d\n", batch.Progress.Total, batch.Progress.Completed, batch.Progress.Failed)
	for i := range batch.Jobs {
		if batch.Jobs[i].Status == domain.JobStatusFailed {
			fmt.Fprintf(&b, "  failed: %s (%s)\n", batch.Jobs[i].Filename, batch.Jobs[i].ID)
		}
	}
	return subject, b.String()
}

func buildBatchHTML(batch *domain.Batch) string {
	var failed strings.Builder
	for i := range batch.Jobs {
		if batch.Jobs[i].Status == domain.JobStatusFailed {
			fmt.Fprintf(&failed, "<li>%s</li>", html.EscapeString(batch.Jobs[i].Filename))
		}
	}
	failedList := ""
	if failed.Len() > 0 {
		failedList = "<p>Failed files:</p><ul>" + failed.String() + "</ul>"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Batch %s</h2>
  <p>Status: <strong>%s</strong></p>
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px;">Total</td><td>%d</td></tr>
    <tr><td style="padding: 4px 12px;">Completed</td><td>%d</td></tr>
    <tr><td style="padding: 4px 12px;">Failed</td><td>%d</td></tr>
  </table>
  %s
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">DocDesk</p>
</body>
</html>`, html.EscapeString(batchLabel(batch)), html.EscapeString(string(batch.Status)),
		batch.Progress.Total, batch.Progress.Completed, batch.Progress.Failed, failedList)
}
