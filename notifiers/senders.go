package notifiers

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/kova98/gigscout.api/models"
)

// Sender delivers a rendered email. A non-nil error always comes with an
// unsuccessful result.
type Sender interface {
	Send(ctx context.Context, mail models.Email) (models.SendResult, error)
}

const DefaultResendURL = "https://api.resend.com/emails"

// ResendSender posts emails to the Resend HTTP API.
type ResendSender struct {
	client *resty.Client
	url    string
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

func NewResendSender(apiKey, url string) *ResendSender {
	if url == "" {
		url = DefaultResendURL
	}
	client := resty.New().
		SetAuthToken(apiKey).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &ResendSender{client: client, url: url}
}

func (s *ResendSender) Send(ctx context.Context, mail models.Email) (models.SendResult, error) {
	var ok resendResponse
	var failed resendError

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(resendRequest{
			From:    mail.From,
			To:      []string{mail.To},
			Subject: mail.Subject,
			HTML:    mail.Body,
			ReplyTo: mail.ReplyTo,
		}).
		SetResult(&ok).
		SetError(&failed).
		Post(s.url)
	if err != nil {
		return models.SendResult{}, errors.Wrap(err, "resend: post email")
	}
	if resp.IsError() {
		msg := failed.Message
		if msg == "" {
			msg = "failed to send email"
		}
		return models.SendResult{}, fmt.Errorf("resend: %s: %s", resp.Status(), msg)
	}

	slog.Info("email sent", "provider", "resend", "recipient", mail.To, "subject", mail.Subject, "id", ok.ID)
	return models.SendResult{Success: true, ProviderMessageID: ok.ID}, nil
}

// SMTPSender sends through an authenticated SMTP relay.
type SMTPSender struct {
	smtpHost string
	smtpPort string
	username string
	password string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(smtpHost, smtpPort, username, password string) *SMTPSender {
	return &SMTPSender{
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		username: username,
		password: password,
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, mail models.Email) (models.SendResult, error) {
	if err := ctx.Err(); err != nil {
		return models.SendResult{}, err
	}

	message := fmt.Sprintf(`From: GigScout <%s>
Reply-To: %s
To: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, headerValue(mail.From), headerValue(mail.ReplyTo), headerValue(mail.To),
		mime.QEncoding.Encode("utf-8", headerValue(mail.Subject)), mail.Body)

	auth := smtp.PlainAuth("", s.username, s.password, s.smtpHost)
	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	if err := s.sendMail(addr, auth, mail.From, []string{mail.To}, []byte(message)); err != nil {
		return models.SendResult{}, errors.Wrap(err, "smtp: send mail")
	}

	slog.Info("email sent", "provider", "smtp", "recipient", mail.To, "subject", mail.Subject)
	return models.SendResult{Success: true, ProviderMessageID: "smtp_" + strconv.FormatInt(time.Now().UnixMilli(), 10)}, nil
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// headerValue keeps a value on a single header line.
func headerValue(v string) string {
	return strings.TrimSpace(headerBreaks.Replace(v))
}

// LogSender only logs. It stands in for a provider in development.
type LogSender struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger, now: time.Now}
}

func (s *LogSender) Send(ctx context.Context, mail models.Email) (models.SendResult, error) {
	preview := truncate(mail.Body, 200)
	s.logger.Info("email sent (demo mode)", "recipient", mail.To, "subject", mail.Subject, "preview", preview)
	return models.SendResult{Success: true, ProviderMessageID: "demo_" + strconv.FormatInt(s.now().UnixMilli(), 10)}, nil
}
