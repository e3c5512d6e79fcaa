package emailsvc

import (
	"fmt"
	"io"
	"net/mail"
	"sync"

	"gopkg.in/gomail.v2"

	"github.com/findmytutor/findmytutor/core"
)

type smtpService struct {
	dialer     *gomail.Dialer
	from       mail.Address
	subjPrefix string
	logger     core.Logger
	wg         *sync.WaitGroup
}

var _ core.EmailService = (*smtpService)(nil)

func NewSMTPService(conf *core.Config, logger core.Logger) core.EmailService {
	return &smtpService{
		dialer:     gomail.NewDialer(conf.SMTP.Host, conf.SMTP.Port, conf.SMTP.User, conf.SMTP.Password),
		from:       conf.DefaultFromEmail(),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
		wg:         new(sync.WaitGroup),
	}
}

func (svc smtpService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		svc.wg.Add(1)
		go func() {
			defer svc.wg.Done()
			if msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
				if err := svc.dialer.DialAndSend(svc.prepare(*msg)); err != nil {
					svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
				}
			}
		}()
	}
}

func (svc smtpService) Wait() {
	svc.wg.Wait()
}

func (svc smtpService) prepare(msg core.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", svc.from.Address, svc.from.Name)
	m.SetHeader("To", formatAddresses(m, msg.To)...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", formatAddresses(m, msg.Cc)...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", formatAddresses(m, msg.Bcc)...)
	}
	m.SetHeader("Subject", svc.subjPrefix+msg.Subject)

	m.SetBody("text/plain", msg.TextContent)
	if msg.HTMLContent != "" {
		m.AddAlternative("text/html", msg.HTMLContent)
	}

	for _, at := range msg.Attachments {
		at := at
		m.Attach(at.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(at.Data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {at.ContentType}}),
		)
	}
	return m
}

func formatAddresses(m *gomail.Message, addrs []mail.Address) []string {
	formatted := make([]string, 0, len(addrs))
	for _, a := range addrs {
		formatted = append(formatted, m.FormatAddress(a.Address, a.Name))
	}
	return formatted
}

// New picks the email backend: console in debug, SMTP when a host is configured, SendGrid otherwise.
func New(conf *core.Config, logger core.Logger) core.EmailService {
	switch {
	case conf.Debug:
		return NewConsoleService(conf, logger)
	case conf.SMTP.Host != "":
		return NewSMTPService(conf, logger)
	default:
		return NewSendgridService(conf, logger)
	}
}
