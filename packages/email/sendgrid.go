package email

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridClient 通过 SendGrid HTTP API 发信
type SendGridClient struct {
	key        string
	subjPrefix string
}

func NewSendGridClient(key, appName string) *SendGridClient {
	prefix := ""
	if appName != "" {
		prefix = "[" + appName + "] "
	}
	return &SendGridClient{key: key, subjPrefix: prefix}
}

// Send 发送邮件
func (c *SendGridClient) Send(msg *Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	m, err := c.prepare(msg)
	if err != nil {
		return err
	}

	req := sendgrid.GetRequest(c.key, sendGridEndpoint, sendGridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("调用 SendGrid 失败: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("SendGrid 返回 %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (c *SendGridClient) prepare(msg *Message) (*sgmail.SGMailV3, error) {
	from, err := sgEmail(msg.From)
	if err != nil {
		return nil, fmt.Errorf("发件人地址无效: %w", err)
	}

	p := sgmail.NewPersonalization()
	p.Subject = c.subjPrefix + msg.Subject
	for _, addrs := range []struct {
		list []string
		add  func(...*sgmail.Email)
	}{
		{msg.To, p.AddTos},
		{msg.Cc, p.AddCCs},
		{msg.Bcc, p.AddBCCs},
	} {
		for _, a := range addrs.list {
			e, err := sgEmail(a)
			if err != nil {
				return nil, fmt.Errorf("收件人地址无效: %w", err)
			}
			addrs.add(e)
		}
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(from)
	m.AddPersonalizations(p)
	contentType := "text/plain"
	if strings.HasPrefix(msg.ContentType, "text/html") {
		contentType = "text/html"
	}
	m.AddContent(sgmail.NewContent(contentType, msg.Body))
	return m, nil
}

func sgEmail(addr string) (*sgmail.Email, error) {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	return sgmail.NewEmail(parsed.Name, parsed.Address), nil
}
