package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

// Config 邮件服务配置
type Config struct {
	Driver         string `koanf:"driver"`           // smtp | sendgrid，为空表示不发送
	Host           string `koanf:"host"`             // SMTP 服务器地址，如 smtp.gmail.com
	Port           int    `koanf:"port"`             // SMTP 端口，通常 587 (TLS) 或 465 (SSL)
	Username       string `koanf:"username"`         // SMTP 登录账号
	Password       string `koanf:"password"`         // 邮箱密码或授权码
	UseTLS         bool   `koanf:"tls"`              // 是否使用 STARTTLS
	SendGridAPIKey string `koanf:"sendgrid_api_key"` // sendgrid 驱动使用
	From           string `koanf:"from"`             // 发件地址
	AppName        string `koanf:"app_name"`         // 发件人显示名与主题前缀
}

// Message 邮件消息
type Message struct {
	From        string   // 发件人，如 "Testmaker <noreply@example.com>"
	To          []string // 收件人列表
	Cc          []string // 抄送列表
	Bcc         []string // 密送列表
	Subject     string   // 邮件主题
	Body        string   // 邮件正文（纯文本或 HTML）
	ContentType string   // 内容类型，默认 "text/plain"，可设为 "text/html"
}

// Sender 发送邮件的驱动
type Sender interface {
	Send(msg *Message) error
}

// NewSender 按驱动创建发送器，未配置时返回 nil
func NewSender(config *Config) Sender {
	switch config.Driver {
	case "smtp":
		if config.Host == "" {
			return nil
		}
		return NewClient(config)
	case "sendgrid":
		if config.SendGridAPIKey == "" {
			return nil
		}
		return NewSendGridClient(config.SendGridAPIKey, config.AppName)
	default:
		return nil
	}
}

// Client SMTP 邮件客户端
type Client struct {
	config *Config
}

// NewClient 创建邮件客户端
func NewClient(config *Config) *Client {
	if config.Port == 0 {
		config.Port = 587
	}
	return &Client{config: config}
}

func (m *Message) validate() error {
	if m.From == "" {
		return fmt.Errorf("发件人不能为空")
	}
	if len(m.To) == 0 {
		return fmt.Errorf("收件人不能为空")
	}
	if m.Subject == "" {
		return fmt.Errorf("邮件主题不能为空")
	}
	if m.ContentType == "" {
		m.ContentType = "text/plain; charset=UTF-8"
	}
	return nil
}

// buildMessage 按固定顺序写出邮件头
func buildMessage(msg *Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(msg.Cc, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n", msg.ContentType)
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// Send 发送邮件
func (c *Client) Send(msg *Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	recipients := append([]string{}, msg.To...)
	recipients = append(recipients, msg.Cc...)
	recipients = append(recipients, msg.Bcc...)

	auth := smtp.PlainAuth("", c.config.Username, c.config.Password, c.config.Host)
	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)

	if c.config.UseTLS || c.config.Port == 587 {
		return c.sendWithTLS(addr, auth, msg.From, recipients, buildMessage(msg))
	}
	return smtp.SendMail(addr, auth, msg.From, recipients, buildMessage(msg))
}

// sendWithTLS 使用 STARTTLS 发送邮件
func (c *Client) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("连接 SMTP 服务器失败: %w", err)
	}
	defer client.Close()

	if err = client.StartTLS(&tls.Config{ServerName: c.config.Host}); err != nil {
		return fmt.Errorf("启动 TLS 失败: %w", err)
	}
	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP 认证失败: %w", err)
	}
	if err = client.Mail(from); err != nil {
		return fmt.Errorf("设置发件人失败: %w", err)
	}
	for _, recipient := range to {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("设置收件人失败: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("准备发送邮件内容失败: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("写入邮件内容失败: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("关闭邮件内容写入失败: %w", err)
	}

	return client.Quit()
}
