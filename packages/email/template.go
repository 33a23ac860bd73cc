package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template 邮件模板
type Template struct {
	tmpl *template.Template
}

// NewTemplate 从 HTML 字符串创建模板
func NewTemplate(htmlContent string) (*Template, error) {
	tmpl, err := template.New("email").Parse(htmlContent)
	if err != nil {
		return nil, fmt.Errorf("解析邮件模板失败: %w", err)
	}
	return &Template{tmpl: tmpl}, nil
}

// Render 渲染模板
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("渲染邮件模板失败: %w", err)
	}
	return buf.String(), nil
}

var (
	gradeTemplate   = template.Must(template.New("grade").Parse(GradeNotificationTemplate))
	welcomeTemplate = template.Must(template.New("welcome").Parse(WelcomeTemplate))
	codeTemplate    = template.Must(template.New("code").Parse(VerificationCodeTemplate))
)

// Mailer 业务邮件，发件地址固定
type Mailer struct {
	sender  Sender
	from    string
	appName string
}

// NewMailer sender 为 nil 时返回 nil，调用方据此跳过通知
func NewMailer(sender Sender, from, appName string) *Mailer {
	if sender == nil {
		return nil
	}
	if appName == "" {
		appName = "Testmaker"
	}
	return &Mailer{sender: sender, from: from, appName: appName}
}

// SendWithTemplate 使用模板发送 HTML 邮件
func (m *Mailer) SendWithTemplate(to, subject string, tmpl *Template, data any) error {
	body, err := tmpl.Render(data)
	if err != nil {
		return err
	}
	return m.sender.Send(&Message{
		From:        m.from,
		To:          []string{to},
		Subject:     subject,
		Body:        body,
		ContentType: "text/html; charset=UTF-8",
	})
}

// GradeNotificationTemplate 作业批改通知
const GradeNotificationTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2>{{.TaskTitle}}</h2>
  <p>Hi {{.StudentName}},</p>
  <p>Your answer has been {{.Status}}.</p>
  {{if .Grade}}<p>Grade: <strong>{{.Grade}}</strong> / 100</p>{{end}}
  {{if .Comment}}<p>Comment: {{.Comment}}</p>{{end}}
  <p style="color: #888; font-size: 12px;">{{.AppName}}</p>
</body>
</html>
`

// GradeNotificationData 批改通知模板数据
type GradeNotificationData struct {
	AppName     string
	StudentName string
	TaskTitle   string
	Status      string
	Grade       string
	Comment     string
}

// SendGradeNotification 通知学生作业已批改
func (m *Mailer) SendGradeNotification(to string, data GradeNotificationData) error {
	data.AppName = m.appName
	return m.SendWithTemplate(to, "Answer reviewed: "+data.TaskTitle, &Template{tmpl: gradeTemplate}, data)
}

// WelcomeTemplate 欢迎邮件模板
const WelcomeTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2>Welcome to {{.AppName}}</h2>
  <p>Hi {{.Username}}, your account has been created.</p>
</body>
</html>
`

// WelcomeData 欢迎邮件模板数据
type WelcomeData struct {
	AppName  string
	Username string
}

// SendWelcome 注册成功后的欢迎邮件
func (m *Mailer) SendWelcome(to, username string) error {
	return m.SendWithTemplate(to, "Welcome to "+m.appName, &Template{tmpl: welcomeTemplate}, WelcomeData{
		AppName:  m.appName,
		Username: username,
	})
}

// VerificationCodeTemplate 邮箱验证码
const VerificationCodeTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <h2>{{.AppName}} email verification</h2>
  <p>Your verification code is:</p>
  <p style="font-size: 24px; font-weight: bold; letter-spacing: 4px;">{{.Code}}</p>
  <p>The code expires in {{.ExpireMinutes}} minutes. If you did not request it, ignore this email.</p>
</body>
</html>
`

// VerificationCodeData 验证码模板数据
type VerificationCodeData struct {
	AppName       string
	Code          string
	ExpireMinutes int
}

// SendVerificationCode 发送邮箱验证码
func (m *Mailer) SendVerificationCode(to, code string, expireMinutes int) error {
	return m.SendWithTemplate(to, m.appName+" verification code", &Template{tmpl: codeTemplate}, VerificationCodeData{
		AppName:       m.appName,
		Code:          code,
		ExpireMinutes: expireMinutes,
	})
}
