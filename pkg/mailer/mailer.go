package mailer

import (
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/francovalli123/StudyO/config"
)

// Mailer 邮件发送接口
// 通知服务依赖此接口，测试中以内存实现替换
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer 基于 SMTP 的邮件发送实现
type SMTPMailer struct {
	cfg    *config.MailConfig
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewSMTPMailer 创建 SMTP 邮件发送器
func NewSMTPMailer(cfg *config.MailConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		logger: logger,
	}
}

// Send 发送 HTML 邮件，同时附带纯文本降级内容
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", fmt.Sprintf("%s 通知: %s\n\n请访问 %s 查看详情。", m.cfg.SiteName, subject, m.cfg.SiteURL))
	msg.AddAlternative("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}
