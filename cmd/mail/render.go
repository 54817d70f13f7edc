package main

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// queuedMail 与 domain.MailMessage 对应，data 按类型延迟解析
type queuedMail struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type outgoingMail struct {
	To       string
	Name     string
	Subject  string
	Template string
	Data     any
}

// decodeMail 解析队列中的消息并选择模板
func decodeMail(body []byte) (*outgoingMail, error) {
	queued := queuedMail{}
	if err := json.Unmarshal(body, &queued); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	out := &outgoingMail{To: queued.To}
	switch queued.Type {
	case domain.MailCreateEmployee:
		d := domain.CreateEmployeeMailData{}
		if err := json.Unmarshal(queued.Data, &d); err != nil {
			return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
		}
		out.Name, out.Data = d.Name, d
		out.Subject = "FreshShift 排班系统 - 账户信息"
		out.Template = "create_employee.html"
	case domain.MailNotification:
		d := domain.NotificationMailData{}
		if err := json.Unmarshal(queued.Data, &d); err != nil {
			return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
		}
		out.Name, out.Data = d.Name, d
		out.Subject = "FreshShift 排班系统 - 新通知"
		if d.StoreName != "" {
			out.Subject = fmt.Sprintf("FreshShift 排班系统 - %s 新通知", d.StoreName)
		}
		out.Template = "notification.html"
	default:
		return nil, fmt.Errorf("不支持的邮件类型 %q", queued.Type)
	}

	return out, nil
}

func (o *outgoingMail) message(from string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.AddToFormat(o.Name, o.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	msg.Subject(o.Subject)

	if err := msg.SetBodyHTMLTemplate(templates.Lookup(o.Template), o.Data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}

	return msg, nil
}
