package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queued(t *testing.T, typ string, data any) []byte {
	t.Helper()
	b, err := json.Marshal(&domain.MailMessage{Type: typ, To: "maria@freshshift.test", Data: data})
	require.NoError(t, err)
	return b
}

func TestDecodeCreateEmployeeMail(t *testing.T) {
	out, err := decodeMail(queued(t, domain.MailCreateEmployee, domain.CreateEmployeeMailData{
		Name:     "Maria",
		Username: "maria",
		Password: "s3cretpass",
	}))
	require.NoError(t, err)

	assert.Equal(t, "maria@freshshift.test", out.To)
	assert.Equal(t, "Maria", out.Name)
	assert.Equal(t, "FreshShift 排班系统 - 账户信息", out.Subject)
	assert.Equal(t, "create_employee.html", out.Template)

	msg, err := out.message("noreply@freshshift.test")
	require.NoError(t, err)
	to := msg.GetToString()
	require.Len(t, to, 1)
	assert.Contains(t, to[0], "maria@freshshift.test")

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "s3cretpass")
}

func TestDecodeNotificationMail(t *testing.T) {
	out, err := decodeMail(queued(t, domain.MailNotification, domain.NotificationMailData{
		Name:      "Maria",
		Type:      domain.NotifyAbsenceResolved,
		StoreName: "Fresh Fries",
		Message:   "absence approved",
	}))
	require.NoError(t, err)
	assert.Equal(t, "FreshShift 排班系统 - Fresh Fries 新通知", out.Subject)
	assert.Equal(t, "notification.html", out.Template)

	_, err = out.message("noreply@freshshift.test")
	require.NoError(t, err)

	// 收件人地址不合法
	out.To = "not an address"
	_, err = out.message("noreply@freshshift.test")
	assert.Error(t, err)
}

func TestDecodeMailErrors(t *testing.T) {
	_, err := decodeMail([]byte("not json"))
	assert.Error(t, err)

	_, err = decodeMail(queued(t, "reset_password", map[string]string{}))
	assert.Error(t, err)

	_, err = decodeMail([]byte(`{"type":"create_employee","to":"a@b.c","data":"oops"}`))
	assert.Error(t, err)
}
