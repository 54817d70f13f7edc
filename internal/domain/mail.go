package domain

const (
	MailCreateEmployee = "create_employee"
	MailNotification   = "notification"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateEmployeeMailData struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type NotificationMailData struct {
	Name         string           `json:"name"`
	Type         NotificationType `json:"type"`
	StoreName    string           `json:"storeName"`
	EmployeeName string           `json:"employeeName"`
	Message      string           `json:"message"`
	Reason       string           `json:"reason"`
}
