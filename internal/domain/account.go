package domain

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// AdminSubject 是管理员令牌中的 sub，管理员没有对应的员工记录
const AdminSubject = "admin"

// Account 是当前登录的账号
type Account struct {
	Role     Role      `json:"role"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Employee *Employee `json:"employee,omitempty"`
}
