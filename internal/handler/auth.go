package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/freshshift/shift-planner/backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenCookieName = "__freshshift_token"

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	account, subject, err := h.authenticate(r, req.Username, req.Password)
	if err != nil {
		switch {
		case domain.IsNotFound(err), domain.IsValidation(err):
			h.errorResponse(w, r, "用户名不存在或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 生成 JWT
	now := time.Now()
	expiration := now.Add(time.Duration(h.config.JWT.Expiration) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   subject,
		},
	})
	ss, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 通过 http-only 的 cookie 返回给客户端
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    ss,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)

	h.successResponse(w, r, "登录成功", account)
}

// authenticate 先匹配配置中的初始管理员，再匹配员工账号
func (h *Handler) authenticate(r *http.Request, username, password string) (*domain.Account, string, error) {
	if strings.EqualFold(username, h.config.InitialAdmin.Username) {
		if err := bcrypt.CompareHashAndPassword(h.adminHash, []byte(password)); err != nil {
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				return nil, "", domain.NewValidationError("password", "密码错误")
			}
			return nil, "", err
		}
		return h.adminAccount(), domain.AdminSubject, nil
	}

	employee, err := h.service.Authenticate(r.Context(), username, password)
	if err != nil {
		return nil, "", err
	}
	return employeeAccount(employee), employee.ID, nil
}

func (h *Handler) adminAccount() *domain.Account {
	return &domain.Account{
		Role:     domain.RoleAdmin,
		Username: h.config.InitialAdmin.Username,
		Name:     h.config.InitialAdmin.FullName,
		Email:    h.config.InitialAdmin.Email,
	}
}

func employeeAccount(e *domain.Employee) *domain.Account {
	return &domain.Account{
		Role:     domain.RoleEmployee,
		Username: e.Username,
		Name:     e.Name,
		Email:    e.Email,
		Employee: e.Public(),
	}
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:    tokenCookieName,
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
		Path:    "/",
	})

	h.successResponse(w, r, "登出成功", nil)
}
