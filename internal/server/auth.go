package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
	"go.uber.org/zap"
)

// userView is the account shape exposed over HTTP; the password hash
// never leaves the service layer.
type userView struct {
	ID          snowflake.ID    `json:"id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	Role        authdomain.Role `json:"role"`
	IsDefault   bool            `json:"is_default"`
	Disabled    bool            `json:"disabled"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newUserView(user *authdomain.User) userView {
	return userView{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		IsDefault:   user.IsDefault,
		Disabled:    user.Disabled,
		CreatedAt:   user.CreatedAt,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.authSvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"data": newUserView(result.User)})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.authSvc.Logout(c.Request.Context(), token); err != nil {
			s.log.Warn("logout", zap.Error(err))
		}
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newUserView(user)})
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (s *Server) ChangePassword(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.authSvc.ChangePassword(c.Request.Context(), user.ID, req.NewPassword); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	role := authdomain.RoleUnassigned
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := authdomain.ParseRole(req.Role)
		if !ok {
			AbortWithError(c, authdomain.ErrInvalidRole)
			return
		}
		role = parsed
	}

	user, err := s.authSvc.CreateUser(c.Request.Context(), authdomain.CreateUserRequest{
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newUserView(user)})
}

func (s *Server) ListUsers(c *gin.Context) {
	users, err := s.authSvc.ListUsers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, newUserView(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (s *Server) GetUser(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, err := s.authSvc.GetUser(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newUserView(user)})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) UpdateUserRole(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	role, ok := authdomain.ParseRole(req.Role)
	if !ok {
		AbortWithError(c, authdomain.ErrInvalidRole)
		return
	}

	user, err := s.authSvc.UpdateRole(c.Request.Context(), id, role)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newUserView(user)})
}

func (s *Server) DisableUser(c *gin.Context) {
	s.setUserDisabled(c, true)
}

func (s *Server) EnableUser(c *gin.Context) {
	s.setUserDisabled(c, false)
}

func (s *Server) setUserDisabled(c *gin.Context, disabled bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.authSvc.SetDisabled(c.Request.Context(), id, disabled); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
