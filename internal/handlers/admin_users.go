package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-ssohub/ssohub/internal/middleware"
	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/services"
)

// UserAdminHandler serves the user management CRUD under /api/admin/users.
// The self-protection rules are enforced against the bearer token's subject,
// not against anything client-supplied.
type UserAdminHandler struct {
	users *services.UserService
	audit *services.AuditService
}

func NewUserAdminHandler(users *services.UserService, audit *services.AuditService) *UserAdminHandler {
	return &UserAdminHandler{users: users, audit: audit}
}

func userErrorCode(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, services.ErrUserExists):
		return http.StatusConflict, "user_exists"
	case errors.Is(err, services.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_email"
	case errors.Is(err, services.ErrWeakPassword):
		return http.StatusBadRequest, "weak_password"
	case errors.Is(err, services.ErrInvalidRole):
		return http.StatusBadRequest, "invalid_role"
	case errors.Is(err, services.ErrUserDataRequired):
		return http.StatusBadRequest, "user_data_required"
	case errors.Is(err, services.ErrCannotRemoveOwnAdmin):
		return http.StatusForbidden, "cannot_remove_own_admin"
	case errors.Is(err, services.ErrCannotDeleteSelf):
		return http.StatusForbidden, "cannot_delete_self"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *UserAdminHandler) List(c *gin.Context) {
	users, page, err := h.users.ListUsers(pageParams(c), c.Query("role"))
	if err != nil {
		apiError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	listResponse(c, "users", users, page)
}

func (h *UserAdminHandler) Get(c *gin.Context) {
	user, err := h.users.GetUser(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusNotFound, "user_not_found", "No such user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserAdminHandler) Stats(c *gin.Context) {
	stats, err := h.users.GetUserStats()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, stats)
}

type createUserBody struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	Team       string `json:"team"`
	Supervisor string `json:"supervisor"`
	Role       string `json:"role"`
	IsActive   *bool  `json:"is_active"`
}

func (h *UserAdminHandler) Create(c *gin.Context) {
	var body createUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	user, err := h.users.CreateUser(services.CreateUserRequest{
		Username:   body.Username,
		Email:      body.Email,
		Password:   body.Password,
		FirstName:  body.FirstName,
		LastName:   body.LastName,
		Department: body.Department,
		Team:       body.Team,
		Supervisor: body.Supervisor,
		Role:       body.Role,
		IsActive:   body.IsActive,
	})
	if err != nil {
		status, code := userErrorCode(err)
		apiError(c, status, code, err.Error())
		return
	}

	actor, _ := middleware.UserFromContext(c)
	h.audit.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     models.EventUserCreated,
		Severity:      models.SeverityInfo,
		ActorUserID:   actor.ID,
		ActorUsername: actor.Username,
		ActorIP:       c.ClientIP(),
		ResourceType:  models.ResourceUser,
		ResourceID:    user.ID,
		ResourceName:  user.Username,
		Action:        "user_create",
		Success:       true,
	})

	c.JSON(http.StatusCreated, user)
}

type updateUserBody struct {
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Department *string `json:"department"`
	Team       *string `json:"team"`
	Supervisor *string `json:"supervisor"`
	Role       *string `json:"role"`
	IsActive   *bool   `json:"is_active"`
}

func (h *UserAdminHandler) Update(c *gin.Context) {
	var body updateUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	actor, _ := middleware.UserFromContext(c)
	user, err := h.users.UpdateUser(c.Param("id"), actor.ID, services.UpdateUserRequest{
		Email:      body.Email,
		Password:   body.Password,
		FirstName:  body.FirstName,
		LastName:   body.LastName,
		Department: body.Department,
		Team:       body.Team,
		Supervisor: body.Supervisor,
		Role:       body.Role,
		IsActive:   body.IsActive,
	})
	if err != nil {
		status, code := userErrorCode(err)
		apiError(c, status, code, err.Error())
		return
	}

	h.audit.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     models.EventUserUpdated,
		Severity:      models.SeverityInfo,
		ActorUserID:   actor.ID,
		ActorUsername: actor.Username,
		ActorIP:       c.ClientIP(),
		ResourceType:  models.ResourceUser,
		ResourceID:    user.ID,
		ResourceName:  user.Username,
		Action:        "user_update",
		Success:       true,
	})

	c.JSON(http.StatusOK, user)
}

func (h *UserAdminHandler) Delete(c *gin.Context) {
	actor, _ := middleware.UserFromContext(c)
	id := c.Param("id")

	if err := h.users.DeleteUser(id, actor.ID); err != nil {
		status, code := userErrorCode(err)
		apiError(c, status, code, err.Error())
		return
	}

	h.audit.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     models.EventUserDeleted,
		Severity:      models.SeverityWarning,
		ActorUserID:   actor.ID,
		ActorUsername: actor.Username,
		ActorIP:       c.ClientIP(),
		ResourceType:  models.ResourceUser,
		ResourceID:    id,
		Action:        "user_delete",
		Success:       true,
	})

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
