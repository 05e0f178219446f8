package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"taskhub/internal/auth"
	"taskhub/internal/middleware"
	"taskhub/internal/model"
	"taskhub/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TokenIssuer mints session tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
	TTL() time.Duration
}

type UserHandler struct {
	repo         repository.UserRepositoryInterface
	tokens       TokenIssuer
	cookieSecure bool
}

func NewUserHandler(repo repository.UserRepositoryInterface, tokens TokenIssuer, cookieSecure bool) *UserHandler {
	return &UserHandler{repo: repo, tokens: tokens, cookieSecure: cookieSecure}
}

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest представляет запрос на изменение профиля
type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitnil,min=2"`
	Email *string `json:"email" binding:"omitnil,email"`
}

// UserResponse представляет публичные данные пользователя
type UserResponse struct {
	ID    uuid.UUID `json:"_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// AuthResponse возвращается при регистрации и входе
type AuthResponse struct {
	UserResponse
	Token string `json:"token"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Account"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	// Проверяем, что email свободен
	existing, err := h.repo.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondServerError(c, "find user by email", err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "User already exists"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondServerError(c, "hash password", err)
		return
	}

	user := &model.User{
		Name:           strings.TrimSpace(req.Name),
		Email:          req.Email,
		HashedPassword: hash,
	}

	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		// Параллельная регистрация с тем же email
		if errors.Is(err, repository.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "User already exists"})
			return
		}
		respondServerError(c, "create user", err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// Login godoc
// @Summary Log in with e-mail and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.repo.FindByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		respondServerError(c, "find user by email", err)
		return
	}

	// Одинаковый ответ для неизвестного email и неверного пароля
	if user == nil || !auth.CheckPassword(user.HashedPassword, req.Password) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid email or password"})
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondServerError(c, "get user", err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// List godoc
// @Summary List users that tasks can be assigned to
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /auth/users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.repo.List(c.Request.Context())
	if err != nil {
		respondServerError(c, "list users", err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for i := range users {
		response = append(response, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, response)
}

// UpdateProfile godoc
// @Summary Change name or e-mail of the current user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Profile"
// @Success 200 {object} UserResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondServerError(c, "get user", err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			existing, err := h.repo.FindByEmail(c.Request.Context(), email)
			if err != nil {
				respondServerError(c, "find user by email", err)
				return
			}
			if existing != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email already in use"})
				return
			}
			user.Email = email
		}
	}

	if err := h.repo.Update(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email already in use"})
			return
		}
		respondServerError(c, "update user", err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) respondWithToken(c *gin.Context, status int, user *model.User) {
	token, err := h.tokens.GenerateToken(user.ID.String())
	if err != nil {
		respondServerError(c, "generate token", err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.tokens.TTL().Seconds()), "/", "", h.cookieSecure, true)
	c.JSON(status, AuthResponse{UserResponse: toUserResponse(user), Token: token})
}
