package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves accounts, tokens and subscriptions.
type UserHandler struct {
	base
	auth  *service.AuthService
	users *service.UserService
}

func NewUserHandler(b base, auth *service.AuthService, users *service.UserService) *UserHandler {
	return &UserHandler{base: b, auth: auth, users: users}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	required := middleware.AuthMiddleware(h.auth)
	optional := middleware.OptionalAuth(h.auth)

	users := router.Group("/users")
	{
		users.POST("/", h.Register)
		users.GET("/", optional, h.List)
		users.GET("/me/", required, h.Me)
		users.POST("/set_password/", required, h.SetPassword)
		users.GET("/subscriptions/", required, h.Subscriptions)
		users.GET("/:id/", optional, h.Get)
		users.POST("/:id/subscribe/", required, h.Subscribe)
		users.DELETE("/:id/subscribe/", required, h.Unsubscribe)
	}

	auth := router.Group("/auth/token")
	{
		auth.POST("/login/", h.Login)
		auth.POST("/logout/", required, h.Logout)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.RegisterResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *UserHandler) List(c *gin.Context) {
	page := parsePagination(c)
	users, total, err := h.users.List(c.Request.Context(), middleware.CurrentUserID(c), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, users, total, page))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.fail(c, service.ErrNotFound)
		return
	}
	user, err := h.users.Get(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Me(c *gin.Context) {
	id := middleware.CurrentUserID(c)
	user, err := h.users.Get(c.Request.Context(), id, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if !h.bind(c, &req) {
		return
	}
	err := h.auth.SetPassword(c.Request.Context(), middleware.CurrentUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req types.TokenLoginRequest
	if !h.bind(c, &req) {
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, types.TokenResponse{AuthToken: token})
}

// Logout has nothing to revoke; tokens expire on their own.
func (h *UserHandler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	limit, ok := h.recipesLimit(c)
	if !ok {
		return
	}
	page := parsePagination(c)
	subs, total, err := h.users.Subscriptions(c.Request.Context(), middleware.CurrentUserID(c), page, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, subs, total, page))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.fail(c, service.ErrNotFound)
		return
	}
	limit, ok := h.recipesLimit(c)
	if !ok {
		return
	}
	sub, err := h.users.Subscribe(c.Request.Context(), middleware.CurrentUserID(c), id, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.fail(c, service.ErrNotFound)
		return
	}
	if err := h.users.Unsubscribe(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// recipesLimit reads ?recipes_limit. Absent means the default preview size.
func (h *UserHandler) recipesLimit(c *gin.Context) (int, bool) {
	raw, present := c.GetQuery("recipes_limit")
	if !present {
		return -1, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, types.FieldErrors{"recipes_limit": {"a non-negative integer is required"}})
		return 0, false
	}
	return limit, true
}
