package auth

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/session-auth/internal/session"
)

// Handler は /auth/* と /users/me の HTTP ハンドラーです。
type Handler struct {
	manager *Manager
	cookie  session.CookieBinding
	limiter *Limiter
	logger  *log.Logger
}

// NewHandler は Handler を作成します。limiter は nil でも構いません。
func NewHandler(manager *Manager, cookie session.CookieBinding, limiter *Limiter, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		manager: manager,
		cookie:  cookie,
		limiter: limiter,
		logger:  logger,
	}
}

// RegisterRoutes はルーターにエンドポイントを登録します。
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/login", h.Login)
		authRoutes.DELETE("/logout", h.Logout)
	}
	router.GET("/users/me", h.RequireLogin(), h.Me)
}

// Login は POST /auth/login のハンドラーです。
// フォームの email と password を検証し、成功したらユーザーを返してセッションクッキーを設定します。
func (h *Handler) Login(c *gin.Context) {
	ip := c.ClientIP()
	if retryAfter := h.limiter.RetryAfter(ip); retryAfter > 0 {
		c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds())+1, 10))
		h.writeError(c, ErrTooManyAttempts)
		return
	}

	u, sessionID, err := h.manager.Login(
		c.Request.Context(),
		c.PostForm("email"),
		c.PostForm("password"),
	)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrWrongPassword) {
			h.limiter.RecordFailure(ip)
		}
		h.writeError(c, err)
		return
	}

	h.limiter.Reset(ip)
	h.cookie.Attach(c.Writer, sessionID)
	c.JSON(http.StatusOK, u)
}

// Logout は DELETE /auth/logout のハンドラーです。
func (h *Handler) Logout(c *gin.Context) {
	sessionID, _ := h.cookie.Extract(c.Request)

	destroyed, err := h.manager.Logout(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !destroyed {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	h.cookie.Clear(c.Writer)
	c.JSON(http.StatusOK, gin.H{})
}

// Me は GET /users/me のハンドラーです。RequireLogin の後ろで使います。
func (h *Handler) Me(c *gin.Context) {
	u, ok := CurrentUserFrom(c)
	if !ok {
		h.writeError(c, ErrNoSession)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var authErr *Error
	if errors.As(err, &authErr) {
		c.AbortWithStatusJSON(authErr.Kind.HTTPStatus(), gin.H{"error": authErr.Message})
		return
	}
	h.logger.Printf("auth: %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
