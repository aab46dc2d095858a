package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/session-auth/internal/user"
)

// ContextUserKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
const ContextUserKey = "auth.user"

// RequireLogin はセッションクッキーを検証するミドルウェアを返します。
func (h *Handler) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, _ := h.cookie.Extract(c.Request)
		u, err := h.manager.CurrentUser(c.Request.Context(), sessionID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.Set(ContextUserKey, u)
		c.Next()
	}
}

// CurrentUserFrom は RequireLogin が設定したユーザーを取り出します。
func CurrentUserFrom(c *gin.Context) (*user.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*user.User)
	return u, ok && u != nil
}
