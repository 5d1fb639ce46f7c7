// Package middleware 提供 HTTP 中间件
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/jwt"
	"github.com/repavi/lodges-backend/internal/common/response"
)

// 上下文键
const (
	ContextKeyUserID = "user_id"
	ContextKeyActor  = "actor"
)

// Auth 认证中间件，解析令牌并在上下文中放入操作者
func Auth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		claims, err := jwtManager.ParseToken(token)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				response.Unauthorized(c, "登录已过期，请重新登录")
			} else {
				response.Unauthorized(c, "无效的令牌")
			}
			c.Abort()
			return
		}

		role := authz.Role(claims.Role)
		if !role.Valid() {
			response.Forbidden(c, "未知角色")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyActor, authz.Actor{UserID: claims.UserID, Role: role})

		c.Next()
	}
}

// extractToken 从请求中提取令牌
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}
	return ""
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) int64 {
	userID, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0
	}
	return userID.(int64)
}

// GetActor 从上下文获取操作者
func GetActor(c *gin.Context) (authz.Actor, bool) {
	v, exists := c.Get(ContextKeyActor)
	if !exists {
		return authz.Actor{}, false
	}
	actor, ok := v.(authz.Actor)
	return actor, ok
}
