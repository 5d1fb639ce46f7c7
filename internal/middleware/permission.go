package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/response"
)

// RequireRoles 要求指定角色
// 资源归属的细粒度检查在业务层通过 authz.Authorize 完成
func RequireRoles(roles ...authz.Role) gin.HandlerFunc {
	roleSet := make(map[authz.Role]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if _, ok := roleSet[actor.Role]; !ok {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireStaff 要求管理员或超级管理员
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(authz.RoleManager, authz.RoleSuperAdmin)
}
