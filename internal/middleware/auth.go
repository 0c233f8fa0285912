package middleware

import (
	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/model"
	"mentorhub_backend/internal/util"
	"mentorhub_backend/pkg/logger"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// AuthMiddleware 只接受 Authorization: Bearer <token>，解析出的身份写入上下文与当前链路
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.WithContext(c.Request.Context()).Debug("JWT解析错误", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		trace.SpanFromContext(c.Request.Context()).SetAttributes(
			attribute.Int64("actor.id", int64(claims.UserID)),
			attribute.String("actor.role", string(claims.Role)),
		)

		util.SetUserInContext(c, claims)
		c.Next()
	}
}

// RoleMiddleware 管理员拥有所有角色的权限
func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	allowed := make(map[model.UserRole]bool, len(roles)+1)
	allowed[model.Admin] = true
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !allowed[user.Role] {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

type UserActivityRepo interface {
	UpdateLastSeen(userID uint) error
}

// ActivityMiddleware 异步记录最后活跃时间，同一用户在 minInterval 内只写一次
func ActivityMiddleware(repo UserActivityRepo, minInterval time.Duration) gin.HandlerFunc {
	var lastWrite sync.Map // userID -> time.Time

	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims != nil {
			now := time.Now()
			prev, seen := lastWrite.Load(claims.UserID)
			if !seen || now.Sub(prev.(time.Time)) >= minInterval {
				lastWrite.Store(claims.UserID, now)
				go func(userID uint) {
					if err := repo.UpdateLastSeen(userID); err != nil {
						logger.Log.Warn("更新最后活跃时间失败", zap.Uint("userID", userID), zap.Error(err))
					}
				}(claims.UserID)
			}
		}
		c.Next()
	}
}
