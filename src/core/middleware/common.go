package middleware

import (
	"net/http"
	"strings"

	"voice-relay-server/src/core/auth"
	"voice-relay-server/src/core/utils"

	"github.com/gin-gonic/gin"
)

// CORS 返回一个统一的跨域中间件
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}

		c.Header("Access-Control-Allow-Headers", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400") // 24小时

		// 处理 OPTIONS 预检请求
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// BearerTokenAuth 运维接口认证；enabled 为 false 时直接放行
func BearerTokenAuth(enabled bool, authToken *auth.AuthToken, logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的认证token或token已过期"})
			c.Abort()
			return
		}

		subject, err := authToken.VerifyToken(authHeader[7:])
		if err != nil {
			logger.Warn("BearerTokenAuth 验证失败: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "token验证失败"})
			c.Abort()
			return
		}

		c.Set("operator", subject)
		c.Next()
	}
}
