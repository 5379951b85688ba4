package server

import (
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// IdentityMiddleware trusts the X-User-ID header placed by the identity
// collaborator in front of this service. Token verification happens
// there, not here.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set("user_id", snowflake.ID(id))
		c.Next()
	}
}

func currentUserID(c *gin.Context) snowflake.ID {
	raw, ok := c.Get("user_id")
	if !ok {
		return 0
	}
	return raw.(snowflake.ID)
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidRequest
	}
	return snowflake.ID(id), nil
}
