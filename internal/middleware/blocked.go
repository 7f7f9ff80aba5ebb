package middleware

import (
	"time"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NotBlocked rejects write requests from users with an active block. Must run
// after Auth.
func NotBlocked(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		if userID == "" {
			c.Next()
			return
		}

		var count int64
		err := db.Model(&models.BlockModel{}).
			Where("blocked_user_id = ? AND unblocker_id IS NULL AND (end_time IS NULL OR end_time > ?)", userID, time.Now()).
			Count(&count).Error
		if err != nil {
			response.InternalError(c)
			return
		}
		if count > 0 {
			response.Forbidden(c, "Your account is suspended.")
			return
		}
		c.Next()
	}
}
