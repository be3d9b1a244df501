package bot

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Webhook returns a gin handler that accepts Telegram webhook deliveries.
// Malformed bodies get a 400; everything else is acknowledged with 200 so
// Telegram does not redeliver updates the bot chose to ignore.
func (h *Handler) Webhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			h.log.WithError(err).Warn("rejected malformed webhook body")
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		h.HandleUpdate(c.Request.Context(), update)
		c.Status(http.StatusOK)
	}
}
