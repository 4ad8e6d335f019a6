package middleware

import (
	"fmt"
	"log"
	"net/http"

	"wealth-planner/internal/api/models"

	"github.com/gin-gonic/gin"
)

// ErrorHandler middleware recovers from panics in handlers and answers with
// the standard error envelope
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("ErrorHandler: recovered panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		message := "An unexpected error occurred"
		switch v := recovered.(type) {
		case string:
			message = v
		case error:
			message = v.Error()
		case fmt.Stringer:
			message = v.String()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: message,
			},
		})
	})
}
