package utils

import (
	"github.com/gin-gonic/gin"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}

// JSONRejection sends a business rejection: the machine-readable reason plus
// any retry hint (e.g. the minimum acceptable bid) supplied by the caller.
func JSONRejection(c *gin.Context, status int, reason string, hint any) {
	c.JSON(status, gin.H{
		"status": status,
		"reason": reason,
		"hint":   hint,
	})
}
