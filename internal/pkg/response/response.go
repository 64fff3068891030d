package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the wire format shared by every API endpoint; the client
// gateway decodes the same struct.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Code: 0, Message: "ok", Data: data})
}

func Error(c *gin.Context, status, code int, message string) {
	c.JSON(status, Envelope{Code: code, Message: message})
}
