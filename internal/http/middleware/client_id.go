package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ClientIDHeader carries the id of the client whose login session a request acts on
const ClientIDHeader = "X-Client-ID"

// ClientID resolves the client id of the request. Clients without one are
// assigned a fresh id, returned in the response header for reuse.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(ClientIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(ClientIDHeader, id)
		c.Set(ClientIDKey, id)
		c.Next()
	}
}
