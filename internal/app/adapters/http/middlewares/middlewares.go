package middlewares

import (
	"chatcore/internal/app/adapters/metrics"
	"chatcore/internal/app/infrastructure/config"
	"crypto/subtle"
	"github.com/gin-gonic/gin"
	"net/http"
	"strconv"
	"strings"
)

type Middlewares struct {
	manager *config.Manager
}

func New(manager *config.Manager) *Middlewares {
	return &Middlewares{manager: manager}
}

// Auth пускает с "Authorization: Bearer <token>" или ?token= (браузерный websocket
// не умеет ставить заголовки). Пустой токен в конфиге закрывает API полностью.
func (m *Middlewares) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := m.manager.Get().App.AuthToken

		token := c.Query("token")
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}

		if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func (m *Middlewares) Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
