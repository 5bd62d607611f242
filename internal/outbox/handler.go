package outbox

import (
	"net/http"
	"strings"

	"lead_automation_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler exposes read-only views over the sink.
type Handler struct {
	sink *Sink
}

// NewHandler creates the outbox viewer.
func NewHandler(sink *Sink) *Handler {
	return &Handler{sink: sink}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:kind", h.List)
	rg.GET("/:kind/:name", h.Get)
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.sink.List(c.Request.Context(), Kind(c.Param("kind")))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"kind": c.Param("kind"), "items": items})
}

// Get returns one artifact as raw content. For the notifications kind the
// name "log" is an alias of the log file.
func (h *Handler) Get(c *gin.Context) {
	kind := Kind(c.Param("kind"))
	name := c.Param("name")

	var (
		data []byte
		err  error
	)
	if kind == KindNotification && name == "log" {
		data, err = h.sink.ReadNotifications(c.Request.Context())
		name = NotificationLogName
	} else {
		data, err = h.sink.Read(c.Request.Context(), kind, name)
	}
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, contentTypeFor(name), data)
}

func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	case strings.HasSuffix(name, ".eml"):
		return "message/rfc822"
	case strings.HasSuffix(name, ".md"):
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
