package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// streamSnapshots forwards every snapshot from ch as one SSE event until the
// client disconnects or the store closes the stream.
func streamSnapshots[T any](c *gin.Context, event string, ch <-chan []T) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, ok := <-ch:
			if !ok {
				return false
			}
			if snapshot == nil {
				snapshot = []T{}
			}
			c.SSEvent(event, snapshot)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func (s *HTTPServer) handleStreamServices(c *gin.Context) {
	streamSnapshots(c, "services", s.deps.Streams.Services(c.Request.Context()))
}

func (s *HTTPServer) handleStreamCategories(c *gin.Context) {
	streamSnapshots(c, "categories", s.deps.Streams.Categories(c.Request.Context()))
}

func (s *HTTPServer) handleStreamBookings(c *gin.Context) {
	streamSnapshots(c, "bookings", s.deps.Streams.Bookings(c.Request.Context()))
}
