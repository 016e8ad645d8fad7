package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/pocha/restic-api/models"
)

// streamEvents writes a server-sent-event frame per stream event and
// flushes after each one so callers see progress in real time. The
// client disconnecting cancels the request context, which kills the
// underlying subprocess.
func streamEvents(c echo.Context, events <-chan models.StreamEvent) error {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)

	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			logrus.WithError(err).Error("Failed to encode stream event")
			continue
		}
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", data); err != nil {
			// Client is gone; the context cancellation tears down the job.
			return nil
		}
		resp.Flush()
	}
	return nil
}
