package scope

import (
	"fmt"
	"time"

	"github.com/syntra-hq/syntra-go/event"
)

const maxQueryMessageLen = 100

// HTTPBreadcrumb builds a breadcrumb for an outgoing or incoming HTTP
// request. statusCode <= 0 means the status is not yet known; a status
// of 400 or higher marks the breadcrumb as an error. duration <= 0 is
// omitted from the data.
func HTTPBreadcrumb(method, url string, statusCode int, duration time.Duration) event.Breadcrumb {
	level := event.BreadcrumbLevelInfo
	if statusCode >= 400 {
		level = event.BreadcrumbLevelError
	}

	data := map[string]any{
		"method": method,
		"url":    url,
	}
	if statusCode > 0 {
		data["status_code"] = statusCode
	}
	if duration > 0 {
		data["duration_ms"] = durationMS(duration)
	}

	return event.Breadcrumb{
		Type:     event.BreadcrumbHTTP,
		Category: "http",
		Message:  fmt.Sprintf("%s %s", method, url),
		Data:     data,
		Level:    level,
	}
}

// QueryBreadcrumb builds a breadcrumb for a database query. The
// message is the query truncated to 100 characters. duration <= 0 and
// rowsAffected < 0 are omitted from the data.
func QueryBreadcrumb(query string, duration time.Duration, rowsAffected int64) event.Breadcrumb {
	message := query
	if len(message) > maxQueryMessageLen {
		message = message[:maxQueryMessageLen] + "..."
	}

	data := map[string]any{"query": query}
	if duration > 0 {
		data["duration_ms"] = durationMS(duration)
	}
	if rowsAffected >= 0 {
		data["rows_affected"] = rowsAffected
	}

	return event.Breadcrumb{
		Type:     event.BreadcrumbQuery,
		Category: "db.query",
		Message:  message,
		Data:     data,
		Level:    event.BreadcrumbLevelInfo,
	}
}

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
