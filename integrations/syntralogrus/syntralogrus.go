package syntralogrus

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	syntra "github.com/syntra-hq/syntra-go"
	"github.com/syntra-hq/syntra-go/event"
)

// Options configures the hook.
type Options struct {
	// Client receives breadcrumbs and captures. The global client is
	// used when nil.
	Client *syntra.Client

	// Levels the hook fires for. All levels when nil.
	Levels []logrus.Level

	// CaptureLevel is the least severe level captured as an event.
	// Defaults to logrus.ErrorLevel.
	CaptureLevel logrus.Level

	// ForwardLogs additionally ships every entry to the logs queue.
	ForwardLogs bool
}

// Hook implements logrus.Hook.
type Hook struct {
	opts   Options
	levels []logrus.Level
}

var _ logrus.Hook = (*Hook)(nil)

// New builds a Hook from opts.
func New(opts Options) *Hook {
	if opts.CaptureLevel == 0 {
		opts.CaptureLevel = logrus.ErrorLevel
	}
	levels := opts.Levels
	if levels == nil {
		levels = logrus.AllLevels
	}
	return &Hook{opts: opts, levels: levels}
}

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

// Fire implements logrus.Hook.
func (h *Hook) Fire(entry *logrus.Entry) error {
	client := h.opts.Client
	if client == nil {
		client = syntra.CurrentClient()
	}
	if client == nil {
		return nil
	}

	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}

	data := map[string]any{"level": entry.Level.String()}
	for k, v := range entry.Data {
		data[k] = v
	}
	if entry.Caller != nil {
		data["pathname"] = entry.Caller.File
		data["lineno"] = entry.Caller.Line
	}
	client.AddBreadcrumb(ctx, event.Breadcrumb{
		Category: "logging",
		Message:  entry.Message,
		Level:    breadcrumbLevel(entry.Level),
		Data:     data,
	})

	if entry.Level <= h.opts.CaptureLevel {
		extras := map[string]any{"logger.level": entry.Level.String()}
		if entry.Caller != nil {
			extras["logger.pathname"] = entry.Caller.File
			extras["logger.lineno"] = entry.Caller.Line
		}
		for k, v := range entry.Data {
			if k != logrus.ErrorKey {
				extras[k] = v
			}
		}

		if err, ok := entry.Data[logrus.ErrorKey].(error); ok && err != nil {
			client.CaptureException(ctx, err, syntra.WithExtras(extras))
		} else {
			client.CaptureMessage(ctx, entry.Message, logLevel(entry.Level), syntra.WithExtras(extras))
		}
	}

	if h.opts.ForwardLogs {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		attrs := event.Attributes{}
		for _, k := range keys {
			attrs.Set(k, entry.Data[k])
		}
		client.CaptureLog(ctx, event.Log{
			Timestamp:  event.Timestamp(entry.Time),
			Level:      logLevel(entry.Level),
			Message:    entry.Message,
			Attributes: attrs,
		})
	}
	return nil
}

func breadcrumbLevel(lvl logrus.Level) event.BreadcrumbLevel {
	switch lvl {
	case logrus.PanicLevel, logrus.FatalLevel:
		return event.BreadcrumbLevelFatal
	case logrus.ErrorLevel:
		return event.BreadcrumbLevelError
	case logrus.WarnLevel:
		return event.BreadcrumbLevelWarning
	case logrus.DebugLevel, logrus.TraceLevel:
		return event.BreadcrumbLevelDebug
	default:
		return event.BreadcrumbLevelInfo
	}
}

func logLevel(lvl logrus.Level) event.LogLevel {
	switch lvl {
	case logrus.PanicLevel, logrus.FatalLevel:
		return event.LogLevelFatal
	case logrus.ErrorLevel:
		return event.LogLevelError
	case logrus.WarnLevel:
		return event.LogLevelWarn
	case logrus.DebugLevel:
		return event.LogLevelDebug
	case logrus.TraceLevel:
		return event.LogLevelTrace
	default:
		return event.LogLevelInfo
	}
}
