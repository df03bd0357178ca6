package syntrazap

import (
	"context"

	"go.uber.org/zap/zapcore"

	syntra "github.com/syntra-hq/syntra-go"
	"github.com/syntra-hq/syntra-go/event"
)

// Options configures the core.
type Options struct {
	// Client receives breadcrumbs and captures. The global client is
	// used when nil.
	Client *syntra.Client

	// Enabler decides which entries reach the core at all. Defaults
	// to DebugLevel and above.
	Enabler zapcore.LevelEnabler

	// CaptureLevel decides which entries are captured as events.
	// Defaults to ErrorLevel and above.
	CaptureLevel zapcore.LevelEnabler

	// ForwardLogs additionally ships every entry to the logs queue.
	ForwardLogs bool
}

type core struct {
	opts    Options
	enab    zapcore.LevelEnabler
	capture zapcore.LevelEnabler
	fields  []zapcore.Field
}

var _ zapcore.Core = (*core)(nil)

// NewCore builds a zapcore.Core that mirrors entries into Syntra.
func NewCore(opts Options) zapcore.Core {
	enab := opts.Enabler
	if enab == nil {
		enab = zapcore.DebugLevel
	}
	capture := opts.CaptureLevel
	if capture == nil {
		capture = zapcore.ErrorLevel
	}
	return &core{opts: opts, enab: enab, capture: capture}
}

func (c *core) Enabled(lvl zapcore.Level) bool {
	return c.enab.Enabled(lvl)
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(c.fields[:len(c.fields):len(c.fields)], fields...)
	return &clone
}

func (c *core) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *core) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	client := c.opts.Client
	if client == nil {
		client = syntra.CurrentClient()
	}
	if client == nil {
		return nil
	}

	all := append(c.fields[:len(c.fields):len(c.fields)], fields...)
	enc := zapcore.NewMapObjectEncoder()
	for i := range all {
		all[i].AddTo(enc)
	}

	ctx := context.Background()

	data := map[string]any{
		"logger": entry.LoggerName,
		"level":  entry.Level.String(),
	}
	for k, v := range enc.Fields {
		data[k] = v
	}
	client.AddBreadcrumb(ctx, event.Breadcrumb{
		Category: "logging",
		Message:  entry.Message,
		Level:    breadcrumbLevel(entry.Level),
		Data:     data,
	})

	if c.capture.Enabled(entry.Level) {
		tags := map[string]string{}
		if entry.LoggerName != "" {
			tags["logger"] = entry.LoggerName
		}
		if wrapped := errorField(all); wrapped != nil {
			client.CaptureException(ctx, wrapped,
				syntra.WithTags(tags),
				syntra.WithExtras(enc.Fields),
			)
		} else {
			client.CaptureMessage(ctx, entry.Message, logLevel(entry.Level),
				syntra.WithTags(tags),
				syntra.WithExtras(enc.Fields),
			)
		}
	}

	if c.opts.ForwardLogs {
		attrs := event.Attributes{}
		attrs.Set("logger", entry.LoggerName)
		for i := range all {
			attrs.Set(all[i].Key, enc.Fields[all[i].Key])
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

func (c *core) Sync() error {
	client := c.opts.Client
	if client == nil {
		client = syntra.CurrentClient()
	}
	if client == nil {
		return nil
	}
	return client.Flush(context.Background())
}

// errorField returns the first error carried by the fields.
func errorField(fields []zapcore.Field) error {
	for i := range fields {
		if fields[i].Type == zapcore.ErrorType {
			if err, ok := fields[i].Interface.(error); ok {
				return err
			}
		}
	}
	return nil
}

func breadcrumbLevel(lvl zapcore.Level) event.BreadcrumbLevel {
	switch {
	case lvl <= zapcore.DebugLevel:
		return event.BreadcrumbLevelDebug
	case lvl == zapcore.InfoLevel:
		return event.BreadcrumbLevelInfo
	case lvl == zapcore.WarnLevel:
		return event.BreadcrumbLevelWarning
	case lvl == zapcore.ErrorLevel:
		return event.BreadcrumbLevelError
	default:
		return event.BreadcrumbLevelFatal
	}
}

func logLevel(lvl zapcore.Level) event.LogLevel {
	switch {
	case lvl <= zapcore.DebugLevel:
		return event.LogLevelDebug
	case lvl == zapcore.InfoLevel:
		return event.LogLevelInfo
	case lvl == zapcore.WarnLevel:
		return event.LogLevelWarn
	case lvl == zapcore.ErrorLevel:
		return event.LogLevelError
	default:
		return event.LogLevelFatal
	}
}
