package syntra

import (
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/syntra-hq/syntra-go/event"
)

const (
	maxStackFrames = 64
	sdkModule      = "github.com/syntra-hq/syntra-go"
)

// stackClassifier decides whether a frame belongs to application code.
type stackClassifier struct {
	include []string
	exclude []string
}

func newStackClassifier(opts *Options) *stackClassifier {
	return &stackClassifier{
		include: opts.InAppInclude,
		exclude: opts.InAppExclude,
	}
}

// inApp classifies a frame. Configured include globs win, then exclude
// globs, then the defaults: SDK frames, the standard library, and
// anything from the module cache or a vendor tree are not application
// code.
func (c *stackClassifier) inApp(file, module string) bool {
	for _, pattern := range c.include {
		if ok, err := doublestar.Match(pattern, file); err == nil && ok {
			return true
		}
	}
	for _, pattern := range c.exclude {
		if ok, err := doublestar.Match(pattern, file); err == nil && ok {
			return false
		}
	}

	if module == sdkModule || strings.HasPrefix(module, sdkModule+"/") {
		return false
	}
	if module != "main" {
		first, _, _ := strings.Cut(module, "/")
		if !strings.Contains(first, ".") {
			return false
		}
	}
	if strings.Contains(file, "/pkg/mod/") || strings.Contains(file, "/vendor/") {
		return false
	}
	return true
}

// captureStacktrace walks the calling goroutine's stack and returns it
// most recent frame first. skip drops that many extra frames beyond
// this function itself.
func captureStacktrace(skip int, c *stackClassifier) []event.StackFrame {
	pcs := make([]uintptr, maxStackFrames)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return []event.StackFrame{}
	}

	frames := runtime.CallersFrames(pcs[:n])
	out := make([]event.StackFrame, 0, n)
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			module, function := splitFunction(frame.Function)
			out = append(out, event.StackFrame{
				Filename: frame.File,
				Function: function,
				Module:   module,
				Lineno:   frame.Line,
				InApp:    c.inApp(frame.File, module),
			})
		}
		if !more {
			break
		}
	}
	return out
}

// splitFunction separates a qualified symbol such as
// "github.com/acme/shop/store.(*Cache).Get" into the package path and
// the function name.
func splitFunction(symbol string) (module, function string) {
	function = symbol
	slash := strings.LastIndex(symbol, "/")
	if dot := strings.Index(symbol[slash+1:], "."); dot >= 0 {
		module = symbol[:slash+1+dot]
		function = symbol[slash+1+dot+1:]
	}
	return module, function
}
