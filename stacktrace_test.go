package syntra

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFunction(t *testing.T) {
	tests := []struct {
		symbol   string
		module   string
		function string
	}{
		{"main.main", "main", "main"},
		{"runtime.gopanic", "runtime", "gopanic"},
		{"net/http.(*conn).serve", "net/http", "(*conn).serve"},
		{"github.com/acme/shop/store.(*Cache).Get", "github.com/acme/shop/store", "(*Cache).Get"},
		{"github.com/acme/shop.handler.func1", "github.com/acme/shop", "handler.func1"},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			module, function := splitFunction(tt.symbol)
			assert.Equal(t, tt.module, module)
			assert.Equal(t, tt.function, function)
		})
	}
}

func TestInAppClassification(t *testing.T) {
	c := newStackClassifier(&Options{})

	tests := []struct {
		name   string
		file   string
		module string
		want   bool
	}{
		{"application package", "/src/shop/handler.go", "github.com/acme/shop", true},
		{"main package", "/src/shop/main.go", "main", true},
		{"standard library", "/usr/local/go/src/net/http/server.go", "net/http", false},
		{"runtime", "/usr/local/go/src/runtime/panic.go", "runtime", false},
		{"module cache", "/home/u/go/pkg/mod/github.com/gin-gonic/gin@v1.11.0/gin.go", "github.com/gin-gonic/gin", false},
		{"vendored dependency", "/src/shop/vendor/github.com/pkg/errors/errors.go", "github.com/pkg/errors", false},
		{"sdk frames", "/home/u/go/pkg/mod/github.com/syntra-hq/syntra-go@v0.1.0/client.go", sdkModule, false},
		{"sdk subpackage", "/home/u/go/pkg/mod/github.com/syntra-hq/syntra-go@v0.1.0/trace/span.go", sdkModule + "/trace", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.inApp(tt.file, tt.module))
		})
	}

	t.Run("exclude globs", func(t *testing.T) {
		c := newStackClassifier(&Options{InAppExclude: []string{"**/generated/**"}})
		assert.False(t, c.inApp("/src/shop/generated/api.go", "github.com/acme/shop"))
		assert.True(t, c.inApp("/src/shop/handler.go", "github.com/acme/shop"))
	})

	t.Run("include globs win over everything", func(t *testing.T) {
		c := newStackClassifier(&Options{
			InAppInclude: []string{"**/gin@*/**"},
			InAppExclude: []string{"**/gin@*/**"},
		})
		assert.True(t, c.inApp("/home/u/go/pkg/mod/github.com/gin-gonic/gin@v1.11.0/gin.go", "github.com/gin-gonic/gin"))
	})
}

func TestCaptureStacktrace(t *testing.T) {
	c := newStackClassifier(&Options{})
	frames := captureStacktrace(0, c)
	require.NotEmpty(t, frames)

	// Most recent call first: this test function leads, the testing
	// harness trails.
	assert.Contains(t, frames[0].Function, "TestCaptureStacktrace")
	assert.Equal(t, sdkModule, frames[0].Module)
	assert.True(t, strings.HasSuffix(frames[0].Filename, "stacktrace_test.go"))
	assert.Positive(t, frames[0].Lineno)
	assert.False(t, frames[0].InApp)

	var harness bool
	for _, f := range frames[1:] {
		if f.Module == "testing" {
			harness = true
			assert.False(t, f.InApp)
		}
	}
	assert.True(t, harness, "expected a testing package frame below the test")
}

func TestCaptureStacktraceSkip(t *testing.T) {
	c := newStackClassifier(&Options{})
	var skipped []string
	func() {
		for _, f := range captureStacktrace(1, c) {
			skipped = append(skipped, f.Function)
		}
	}()
	require.NotEmpty(t, skipped)
	assert.NotContains(t, skipped[0], "func1")
	assert.Contains(t, skipped[0], "TestCaptureStacktraceSkip")
}
