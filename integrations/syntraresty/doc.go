// Package syntraresty instruments resty clients.
//
//	rc := resty.New()
//	syntraresty.Instrument(rc, syntraresty.Options{})
//
// Every request gets a client span with the traceparent header
// injected, and every response an HTTP breadcrumb on the calling
// scope.
package syntraresty
