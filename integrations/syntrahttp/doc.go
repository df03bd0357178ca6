// Package syntrahttp instruments net/http servers and clients.
//
// On the server side, Handler wraps an http.Handler with trace
// continuation, per-request scope isolation, a server span, and panic
// capture:
//
//	mux := http.NewServeMux()
//	handler := syntrahttp.New(syntrahttp.Options{})
//	http.ListenAndServe(":8080", handler.Handle(mux))
//
// On the client side, Transport is an http.RoundTripper that starts a
// client span per request, injects the traceparent header, and leaves
// an HTTP breadcrumb:
//
//	httpClient := &http.Client{Transport: &syntrahttp.Transport{}}
package syntrahttp
