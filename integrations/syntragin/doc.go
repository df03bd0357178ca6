// Package syntragin instruments gin applications.
//
// The middleware continues traces from incoming headers, isolates a
// scope per request, records a server span around each handler, and
// captures panics:
//
//	router := gin.New()
//	router.Use(syntragin.New(syntragin.Options{}))
//
// Health-check style endpoints are skipped; see DefaultExcludePaths.
package syntragin
