// Package syntralogrus mirrors logrus entries into Syntra.
//
//	logger := logrus.New()
//	logger.AddHook(syntralogrus.New(syntralogrus.Options{}))
//
// Every entry becomes a breadcrumb on the scope visible from the
// entry's context. Entries at ErrorLevel and above are captured: the
// logrus error field when present, the message otherwise.
package syntralogrus
