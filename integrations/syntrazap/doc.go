// Package syntrazap mirrors zap log entries into Syntra.
//
// The core is meant to be teed next to the application's real core:
//
//	logger := zap.New(zapcore.NewTee(
//		consoleCore,
//		syntrazap.NewCore(syntrazap.Options{}),
//	))
//
// Every entry becomes a breadcrumb. Entries at ErrorLevel and above
// are captured as events; when the entry carries a zap.Error field the
// wrapped error is captured with its type, otherwise the message is
// captured. Options.ForwardLogs additionally ships entries to the logs
// queue.
package syntrazap
