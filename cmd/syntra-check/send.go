package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/syntra-hq/syntra-go"
	"github.com/syntra-hq/syntra-go/event"
	"github.com/syntra-hq/syntra-go/trace"
)

var sendFlags struct {
	environment  string
	release      string
	transport    string
	otlpEndpoint string
	message      string
	timeout      time.Duration
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a test error, message, and span",
	Long: `Send initializes the SDK from SYNTRA_* environment variables and
flags, emits one error event, one message event, and one span, then
flushes and reports what was delivered.`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendFlags.environment, "environment", "", "environment tag for the test events")
	sendCmd.Flags().StringVar(&sendFlags.release, "release", "", "release tag for the test events")
	sendCmd.Flags().StringVar(&sendFlags.transport, "transport", "", `wire protocol: "http" or "otlp"`)
	sendCmd.Flags().StringVar(&sendFlags.otlpEndpoint, "otlp-endpoint", "", "collector base URL for the otlp transport")
	sendCmd.Flags().StringVar(&sendFlags.message, "message", "syntra-check connectivity test", "text of the test message event")
	sendCmd.Flags().DurationVar(&sendFlags.timeout, "timeout", 15*time.Second, "overall deadline for sending and flushing")
}

func runSend(cmd *cobra.Command, args []string) error {
	opts, err := syntra.LoadOptions()
	if err != nil {
		return err
	}
	if rootFlags.dsn != "" {
		opts.DSN = rootFlags.dsn
	}
	if rootFlags.debug {
		opts.Debug = true
	}
	if sendFlags.environment != "" {
		opts.Environment = sendFlags.environment
	}
	if sendFlags.release != "" {
		opts.Release = sendFlags.release
	}
	if sendFlags.transport != "" {
		opts.Transport = sendFlags.transport
	}
	if sendFlags.otlpEndpoint != "" {
		opts.OTLPEndpoint = sendFlags.otlpEndpoint
	}

	client, err := syntra.NewClient(*opts)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), sendFlags.timeout)
	defer cancel()

	ctx, sc := client.Isolate(ctx)
	sc.SetTag("origin", "syntra-check")

	span, ctx := client.StartSpan(ctx, "syntra-check send", trace.WithOp("check"))
	client.AddBreadcrumb(ctx, event.Breadcrumb{
		Type:     event.BreadcrumbDefault,
		Category: "check",
		Message:  "starting connectivity check",
	})

	msgID := client.CaptureMessage(ctx, sendFlags.message, event.LogLevelInfo)
	errID := client.CaptureException(ctx, errors.New("syntra-check test error"))
	span.End()

	if err := client.Flush(ctx); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	tc := span.SpanContext()
	fmt.Printf("message event  %s\n", orDropped(msgID))
	fmt.Printf("error event    %s\n", orDropped(errID))
	fmt.Printf("span           %s (trace %s)\n", tc.SpanID, tc.TraceID)
	fmt.Println("flushed, check the project's issue stream")
	return nil
}

func orDropped(id string) string {
	if id == "" {
		return "(dropped)"
	}
	return id
}
