// Package logging builds the process-wide structured logger.
//
// # Overview
//
// The logging package configures Go's standard log/slog package:
//   - JSON or text output
//   - Configurable log levels (debug, info, warn, error)
//   - Optional source file and line
//   - Context-aware records: run and request identifiers stored in the
//     context are added to every record logged with a *Context method
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRunID(ctx, runID)
//	slog.Default().InfoContext(ctx, "moved item", "source", src)
//	// {"level":"INFO","msg":"moved item","source":"/a","run_id":"..."}
package logging
