// Package logging builds the process logger on top of log/slog.
//
// # Overview
//
// The logging package provides:
//   - JSON or text output at a configurable minimum level
//   - A console sink and a file sink rotated daily, hourly or never
//   - Masking of credential attributes (token, password, authorization)
//   - Context helpers that attach session fields to log records
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Logging))
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//	slog.SetDefault(logger.Logger)
//
//	ctx = logging.WithSessionID(ctx, id)
//	ctx = logging.WithUser(ctx, "alice")
//	logging.FromContext(ctx, nil).Info("relay started")
//
// # File Sink
//
// With Directory set, records are appended to <prefix>.<period>.log where
// period is 2006-01-02 for daily rotation and 2006-01-02-15 for hourly
// rotation. With rotation "never" the file is <prefix>.log.
package logging
