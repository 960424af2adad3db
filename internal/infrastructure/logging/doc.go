// Package logging provides structured logging for the trade-in core.
//
// It wraps log/slog so that every component logs with the same handler,
// level and default fields (service, version). Packages that only need to
// emit log lines depend on a small Logger interface of their own and accept
// *logging.Logger through it.
//
// Configuration lives in the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// Raw manifest rows can contain customer-supplied text; log them at debug
// level only.
package logging
