package util

import (
	"time"

	"go.uber.org/zap"
)

// Trace logs msg at debug level and returns a func that logs the elapsed
// time when called. Typical use:
//
//	defer util.Trace(log, "segment")()
func Trace(log *zap.Logger, msg string, fields ...zap.Field) func() {
	start := time.Now()
	log.Debug(msg+" start", fields...)
	return func() {
		log.Debug(msg+" done", append(fields, zap.Duration("elapsed", time.Since(start)))...)
	}
}
