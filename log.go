package receiver

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var pkgLogger atomic.Pointer[log.Logger]

func init() {
	pkgLogger.Store(log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "receiver",
		Level:  log.WarnLevel,
	}))
}

// SetLogger replaces the package logger. A nil logger is ignored.
func SetLogger(l *log.Logger) {
	if l != nil {
		pkgLogger.Store(l)
	}
}

// Logger returns the package logger.
func Logger() *log.Logger {
	return pkgLogger.Load()
}
