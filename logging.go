package tripbridge

import (
	"os"

	logging "github.com/op/go-logging"
)

var logFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.7s} %{module} %{message}`,
)

// SetupLogging installs the process-wide logging backend. The level from
// TRIPBRIDGE_LOG_LEVEL overrides defaultLevel when set.
func SetupLogging(prefix string, defaultLevel logging.Level) *logging.Logger {
	backend := logging.NewLogBackend(os.Stderr, prefix, 0)
	logging.SetFormatter(logFormat)
	leveled := logging.AddModuleLevel(backend)
	switch os.Getenv("TRIPBRIDGE_LOG_LEVEL") {
	case "CRITICAL":
		leveled.SetLevel(logging.CRITICAL, "")
	case "ERROR":
		leveled.SetLevel(logging.ERROR, "")
	case "WARNING":
		leveled.SetLevel(logging.WARNING, "")
	case "NOTICE":
		leveled.SetLevel(logging.NOTICE, "")
	case "INFO":
		leveled.SetLevel(logging.INFO, "")
	case "DEBUG":
		leveled.SetLevel(logging.DEBUG, "")
	default:
		leveled.SetLevel(defaultLevel, "")
	}
	logging.SetBackend(leveled)
	return logging.MustGetLogger("tripbridge")
}
