package logger

import (
	"io"
	"time"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger and returns an entry tagged
// with the component name.
func Setup(component string, debug bool, out io.Writer) *log.Entry {
	formatter := &log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
	log.SetFormatter(formatter)
	log.SetOutput(out)
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	return log.WithField("component", component)
}
