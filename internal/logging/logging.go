package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger and returns it. Unknown levels
// fall back to info; format is "json" or anything else for text.
func Setup(level, format string) *logrus.Logger {
	return configure(logrus.StandardLogger(), os.Stderr, level, format)
}

func configure(l *logrus.Logger, out io.Writer, level, format string) *logrus.Logger {
	l.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// For returns an entry tagged with the component name.
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
