package deadreckoning

import "github.com/charmbracelet/log"

var logger = log.WithPrefix("deadreckoning")

// SetLogger replaces the package logger. A nil logger is ignored.
func SetLogger(l *log.Logger) {
	if l != nil {
		logger = l
	}
}
