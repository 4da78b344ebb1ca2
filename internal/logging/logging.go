package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the logger the core components emit through. Verbose enables
// debug level; logFile mirrors output into a file. The core never writes
// to the terminal except through this logger.
func New(verbose bool, logFile string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		log.SetOutput(io.MultiWriter(os.Stderr, file))
	}
	return log, nil
}

// Silence redirects a logger away from the terminal, keeping only the file
// sink if one was configured. Used while the TUI owns the screen.
func Silence(log *logrus.Logger, logFile string) {
	if logFile != "" {
		if file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			log.SetOutput(file)
			return
		}
	}
	log.SetOutput(io.Discard)
}
