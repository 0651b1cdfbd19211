package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the process logger. Development gets a console writer with
// debug enabled; otherwise JSON at the parsed level (info if unparseable).
func Setup(dev bool, level string) zerolog.Logger {
	return New(os.Stderr, dev, level)
}

func New(out io.Writer, dev bool, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if dev && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(lvl).With().Stack().Logger()
	}

	return logger
}
