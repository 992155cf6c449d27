package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger оборачивает logrus
type Logger struct {
	*logrus.Logger
}

// Options настройки логгера
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json или text
}

// New создает логгер с JSON-форматом по умолчанию.
// Пустой уровень берётся из LOG_LEVEL.
func New(opts Options) *Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if strings.EqualFold(opts.Format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	level := opts.Level
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Logger: log}
}

// Component возвращает запись с полем component
func (l *Logger) Component(name string) *logrus.Entry {
	return l.WithField("component", name)
}

// Discard логгер для тестов, ничего не пишет
func Discard() *Logger {
	log := logrus.New()
	log.SetOutput(discard{})
	return &Logger{Logger: log}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
