// Package log is the client's diagnostic log: logrus writing to a daily file,
// silent unless logs.write is enabled.
package log

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/plst4-cli/plst4/filesystem"
	"github.com/plst4-cli/plst4/key"
	"github.com/plst4-cli/plst4/where"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var enabled bool

// Setup opens today's log file and applies the configured format and level.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	path := filepath.Join(dir, time.Now().Format("2006-01-02")+".log")
	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	return nil
}

// With returns a structured entry carrying the given key/value pairs.
// Odd trailing keys are dropped.
func With(kv ...any) *Entry {
	fields := make(logrus.Fields, len(kv)/2)
	for _, pair := range lo.Chunk(kv, 2) {
		if len(pair) != 2 {
			break
		}
		fields[fmt.Sprint(pair[0])] = pair[1]
	}
	return &Entry{fields: fields}
}

// Entry is a set of fields attached to the next emission.
type Entry struct {
	fields logrus.Fields
}

func (e *Entry) Error(msg string) { e.emit(logrus.ErrorLevel, msg) }
func (e *Entry) Warn(msg string)  { e.emit(logrus.WarnLevel, msg) }
func (e *Entry) Info(msg string)  { e.emit(logrus.InfoLevel, msg) }
func (e *Entry) Debug(msg string) { e.emit(logrus.DebugLevel, msg) }

func (e *Entry) emit(level logrus.Level, msg string) {
	if enabled {
		logrus.WithFields(e.fields).Log(level, msg)
	}
}

func Error(args ...any) {
	if enabled {
		logrus.Error(args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}

func Warn(args ...any) {
	if enabled {
		logrus.Warn(args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}

func Info(args ...any) {
	if enabled {
		logrus.Info(args...)
	}
}

func Infof(format string, args ...any) {
	if enabled {
		logrus.Infof(format, args...)
	}
}

func Debugf(format string, args ...any) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
