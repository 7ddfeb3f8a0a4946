// Package logging настраивает logrus для сервиса.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

type Options struct {
	Level  string
	Format string
	// File включает запись в файл с ротацией вместо stdout.
	File string
}

// New создаёт логгер по опциям. Неизвестный уровень возвращает ошибку.
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		lvl, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level = lvl
	}
	log.SetLevel(level)

	if strings.EqualFold(opts.Format, FormatText) {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	log.SetOutput(output(opts.File))

	return log, nil
}

func output(file string) io.Writer {
	if file == "" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   file,
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}
