package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

func Init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:            viper.GetString("log_file") == "",
		FullTimestamp:          true,
		TimestampFormat:        "2006-01-02 15:04:05",
		DisableLevelTruncation: false,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			filename := filepath.Base(f.File)
			return "", fmt.Sprintf(" %s:%d", filename, f.Line)
		},
	})
	logrus.SetReportCaller(true)

	switch {
	case viper.GetBool("debug") || viper.GetBool("verbose"):
		logrus.SetLevel(logrus.DebugLevel)
	case viper.GetString("log-level") != "":
		level, err := logrus.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			logrus.Fatalf("parsing log level: %v", err)
		}
		logrus.SetLevel(level)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	if path := viper.GetString("log_file"); path != "" {
		logrus.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    valueOr(viper.GetInt("log_max_size_mb"), 100),
			MaxBackups: valueOr(viper.GetInt("log_max_backups"), 3),
			MaxAge:     valueOr(viper.GetInt("log_max_age_days"), 7),
			Compress:   viper.GetBool("log_compress"),
		}))
	}
}

func valueOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
