package logger

import (
	"fmt"
	"io"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// fileLogMaxAge is how long rotated log files are kept.
	fileLogMaxAge = 24 * time.Hour
	// fileLogRotationTime is how often a new log file is started.
	fileLogRotationTime = time.Hour
)

// AttachFile tees the global logger into JSON log files named by pattern,
// a strftime pattern such as "electron-stager-%Y%m%d%H.log". Files rotate
// hourly and are kept for a day. Close the returned closer on exit.
func AttachFile(pattern string) (io.Closer, error) {
	writer, err := rotatelogs.New(
		pattern,
		rotatelogs.WithMaxAge(fileLogMaxAge),
		rotatelogs.WithRotationTime(fileLogRotationTime),
	)
	if err != nil {
		return nil, fmt.Errorf("open log file %q: %w", pattern, err)
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(writer),
		defaultLevel,
	)

	SetLogger(global.Desugar().WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})).Sugar())

	return writer, nil
}
