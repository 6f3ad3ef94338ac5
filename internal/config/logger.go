package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// AppName names the program logger
const AppName = "docpager"

type LoggerConfig struct {
	Level       string `yaml:"level" validate:"required,oneof=none debug normal"`
	Destination string `yaml:"destination,omitempty" validate:"required_unless=Level none"`
	Mode        string `yaml:"mode,omitempty" validate:"omitempty,oneof=append overwrite"`
}

type LoggingConfig struct {
	FileLogger    LoggerConfig  `yaml:"file"`
	ConsoleLogger ConsoleConfig `yaml:"console"`
}

type ConsoleConfig struct {
	Level string `yaml:"level" validate:"required,oneof=none debug normal"`
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}

func consoleEncoderConfig(stream *os.File) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if EnableColorOutput(stream) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return ec
}

// Prepare returns the program logger. Console output is split: errors go to
// stderr, everything below to stdout.
func (conf *LoggingConfig) Prepare() (*zap.Logger, error) {
	consoleEncoderLP := zapcore.NewConsoleEncoder(consoleEncoderConfig(os.Stdout))
	consoleEncoderHP := newEncoder(consoleEncoderConfig(os.Stderr))

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})
	lowPriority := func(from zapcore.Level) zap.LevelEnablerFunc {
		return func(lvl zapcore.Level) bool {
			return from <= lvl && lvl < zapcore.ErrorLevel
		}
	}

	var consoleCoreHP, consoleCoreLP zapcore.Core
	switch conf.ConsoleLogger.Level {
	case "normal":
		consoleCoreLP = zapcore.NewCore(consoleEncoderLP, zapcore.Lock(os.Stdout), lowPriority(zapcore.InfoLevel))
		consoleCoreHP = zapcore.NewCore(consoleEncoderHP, zapcore.Lock(os.Stderr), highPriority)
	case "debug":
		consoleCoreLP = zapcore.NewCore(consoleEncoderLP, zapcore.Lock(os.Stdout), lowPriority(zapcore.DebugLevel))
		consoleCoreHP = zapcore.NewCore(consoleEncoderHP, zapcore.Lock(os.Stderr), highPriority)
	default:
		consoleCoreLP = zapcore.NewNopCore()
		consoleCoreHP = zapcore.NewNopCore()
	}

	var level zapcore.Level
	switch conf.FileLogger.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "normal":
		level = zapcore.InfoLevel
	default:
		return zap.New(zapcore.NewTee(consoleCoreHP, consoleCoreLP), zap.AddCaller()).Named(AppName), nil
	}

	flags := os.O_CREATE | os.O_WRONLY
	if conf.FileLogger.Mode == "append" {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(conf.FileLogger.Destination, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to access file log destination (%s): %w", conf.FileLogger.Destination, err)
	}
	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(f), zap.NewAtomicLevelAt(level))

	return zap.New(zapcore.NewTee(consoleCoreHP, consoleCoreLP, fileCore), zap.AddCaller()).Named(AppName), nil
}

// When logging error to console - do not output verbose message.

type consoleEnc struct {
	zapcore.Encoder
}

func newEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return consoleEnc{zapcore.NewConsoleEncoder(cfg)}
}

func (c consoleEnc) Clone() zapcore.Encoder {
	return consoleEnc{c.Encoder.Clone()}
}

func (c consoleEnc) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	newFields := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == zapcore.ErrorType {
			e := f.Interface.(error)
			f.Interface = errors.New(e.Error())
		}
		newFields = append(newFields, f)
	}
	return c.Encoder.EncodeEntry(ent, newFields)
}
