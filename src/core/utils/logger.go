package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogLevel 日志级别
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// ParseLogLevel 解析配置中的日志级别，未知值按 INFO 处理
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// LogCfg 日志配置
type LogCfg struct {
	LogLevel string
	LogDir   string
	LogFile  string
}

// Logger 分级日志，printf 风格调用
type Logger struct {
	mu     *sync.RWMutex
	level  *LogLevel
	prefix string
	std    *log.Logger
	file   *os.File
}

// NewLogger 根据配置创建日志；LogDir/LogFile 为空时仅输出到标准输出
func NewLogger(cfg *LogCfg) (*Logger, error) {
	level := ParseLogLevel(cfg.LogLevel)
	var out io.Writer = os.Stdout
	var file *os.File
	if cfg.LogDir != "" && cfg.LogFile != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(cfg.LogDir, cfg.LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}
	return &Logger{
		mu:    &sync.RWMutex{},
		level: &level,
		std:   log.New(out, "", log.LstdFlags|log.Lmicroseconds),
		file:  file,
	}, nil
}

// NewWriterLogger 输出到指定 writer，测试中常用
func NewWriterLogger(w io.Writer, level LogLevel) *Logger {
	return &Logger{
		mu:    &sync.RWMutex{},
		level: &level,
		std:   log.New(w, "", log.LstdFlags),
	}
}

// SetLevel 修改日志级别（对派生的前缀日志同样生效）
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.level = level
}

func (l *Logger) enabled(level LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= *l.level
}

// WithPrefix 派生带前缀的日志，共享输出与级别
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{
		mu:     l.mu,
		level:  l.level,
		prefix: prefix,
		std:    l.std,
		file:   l.file,
	}
}

func (l *Logger) output(level LogLevel, format string, args ...interface{}) {
	if l == nil || !l.enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = fmt.Sprintf("[%s] [%s] %s", levelNames[level], l.prefix, msg)
	} else {
		msg = fmt.Sprintf("[%s] %s", levelNames[level], msg)
	}
	_ = l.std.Output(3, msg)
}

func (l *Logger) Debug(format string, args ...interface{}) { l.output(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.output(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.output(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.output(ERROR, format, args...) }

// Close 关闭日志文件
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
