// Package logging provides config-driven categorized logging for ordercloak.
// Behavior is controlled by the logging section of .ordercloak/config.yaml:
// debug_mode gates file output under .ordercloak/logs/, and categories can be
// silenced individually.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Category names one subsystem's log stream.
type Category string

const (
	CategoryBoot    Category = "boot"    // startup, config, shutdown
	CategoryDOM     Category = "dom"     // document parsing and mutation
	CategoryEngine  Category = "engine"  // hide/show state machine
	CategoryWatcher Category = "watcher" // mutation watcher
	CategoryStore   Category = "store"   // persistence
	CategoryDialog  Category = "dialog"  // tagging dialog
	CategoryParser  Category = "parser"  // order-card extraction
	CategoryCLI     Category = "cli"     // command surface
)

// Config is the logging section of .ordercloak/config.yaml.
type Config struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

type configFile struct {
	Logging Config `yaml:"logging"`
}

var (
	mu        sync.RWMutex
	cfg       Config
	root      = zap.NewNop()
	workspace string
)

// Initialize loads the config and builds the root logger. Missing config
// means console-only at info level; debug_mode additionally writes a
// date-prefixed file under .ordercloak/logs/. Call once at startup.
func Initialize(ws string) error {
	mu.Lock()
	defer mu.Unlock()

	workspace = ws
	cfg = loadConfig(ws)

	level := parseLevel(cfg.Level)
	if cfg.DebugMode {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}

	if cfg.DebugMode && ws != "" {
		logsDir := filepath.Join(ws, ".ordercloak", "logs")
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return fmt.Errorf("create logs directory: %w", err)
		}
		name := fmt.Sprintf("%s_ordercloak.log", time.Now().Format("2006-01-02"))
		file, err := os.OpenFile(filepath.Join(logsDir, name),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.EncodeTime = zapcore.EpochMillisTimeEncoder
		cores = append(cores,
			zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(file), zapcore.DebugLevel))
	}

	root = zap.New(zapcore.NewTee(cores...))
	root.Named(string(CategoryBoot)).Info("logging initialized",
		zap.String("workspace", ws),
		zap.Bool("debug_mode", cfg.DebugMode),
		zap.String("level", level.String()))
	return nil
}

// loadConfig reads .ordercloak/config.yaml. A missing or unreadable config
// yields the zero config.
func loadConfig(ws string) Config {
	if ws == "" {
		return Config{}
	}
	data, err := os.ReadFile(filepath.Join(ws, ".ordercloak", "config.yaml"))
	if err != nil {
		return Config{}
	}
	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: bad config: %v\n", err)
		return Config{}
	}
	return cf.Logging
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Root returns the root logger. A no-op logger before Initialize.
func Root() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Get returns the named logger for a category, or a no-op logger when the
// config disables that category. Categories absent from the config are
// enabled.
func Get(category Category) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if cfg.Categories != nil {
		if enabled, ok := cfg.Categories[string(category)]; ok && !enabled {
			return zap.NewNop()
		}
	}
	return root.Named(string(category))
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}
