package config

import (
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/treestorm/internal/engine"
	"github.com/dshills/treestorm/internal/engine/editor"
	"github.com/dshills/treestorm/internal/engine/history"
	"github.com/dshills/treestorm/internal/engine/schema"
	"github.com/dshills/treestorm/internal/engine/script"
	"github.com/dshills/treestorm/internal/engine/tracking"
)

// Config is the complete engine configuration.
type Config struct {
	History   HistoryConfig   `toml:"history" yaml:"history"`
	Normalize NormalizeConfig `toml:"normalize" yaml:"normalize"`
	Tracking  TrackingConfig  `toml:"tracking" yaml:"tracking"`
	Log       LogConfig       `toml:"log" yaml:"log"`
	Elements  ElementsConfig  `toml:"elements" yaml:"elements"`
	Script    ScriptConfig    `toml:"script" yaml:"script"`
	Schema    SchemaConfig    `toml:"schema" yaml:"schema"`
}

// HistoryConfig configures undo/redo.
type HistoryConfig struct {
	// MaxUndos is the maximum number of undo batches.
	MaxUndos int `toml:"max_undos" yaml:"max_undos"`
}

// NormalizeConfig configures the normalization loop.
type NormalizeConfig struct {
	// IterationFactor caps a pass at this many iterations per dirty path.
	IterationFactor int `toml:"iteration_factor" yaml:"iteration_factor"`
}

// TrackingConfig configures the change log.
type TrackingConfig struct {
	MaxChanges   int `toml:"max_changes" yaml:"max_changes"`
	MaxRevisions int `toml:"max_revisions" yaml:"max_revisions"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
}

// ElementsConfig names the element types treated as inline or void.
type ElementsConfig struct {
	Inline []string `toml:"inline" yaml:"inline"`
	Void   []string `toml:"void" yaml:"void"`
}

// ScriptConfig configures Lua normalize callbacks.
type ScriptConfig struct {
	// Timeout bounds one callback run, as a Go duration string.
	Timeout string `toml:"timeout" yaml:"timeout"`
}

// SchemaConfig holds declarative schema rules.
type SchemaConfig struct {
	Rules []schema.RuleSpec `toml:"rules" yaml:"rules"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		History:   HistoryConfig{MaxUndos: history.DefaultMaxUndos},
		Normalize: NormalizeConfig{IterationFactor: editor.DefaultIterationFactor},
		Tracking: TrackingConfig{
			MaxChanges:   tracking.DefaultMaxChanges,
			MaxRevisions: tracking.DefaultMaxRevisions,
		},
		Log:    LogConfig{Level: "warn"},
		Script: ScriptConfig{Timeout: script.DefaultExecutionTimeout.String()},
	}
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks every setting and returns FieldErrors listing all
// failures, or nil.
func (c *Config) Validate() error {
	var errs FieldErrors
	add := func(path, msg string, value any) {
		errs = append(errs, &FieldError{Key: path, Problem: msg, Value: value})
	}

	if c.History.MaxUndos <= 0 {
		add("history.max_undos", "must be positive", c.History.MaxUndos)
	}
	if c.Normalize.IterationFactor <= 0 {
		add("normalize.iteration_factor", "must be positive", c.Normalize.IterationFactor)
	}
	if c.Tracking.MaxChanges <= 0 {
		add("tracking.max_changes", "must be positive", c.Tracking.MaxChanges)
	}
	if c.Tracking.MaxRevisions <= 0 {
		add("tracking.max_revisions", "must be positive", c.Tracking.MaxRevisions)
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		add("log.level", "must be one of debug, info, warn, error", c.Log.Level)
	}
	if d, err := time.ParseDuration(c.Script.Timeout); err != nil || d <= 0 {
		add("script.timeout", "must be a positive duration", c.Script.Timeout)
	}
	for i, typ := range c.Elements.Inline {
		if typ == "" {
			add(fmt.Sprintf("elements.inline[%d]", i), "must not be empty", typ)
		}
	}
	for i, typ := range c.Elements.Void {
		if typ == "" {
			add(fmt.Sprintf("elements.void[%d]", i), "must not be empty", typ)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LogLevel returns the zap level for Log.Level.
func (c *Config) LogLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.WarnLevel
	}
	return lvl
}

// ScriptTimeout returns the parsed script timeout.
func (c *Config) ScriptTimeout() time.Duration {
	d, err := time.ParseDuration(c.Script.Timeout)
	if err != nil || d <= 0 {
		return script.DefaultExecutionTimeout
	}
	return d
}

// HasScripts reports whether any schema rule carries normalize source.
func (c *Config) HasScripts() bool {
	return slices.ContainsFunc(c.Schema.Rules, func(r schema.RuleSpec) bool {
		return r.Normalize != ""
	})
}

// BuildSchema compiles the schema rules. It returns nil when there are no
// rules. compiler may be nil unless HasScripts.
func (c *Config) BuildSchema(compiler schema.Compiler, logger *zap.Logger) (*schema.Schema, error) {
	if len(c.Schema.Rules) == 0 {
		return nil, nil
	}
	rules, err := schema.Compile(c.Schema.Rules, compiler)
	if err != nil {
		return nil, err
	}
	return schema.New(
		schema.WithRules(rules...),
		schema.WithInline(c.Elements.Inline...),
		schema.WithVoid(c.Elements.Void...),
		schema.WithLogger(logger),
	), nil
}

// EngineOptions returns the engine options for c. A Lua runtime is created
// when a rule needs one; the caller closes it.
func (c *Config) EngineOptions(logger *zap.Logger) ([]engine.Option, *script.Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var rt *script.Runtime
	if c.HasScripts() {
		rt = script.NewRuntime(
			script.WithTimeout(c.ScriptTimeout()),
			script.WithLogger(logger.Named("script")),
		)
	}

	var compiler schema.Compiler
	if rt != nil {
		compiler = rt
	}
	s, err := c.BuildSchema(compiler, logger.Named("schema"))
	if err != nil {
		if rt != nil {
			rt.Close()
		}
		return nil, nil, err
	}

	opts := []engine.Option{
		engine.WithMaxUndos(c.History.MaxUndos),
		engine.WithIterationFactor(c.Normalize.IterationFactor),
		engine.WithMaxChanges(c.Tracking.MaxChanges),
		engine.WithMaxRevisions(c.Tracking.MaxRevisions),
		engine.WithInlineTypes(c.Elements.Inline...),
		engine.WithVoidTypes(c.Elements.Void...),
		engine.WithLogger(logger),
	}
	if s != nil {
		opts = append(opts, engine.WithSchema(s))
	}
	return opts, rt, nil
}
