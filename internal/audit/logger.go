// Package audit records decision-trace events — one structured record
// per EvaluatePermission call — grounded in the teacher's
// internal/audit file-rotation writer, trimmed to this domain's single
// event shape. This is a record of what was decided and why, not a
// cache: nothing here is consulted to answer a future check (spec §9
// non-goal "caching of decisions").
package audit

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DecisionEvent is the record written for every permission check.
type DecisionEvent struct {
	Timestamp       time.Time
	UserID          string
	ResourceID      string
	Permission      string
	Allowed         bool
	Message         string
	MatchedPolicies []string
	DurationMicros  int64
}

// Logger records decision events. The zap-backed implementation never
// returns an error to the caller: a failed audit write must not fail
// the authorization decision it is describing.
type Logger interface {
	LogDecision(ev DecisionEvent)
	Sync() error
}

// FileConfig configures rotation for the on-disk audit log, mirroring
// the teacher's file_writer.go knobs.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// ZapLogger writes one JSON line per decision via zap, with rotation
// handled by lumberjack when FileConfig is non-nil.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger builds a Logger writing to stdout, or to a rotating
// file when cfg is non-nil.
func NewZapLogger(cfg *FileConfig) (*ZapLogger, error) {
	if cfg == nil {
		logger, err := zap.NewProduction()
		if err != nil {
			return nil, err
		}
		return &ZapLogger{logger: logger.Named("audit")}, nil
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	rotator := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxAge:     cfg.MaxAgeDays,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
		Compress:   cfg.Compress,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(rotator),
		zap.InfoLevel,
	)
	return &ZapLogger{logger: zap.New(core).Named("audit")}, nil
}

func (l *ZapLogger) LogDecision(ev DecisionEvent) {
	l.logger.Info("decision",
		zap.Time("ts", ev.Timestamp),
		zap.String("user_id", ev.UserID),
		zap.String("resource_id", ev.ResourceID),
		zap.String("permission", ev.Permission),
		zap.Bool("allowed", ev.Allowed),
		zap.String("message", ev.Message),
		zap.Strings("matched_policies", ev.MatchedPolicies),
		zap.Int64("duration_us", ev.DurationMicros),
	)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// NoopLogger discards every event; used when audit logging is disabled.
type NoopLogger struct{}

func (NoopLogger) LogDecision(DecisionEvent) {}
func (NoopLogger) Sync() error               { return nil }
