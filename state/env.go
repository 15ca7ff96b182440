// Package state keeps per-run program state which travels with context.
package state

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"h2d/config"
)

// ConvertFlags holds command line overrides of convert subcommand.
type ConvertFlags struct {
	NoDirs     bool
	Overwrite  bool
	HeaderFile string
	FooterFile string
	// CodePage forces decoding of non UTF-8 file names in zip archives.
	CodePage encoding.Encoding
}

// LocalEnv is created once per program run and is filled in by command
// line processing before any subcommand is executed.
type LocalEnv struct {
	ConvertFlags

	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// RunID correlates log records and report entries of a single run.
	RunID uuid.UUID

	started time.Time
	undoStd func()
}

type envKey struct{}

// ContextWithEnv returns context carrying fresh environment.
func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{RunID: uuid.New(), started: time.Now()}
}

// EnvFromContext panics when context was not prepared by ContextWithEnv.
func EnvFromContext(ctx context.Context) *LocalEnv {
	env, ok := ctx.Value(envKey{}).(*LocalEnv)
	if !ok {
		panic("program environment is missing from context")
	}
	return env
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.started)
}

// RedirectStdLog sends output of standard library log package to Log.
func (e *LocalEnv) RedirectStdLog() {
	if e.Log != nil && e.undoStd == nil {
		e.undoStd = zap.RedirectStdLog(e.Log)
	}
}

// RestoreStdLog flushes Log and undoes RedirectStdLog.
func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.undoStd != nil {
		e.undoStd()
		e.undoStd = nil
	}
}
