package logging

import "go.uber.org/zap"

// Zap adapts a *zap.SugaredLogger to Logger.
type Zap struct {
	s *zap.SugaredLogger
}

// NewZap wraps l.
func NewZap(l *zap.Logger) Zap {
	return Zap{s: l.Sugar()}
}

func (z Zap) Debug(msg string, kv ...interface{}) { z.s.Debugw(msg, kv...) }
func (z Zap) Info(msg string, kv ...interface{})  { z.s.Infow(msg, kv...) }
func (z Zap) Warn(msg string, kv ...interface{})  { z.s.Warnw(msg, kv...) }
func (z Zap) Error(msg string, kv ...interface{}) { z.s.Errorw(msg, kv...) }
