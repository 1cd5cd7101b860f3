// Copyright 2026 The JaCe Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package jace compiles numerical Go callables just in time. A wrapped
// callable is traced once per distinct abstract argument signature,
// lowered to a data-centric program, compiled, and cached; later calls
// with arguments of an equal signature reuse the compiled artifact.
package jace

import (
	bsync "github.com/GridTools/jace/base/sync"
	"github.com/GridTools/jace/cache"
	"github.com/GridTools/jace/lower"
	"github.com/GridTools/jace/signature"
	"github.com/GridTools/jace/tracer"
	"github.com/GridTools/jace/values"
	"go.uber.org/zap"
)

// Func is a traceable callable. See tracer.Func.
type Func = tracer.Func

type config struct {
	staticArgs []int
	precision  signature.Precision
	capacity   int
	log        *zap.Logger
}

// Option configures a wrapped callable.
type Option func(*config)

// StaticArgs marks top-level argument positions as static: their values
// become part of the signature and are baked into the trace.
func StaticArgs(positions ...int) Option {
	return func(c *config) { c.staticArgs = positions }
}

// WithPrecision selects the precision policy applied to arguments and
// constants. The default is signature.PromoteWide.
func WithPrecision(p signature.Precision) Option {
	return func(c *config) { c.precision = p }
}

// WithCacheCapacity bounds the number of compiled artifacts kept per
// wrapped callable.
func WithCacheCapacity(n int) Option {
	return func(c *config) { c.capacity = n }
}

// WithLogger attaches a logger reporting tracing, lowering, and cache
// activity.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) { c.log = log }
}

// Wrapped is a callable under just-in-time compilation. It is safe for
// concurrent use.
type Wrapped struct {
	name string
	fn   tracer.Func
	cfg  config

	// lowerings memoizes trace capture and lowering per signature.
	// Concurrent duplicate lowerings are discarded on insert.
	lowerings bsync.Map[string, *Lowered]
	artifacts *cache.Cache[*Compiled]
}

// Jit wraps a callable for just-in-time compilation.
func Jit(name string, fn Func, opts ...Option) *Wrapped {
	cfg := config{
		precision: signature.PromoteWide,
		capacity:  cache.DefaultCapacity,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Wrapped{
		name: name,
		fn:   fn,
		cfg:  cfg,
		artifacts: cache.New[*Compiled](
			cache.WithCapacity[*Compiled](cfg.capacity),
			cache.WithLogger[*Compiled](cfg.log),
		),
	}
}

// Name of the wrapped callable.
func (w *Wrapped) Name() string { return w.name }

func (w *Wrapped) sigOptions() signature.Options {
	return signature.Options{
		StaticArgs: w.cfg.staticArgs,
		Precision:  w.cfg.precision,
	}
}

// Call executes the callable over the arguments, compiling it first if no
// artifact exists for their signature.
func (w *Wrapped) Call(args ...values.Value) ([]values.Value, error) {
	sig, err := signature.Extract(args, w.sigOptions())
	if err != nil {
		return nil, err
	}
	compiled, err := w.artifacts.GetOrCompile(sig, func() (*Compiled, error) {
		lowered, err := w.lowered(sig, args)
		if err != nil {
			return nil, err
		}
		return lowered.Compile()
	})
	if err != nil {
		return nil, err
	}
	return compiled.call(args)
}

// Lower traces and lowers the callable for the arguments without
// compiling it.
func (w *Wrapped) Lower(args ...values.Value) (*Lowered, error) {
	sig, err := signature.Extract(args, w.sigOptions())
	if err != nil {
		return nil, err
	}
	return w.lowered(sig, args)
}

func (w *Wrapped) lowered(sig *signature.Signature, args []values.Value) (*Lowered, error) {
	if memo, ok := w.lowerings.Load(sig.Key()); ok {
		return memo, nil
	}
	w.cfg.log.Debug("tracing",
		zap.String("callable", w.name),
		zap.Uint64("signature", sig.Fingerprint()))
	trace, err := tracer.Capture(w.name, w.fn, args, w.sigOptions())
	if err != nil {
		return nil, err
	}
	prog, err := lower.Lower(trace)
	if err != nil {
		return nil, err
	}
	lowered := &Lowered{sig: sig, trace: trace, prog: prog}
	lowered, _ = w.lowerings.LoadOrStore(sig.Key(), lowered)
	return lowered, nil
}

// CachedCompilations returns the number of artifacts currently held for
// the callable.
func (w *Wrapped) CachedCompilations() int {
	return w.artifacts.Len()
}

// ClearCache drops every lowering and compiled artifact of the callable.
func (w *Wrapped) ClearCache() {
	w.artifacts.Clear()
	w.lowerings.Clear()
}
