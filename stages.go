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

package jace

import (
	"github.com/GridTools/jace/backend"
	"github.com/GridTools/jace/sdfg"
	"github.com/GridTools/jace/signature"
	"github.com/GridTools/jace/tracer"
	"github.com/GridTools/jace/values"
)

// Lowered is a callable traced and lowered for one signature, before
// compilation. It exposes the intermediate program for inspection.
type Lowered struct {
	sig   *signature.Signature
	trace *tracer.Trace
	prog  *sdfg.Program
}

// Signature the callable was lowered for.
func (l *Lowered) Signature() *signature.Signature { return l.sig }

// Program returns the lowered data-centric program.
func (l *Lowered) Program() *sdfg.Program { return l.prog }

// Compile translates the lowered program into an executable artifact.
func (l *Lowered) Compile() (*Compiled, error) {
	artifact, err := backend.Compile(l.prog, l.sig.Key())
	if err != nil {
		return nil, err
	}
	return &Compiled{
		sig:      l.sig,
		trace:    l.trace,
		artifact: artifact,
	}, nil
}

// Compiled is an executable compilation of a callable for one signature.
// It is immutable and safe for concurrent invocation.
type Compiled struct {
	sig      *signature.Signature
	trace    *tracer.Trace
	artifact *backend.Artifact
}

// Signature the callable was compiled for.
func (c *Compiled) Signature() *signature.Signature { return c.sig }

// Artifact returns the underlying executable.
func (c *Compiled) Artifact() *backend.Artifact { return c.artifact }

// Call executes the artifact over the arguments. The arguments must have
// a signature equal to the one the callable was compiled for.
func (c *Compiled) Call(args ...values.Value) ([]values.Value, error) {
	return c.call(args)
}
