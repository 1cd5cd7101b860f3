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

package signature_test

import (
	"testing"

	"github.com/GridTools/jace/signature"
	"github.com/GridTools/jace/values"
)

func extract(t *testing.T, opts signature.Options, args ...values.Value) *signature.Signature {
	t.Helper()
	sig, err := signature.Extract(args, opts)
	if err != nil {
		t.Fatalf("cannot extract signature: %v", err)
	}
	return sig
}

func TestContentIndependence(t *testing.T) {
	a := extract(t, signature.Options{}, values.Vector[float64](1, 2, 3, 4))
	b := extract(t, signature.Options{}, values.Vector[float64](5, 6, 7, 8))
	if !a.Equal(b) {
		t.Errorf("signatures differ for arguments that only differ in content:\n%s\n%s", a, b)
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("fingerprints differ for equal signatures")
	}
}

func TestShapeAndTypeSensitivity(t *testing.T) {
	base := extract(t, signature.Options{}, values.Vector[float64](1, 2, 3, 4))
	tests := []struct {
		name string
		sig  *signature.Signature
	}{
		{
			name: "different length",
			sig:  extract(t, signature.Options{}, values.Vector[float64](1, 2, 3, 4, 5, 6, 7, 8)),
		},
		{
			name: "different element type",
			sig:  extract(t, signature.Options{}, values.Vector[int64](1, 2, 3, 4)),
		},
		{
			name: "different nesting",
			sig:  extract(t, signature.Options{}, values.NewSlice(values.Vector[float64](1, 2, 3, 4))),
		},
	}
	for _, test := range tests {
		if base.Equal(test.sig) {
			t.Errorf("%s: signatures are equal but must differ:\n%s\n%s", test.name, base, test.sig)
		}
	}
}

func TestPrecisionPolicy(t *testing.T) {
	f32 := values.Vector[float32](1, 2)
	f64 := values.Vector[float64](1, 2)
	wide32 := extract(t, signature.Options{Precision: signature.PromoteWide}, f32)
	wide64 := extract(t, signature.Options{Precision: signature.PromoteWide}, f64)
	if !wide32.Equal(wide64) {
		t.Errorf("PromoteWide: float32 and float64 signatures must be equal:\n%s\n%s", wide32, wide64)
	}
	keep32 := extract(t, signature.Options{Precision: signature.KeepPrecision}, f32)
	keep64 := extract(t, signature.Options{Precision: signature.KeepPrecision}, f64)
	if keep32.Equal(keep64) {
		t.Errorf("KeepPrecision: float32 and float64 signatures must differ:\n%s", keep32)
	}
}

func TestStaticValueSensitivity(t *testing.T) {
	x := values.Vector[float64](1, 2)
	a := extract(t, signature.Options{}, x, values.StaticInt(2))
	b := extract(t, signature.Options{}, x, values.StaticInt(3))
	if a.Equal(b) {
		t.Errorf("signatures are equal for different static values:\n%s", a)
	}
	c := extract(t, signature.Options{}, x, values.StaticInt(2))
	if !a.Equal(c) {
		t.Errorf("signatures differ for equal static values:\n%s\n%s", a, c)
	}
}

func TestStaticArgPositions(t *testing.T) {
	x := values.Vector[float64](1, 2)
	y := values.Vector[float64](3, 4)
	opts := signature.Options{StaticArgs: []int{1}}
	a := extract(t, opts, x, y)
	b := extract(t, opts, x, values.Vector[float64](5, 6))
	if a.Equal(b) {
		t.Errorf("static argument content must be part of the signature")
	}
	c := extract(t, opts, values.Vector[float64](7, 8), y)
	if a.Equal(c) == false {
		t.Errorf("non-static argument content must not be part of the signature:\n%s\n%s", a, c)
	}
	if _, err := signature.Extract([]values.Value{x}, signature.Options{StaticArgs: []int{3}}); err == nil {
		t.Errorf("expected an error for an out-of-range static position")
	}
}

func TestSignatureError(t *testing.T) {
	_, err := signature.Extract([]values.Value{nil}, signature.Options{})
	if err == nil {
		t.Fatalf("expected an error for an unsupported argument")
	}
	if _, ok := err.(*signature.Error); !ok {
		t.Errorf("error has type %T, not *signature.Error", err)
	}
}
