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

package cache_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/GridTools/jace/cache"
	"github.com/GridTools/jace/signature"
	"github.com/GridTools/jace/values"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func sigOf(t *testing.T, args ...values.Value) *signature.Signature {
	t.Helper()
	sig, err := signature.Extract(args, signature.Options{})
	require.NoError(t, err)
	return sig
}

func TestGetOrCompileSingleFlight(t *testing.T) {
	c := cache.New[int]()
	sig := sigOf(t, values.Vector[float64](1, 2, 3, 4))
	var builds atomic.Int32

	const goroutines = 32
	var wg sync.WaitGroup
	results := make([]int, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCompile(sig, func() (int, error) {
				builds.Add(1)
				return 42, nil
			})
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()
	require.Equal(t, int32(1), builds.Load(), "concurrent callers must share one build")
	for _, v := range results {
		require.Equal(t, 42, v)
	}
}

func TestDistinctSignaturesCompileIndependently(t *testing.T) {
	c := cache.New[int]()
	var builds atomic.Int32
	build := func() (int, error) {
		builds.Add(1)
		return 0, nil
	}
	_, err := c.GetOrCompile(sigOf(t, values.Vector[float64](1, 2)), build)
	require.NoError(t, err)
	_, err = c.GetOrCompile(sigOf(t, values.Vector[float64](1, 2, 3)), build)
	require.NoError(t, err)
	_, err = c.GetOrCompile(sigOf(t, values.Vector[float64](5, 6)), build)
	require.NoError(t, err)
	require.Equal(t, int32(2), builds.Load())
	require.Equal(t, 2, c.Len())
}

func TestFailedBuildNotCached(t *testing.T) {
	c := cache.New[int]()
	sig := sigOf(t, values.Vector[float64](1, 2))
	_, err := c.GetOrCompile(sig, func() (int, error) {
		return 0, errors.Errorf("no translator")
	})
	require.Error(t, err)
	require.Equal(t, 0, c.Len())
	v, err := c.GetOrCompile(sig, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestEviction(t *testing.T) {
	c := cache.New[int](cache.WithCapacity[int](2))
	var builds atomic.Int32
	get := func(n int) {
		sig := sigOf(t, values.StaticInt(int64(n)))
		_, err := c.GetOrCompile(sig, func() (int, error) {
			builds.Add(1)
			return n, nil
		})
		require.NoError(t, err)
	}
	get(1)
	get(2)
	get(3) // evicts 1
	require.Equal(t, 2, c.Len())
	get(1) // recompiles
	require.Equal(t, int32(4), builds.Load())
}

func TestClear(t *testing.T) {
	c := cache.New[int]()
	var builds atomic.Int32
	sig := sigOf(t, values.Vector[float64](1, 2))
	build := func() (int, error) {
		builds.Add(1)
		return 0, nil
	}
	_, err := c.GetOrCompile(sig, build)
	require.NoError(t, err)
	c.Clear()
	require.Equal(t, 0, c.Len())
	_, err = c.GetOrCompile(sig, build)
	require.NoError(t, err)
	require.Equal(t, int32(2), builds.Load())
}
