/*
 * Copyright (C) 2026 Simone Pezzano
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package tutor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeMap_StoreLoad(t *testing.T) {
	sm := NewSafeMap[string, int]()

	sm.Store("key1", 100)
	val, ok := sm.Load("key1")
	assert.True(t, ok)
	assert.Equal(t, 100, val)

	val, ok = sm.Load("key3")
	assert.False(t, ok)
	assert.Equal(t, 0, val)
}

func TestSafeMap_Iter(t *testing.T) {
	sm := NewSafeMap[string, string]()
	sm.Store("a", "apple")
	sm.Store("b", "banana")

	iterMap := sm.Iter()
	assert.Equal(t, map[string]string{"a": "apple", "b": "banana"}, iterMap)

	// it's a copy
	iterMap["a"] = "apricot"
	val, _ := sm.Load("a")
	assert.Equal(t, "apple", val)
}

func TestSafeMap_Delete(t *testing.T) {
	sm := NewSafeMap[string, int]()
	sm.Store("a", 1)
	val, ok := sm.Delete("a")
	assert.True(t, ok)
	assert.Equal(t, 1, val)
	_, ok = sm.Delete("a")
	assert.False(t, ok)
}

func TestSafeMap_LoadOrCreate(t *testing.T) {
	sm := NewSafeMap[string, *Console]()
	var created atomic.Int32
	var wg sync.WaitGroup
	results := make([]*Console, 20)
	for i := 0; i < len(results); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = sm.LoadOrCreate("default", func() *Console {
				created.Add(1)
				return NewConsole(&fakeAgent{}, fmt.Sprintf("console-%d", i))
			})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), created.Load())
	for _, c := range results {
		assert.Same(t, results[0], c)
	}
}
