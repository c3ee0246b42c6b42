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
	"sync"
)

// SafeMap is a map guarded by a RWMutex
type SafeMap[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		data: make(map[K]V),
	}
}

func (sm *SafeMap[K, V]) Store(key K, value V) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.data[key] = value
}

func (sm *SafeMap[K, V]) Load(key K) (V, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	value, ok := sm.data[key]
	return value, ok
}

// LoadOrCreate returns the value stored at key. When there's none, create is called, under lock, and its result
// is stored and returned.
func (sm *SafeMap[K, V]) LoadOrCreate(key K, create func() V) V {
	if value, ok := sm.Load(key); ok {
		return value
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if value, ok := sm.data[key]; ok {
		return value
	}
	value := create()
	sm.data[key] = value
	return value
}

// Delete removes key and returns what it held
func (sm *SafeMap[K, V]) Delete(key K) (V, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	value, ok := sm.data[key]
	delete(sm.data, key)
	return value, ok
}

// Iter returns a copy of the map
func (sm *SafeMap[K, V]) Iter() map[K]V {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	cpy := make(map[K]V, len(sm.data))
	for k, v := range sm.data {
		cpy[k] = v
	}
	return cpy
}
