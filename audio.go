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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AudioHandle is a locally held audio blob. It stays valid until it gets revoked, either because the store replaced
// it or because the store was closed.
type AudioHandle struct {
	ID        string    `json:"id" yaml:"id"`
	Path      string    `json:"-" yaml:"path"`
	MediaType string    `json:"mediaType" yaml:"mediaType"`
	Size      int       `json:"size" yaml:"size"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// revoke releases the blob. Revoking twice is fine.
func (h *AudioHandle) revoke() error {
	if err := os.Remove(h.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("revoking audio handle %s: %w", h.ID, err)
	}
	return nil
}

// ErrStoreClosed is returned when audio arrives for a store that was closed in the meantime
var ErrStoreClosed = errors.New("audio store is closed")

// AudioStore owns at most one AudioHandle at a time. Once closed it owns none.
type AudioStore struct {
	dir     string
	mx      sync.Mutex
	current *AudioHandle
	closed  bool
}

// NewAudioStore creates an AudioStore keeping its blobs in dir
func NewAudioStore(dir string) *AudioStore {
	return &AudioStore{dir: dir}
}

// Replace stores data as the new current handle. The previous handle, if any, is revoked before the new one is
// assigned. If the revocation fails the new handle is assigned anyway and the error is returned alongside it.
// A closed store keeps nothing: the blob is discarded and ErrStoreClosed is returned.
func (s *AudioStore) Replace(data []byte, mediaType string) (*AudioHandle, error) {
	if s.isClosed() {
		return nil, ErrStoreClosed
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating audio directory: %w", err)
	}
	id := uuid.NewString()
	handle := &AudioHandle{
		ID:        id,
		Path:      filepath.Join(s.dir, "lesson-"+id+GetExtension(mediaType)),
		MediaType: mediaType,
		Size:      len(data),
		CreatedAt: time.Now(),
	}
	if err := os.WriteFile(handle.Path, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing audio blob: %w", err)
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	// closed while the blob was being written
	if s.closed {
		if err := handle.revoke(); err != nil {
			return nil, errors.Join(ErrStoreClosed, err)
		}
		return nil, ErrStoreClosed
	}
	var err error
	if s.current != nil {
		err = s.current.revoke()
	}
	s.current = handle
	return handle, err
}

// Current returns the current handle, or nil
func (s *AudioStore) Current() *AudioHandle {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.current
}

func (s *AudioStore) isClosed() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.closed
}

// Close revokes the current handle. Audio replaced after Close is discarded.
func (s *AudioStore) Close() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.closed = true
	if s.current == nil {
		return nil
	}
	err := s.current.revoke()
	s.current = nil
	return err
}
