// Package store encodes ragdoll snapshots with msgpack and keeps them in the
// per-user data directory managed by gdata.
package store

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-msgpack/v2/codec"
	"github.com/quasilyte/gdata"

	"github.com/Faultbox/midgard-ragdoll/internal/ragdoll"
)

// FormatVersion is written into every encoded snapshot.
const FormatVersion = 1

var (
	// ErrNotFound is returned when no snapshot is stored under a key.
	ErrNotFound = errors.New("snapshot not found")
	// ErrVersion is returned for snapshots written by an unknown format.
	ErrVersion = errors.New("unsupported snapshot version")
)

type envelope struct {
	Version int           `codec:"version"`
	State   ragdoll.State `codec:"state"`
}

var handle codec.MsgpackHandle

// Encode serializes a snapshot.
func Encode(s ragdoll.State) ([]byte, error) {
	var out []byte
	enc := codec.NewEncoderBytes(&out, &handle)
	if err := enc.Encode(envelope{Version: FormatVersion, State: s}); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return out, nil
}

// Decode parses a snapshot produced by Encode.
func Decode(data []byte) (ragdoll.State, error) {
	var env envelope
	dec := codec.NewDecoderBytes(data, &handle)
	if err := dec.Decode(&env); err != nil {
		return ragdoll.State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if env.Version != FormatVersion {
		return ragdoll.State{}, fmt.Errorf("%w: %d", ErrVersion, env.Version)
	}
	return env.State, nil
}

// ReadFile decodes a snapshot file.
func ReadFile(path string) (ragdoll.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ragdoll.State{}, err
	}
	return Decode(data)
}

// WriteFile encodes a snapshot into a file.
func WriteFile(path string, s ragdoll.State) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Backend keeps opaque items by key. *gdata.Manager implements it.
type Backend interface {
	SaveItem(key string, data []byte) error
	LoadItem(key string) ([]byte, error)
}

// Store saves snapshots under string keys.
type Store struct {
	backend Backend
}

// Open returns a store in the data directory of appName.
func Open(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open data dir for %q: %w", appName, err)
	}
	return New(m), nil
}

// New returns a store over an existing backend.
func New(b Backend) *Store {
	return &Store{backend: b}
}

// Save encodes s and stores it under key.
func (st *Store) Save(key string, s ragdoll.State) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := st.backend.SaveItem(key, data); err != nil {
		return fmt.Errorf("save %q: %w", key, err)
	}
	return nil
}

// Load returns the snapshot stored under key.
func (st *Store) Load(key string) (ragdoll.State, error) {
	data, err := st.backend.LoadItem(key)
	if err != nil {
		return ragdoll.State{}, fmt.Errorf("load %q: %w", key, err)
	}
	if len(data) == 0 {
		return ragdoll.State{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return Decode(data)
}

// Memory is a Backend that keeps items in memory.
type Memory struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

// SaveItem implements Backend.
func (m *Memory) SaveItem(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), data...)
	return nil
}

// LoadItem implements Backend. Missing keys yield nil data.
func (m *Memory) LoadItem(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[key], nil
}

var (
	_ Backend = (*gdata.Manager)(nil)
	_ Backend = (*Memory)(nil)
)
