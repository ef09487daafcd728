package sample

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minio/highwayhash"
)

const (
	// MinCount and MaxCount bound the size of a generated sample.
	MinCount = 10
	MaxCount = 10_000_000
)

// ErrEmptySample is returned when a replacement sample has no elements.
var ErrEmptySample = errors.New("sample is empty")

// FingerprintKey is the fixed HighwayHash key used for sample fingerprints.
// Identical samples always produce identical fingerprints.
var FingerprintKey = func() []byte {
	key := make([]byte, highwayhash.Size)
	copy(key, "numviz sample fingerprint key")
	return key
}()

// Snapshot is an immutable view of the current sample. Values must never be
// written to by consumers.
type Snapshot struct {
	Version     int64
	Values      []float64
	Source      string
	Fingerprint string
	CreatedAt   time.Time
}

// Len returns the number of elements in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// Listener is notified after every successful replacement.
type Listener func(snap *Snapshot)

// Store owns the current sample. The sample is replaced wholesale and never
// edited in place.
type Store struct {
	mu        sync.RWMutex
	current   *Snapshot
	version   int64
	listeners map[int]Listener
	nextID    int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// Replace installs values as the new sample and notifies subscribers
// synchronously. The store takes ownership of values; callers must not
// modify the slice afterwards.
func (s *Store) Replace(values []float64, source string) (*Snapshot, error) {
	if len(values) == 0 {
		return nil, ErrEmptySample
	}
	if len(values) > MaxCount {
		return nil, fmt.Errorf("sample has %d elements, maximum is %d", len(values), MaxCount)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("sample element %d is not finite: %v", i, v)
		}
	}

	fp, err := Fingerprint(values)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version:     atomic.AddInt64(&s.version, 1),
		Values:      values,
		Source:      source,
		Fingerprint: fp,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.current = snap
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return snap, nil
}

// Current returns the current snapshot, or nil when no sample was loaded.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Version returns the version of the most recent replacement.
func (s *Store) Version() int64 {
	return atomic.LoadInt64(&s.version)
}

// Subscribe registers l for change notifications in registration order and
// returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Fingerprint calculates a HighwayHash of the IEEE-754 bits of values.
func Fingerprint(values []float64) (string, error) {
	hash, err := highwayhash.New(FingerprintKey)
	if err != nil {
		return "", fmt.Errorf("failed to create hash: %w", err)
	}

	buf := make([]byte, 0, 8*4096)
	for i, v := range values {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		if len(buf) == cap(buf) || i == len(values)-1 {
			hash.Write(buf)
			buf = buf[:0]
		}
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
