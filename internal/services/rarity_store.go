package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// RarityStore is the persisted memoization layer for resolved rarities: a
// JSON file mapping card UUID to rarity string. It is passed into the
// backfill explicitly rather than living as package state, so tests can
// point it at a throwaway file. Writes go through to disk immediately;
// the file is not transactional, last writer wins.
type RarityStore struct {
	path string

	mu      sync.RWMutex
	entries map[string]string
	loaded  bool
}

func NewRarityStore(path string) *RarityStore {
	return &RarityStore{
		path:    path,
		entries: make(map[string]string),
	}
}

// Load reads the cache file. A missing file is an empty cache; a corrupt
// file is logged and discarded rather than failing the run, since every
// entry can be re-derived.
func (s *RarityStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	s.entries = make(map[string]string)

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read rarity cache: %w", err)
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		log.Printf("Warning: rarity cache at %s is corrupt, starting empty: %v", s.path, err)
		s.entries = make(map[string]string)
	}
	return nil
}

func (s *RarityStore) Get(uuid string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rarity, ok := s.entries[uuid]
	return rarity, ok
}

// Put records a resolution and persists it. Storing a value identical to
// the current one is a no-op.
func (s *RarityStore) Put(uuid, rarity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[uuid]; ok && existing == rarity {
		return nil
	}
	s.entries[uuid] = rarity
	return s.flushLocked()
}

// Flush rewrites the cache file from memory.
func (s *RarityStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *RarityStore) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create rarity cache directory: %w", err)
	}

	data, err := json.Marshal(s.entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rarity cache: %w", err)
	}
	return nil
}

func (s *RarityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
