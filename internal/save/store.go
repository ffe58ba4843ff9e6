package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"dynasty/internal/dynasty"
)

// ErrNoIdentity is returned by Save when no identity resolves (live or
// cached) and the state claims a started dynasty. Writing such a state to
// the shared staging slot would let a dead run masquerade as a fresh one,
// so the write is refused instead of silently dropped.
var ErrNoIdentity = errors.New("no identity resolved and dynasty already started")

// Store resolves, loads, writes, binds and deletes WorldState records on a
// directory of JSON files. Record keys:
//
//	<dir>/<prefix>_New.json        staging (no identity known yet)
//	<dir>/<prefix>.json            legacy single-file record
//	<dir>/<prefix>_<identity>.json per-identity record
//
// A staging record is bound to an identity the first time Save runs while
// an identity is observable: the state is written under the identity key
// and the staging/legacy copies are removed. Binding is one-way.
//
// All entry points serialize on one mutex so a bind in progress can never
// race a delete observing a half-updated identity cache.
type Store struct {
	mu       sync.Mutex
	dir      string
	prefix   string
	identity IdentityProvider

	// cachedID survives windows where the provider transiently reports
	// nothing (scene transitions, death timing). Updated on every
	// successful resolution under mu.
	cachedID string

	// bound is a one-shot flag that stops redundant bind rewrites within
	// a session. Binding stays idempotent without it; this is only about
	// log spam and extra I/O.
	bound bool

	// BindHook, when set, is told the identity a staging record was just
	// bound to. Called at most once per session, after the bind completes.
	BindHook func(identity string)
}

// NewStore creates the save directory if needed.
func NewStore(dir, prefix string, identity IdentityProvider) (*Store, error) {
	if identity == nil {
		identity = NoIdentity
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save directory: %w", err)
	}
	return &Store{dir: dir, prefix: prefix, identity: identity}, nil
}

func (s *Store) stagingPath() string {
	return filepath.Join(s.dir, s.prefix+"_New.json")
}

func (s *Store) legacyPath() string {
	return filepath.Join(s.dir, s.prefix+".json")
}

func (s *Store) identityPath(id string) string {
	return filepath.Join(s.dir, s.prefix+"_"+sanitizeToken(id)+".json")
}

// resolveIdentityLocked returns the live identity when observable (updating
// the cache), else the cached one, else "".
func (s *Store) resolveIdentityLocked() string {
	if id, ok := s.identity.CurrentIdentity(); ok && id != "" {
		s.cachedID = id
		return id
	}
	return s.cachedID
}

// ResolveKey reports the file path a Save would target right now: the
// identity key when an identity resolves, the staging key otherwise.
func (s *Store) ResolveKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id := s.resolveIdentityLocked(); id != "" {
		return s.identityPath(id)
	}
	return s.stagingPath()
}

// ForceCacheIdentity pre-seeds the identity cache ahead of a save or delete
// during a transition window where the live provider may come up empty.
func (s *Store) ForceCacheIdentity(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	s.cachedID = id
	s.mu.Unlock()
}

// Load returns the record for the current identity, falling back to the
// staging record, then the legacy record, then a fresh default state.
// Decode failures are non-fatal: the corrupt record is logged and replaced
// in memory by a fresh default.
func (s *Store) Load() *dynasty.WorldState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id := s.resolveIdentityLocked(); id != "" {
		if st, ok := s.readRecord(s.identityPath(id)); ok {
			return st
		}
	}
	if st, ok := s.readRecord(s.stagingPath()); ok {
		return st
	}
	if st, ok := s.readRecord(s.legacyPath()); ok {
		return st
	}

	log.Printf("dynasty: no save found, starting fresh (not started)")
	return dynasty.NewWorldState()
}

// Save writes the state under the identity key when an identity resolves
// (live or cached), removing any staging and legacy records afterwards:
// this is the bind step. With no identity at all, the write goes to the
// staging key only while the dynasty has not started; otherwise it is
// refused with ErrNoIdentity.
func (s *Store) Save(state *dynasty.WorldState) error {
	if state == nil {
		return errors.New("nil state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id := s.resolveIdentityLocked(); id != "" {
		if err := s.writeRecord(s.identityPath(id), state); err != nil {
			return err
		}
		hadStaging := s.removeQuiet(s.stagingPath())
		hadLegacy := s.removeQuiet(s.legacyPath())
		if (hadStaging || hadLegacy) && !s.bound {
			s.bound = true
			log.Printf("dynasty: bound staging save to identity %s", sanitizeToken(id))
			if s.BindHook != nil {
				s.BindHook(id)
			}
		}
		return nil
	}

	if state.DynastyStarted {
		return ErrNoIdentity
	}
	return s.writeRecord(s.stagingPath(), state)
}

// DeleteCurrent removes the record for the resolved identity. With no
// identity at all it removes only the staging record; it can never touch
// another identity's record.
func (s *Store) DeleteCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id := s.resolveIdentityLocked(); id != "" {
		s.removeQuiet(s.identityPath(id))
		log.Printf("dynasty: deleted save for identity %s", sanitizeToken(id))
		return
	}
	s.removeQuiet(s.stagingPath())
	log.Printf("dynasty: deleted staging save (no identity)")
}

// DeleteAll wipes staging, legacy and every per-identity record, and
// resets the identity cache and bind flag.
func (s *Store) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeQuiet(s.stagingPath())
	s.removeQuiet(s.legacyPath())

	matches, err := filepath.Glob(filepath.Join(s.dir, s.prefix+"_*.json"))
	if err != nil {
		return fmt.Errorf("list save records: %w", err)
	}
	for _, m := range matches {
		s.removeQuiet(m)
	}

	s.cachedID = ""
	s.bound = false
	log.Printf("dynasty: all saves deleted")
	return nil
}

// Dir reports the directory records live in.
func (s *Store) Dir() string { return s.dir }

func (s *Store) readRecord(path string) (*dynasty.WorldState, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("dynasty: read save %s: %v", filepath.Base(path), err)
		}
		return nil, false
	}

	st := dynasty.NewWorldState()
	if err := json.Unmarshal(raw, st); err != nil {
		log.Printf("dynasty: save %s is corrupt (%v), starting fresh", filepath.Base(path), err)
		return dynasty.NewWorldState(), true
	}
	st.Normalize()
	log.Printf("dynasty: loaded %s", filepath.Base(path))
	return st, true
}

// writeRecord writes through a temp file and renames it into place, so a
// crash mid-write leaves the previous record intact.
func (s *Store) writeRecord(path string, state *dynasty.WorldState) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write save %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		s.removeQuiet(tmp)
		return fmt.Errorf("commit save %s: %w", filepath.Base(path), err)
	}
	return nil
}

// removeQuiet deletes a file if present, logging (not propagating) any
// error. Reports whether a file existed.
func (s *Store) removeQuiet(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if err := os.Remove(path); err != nil {
		log.Printf("dynasty: delete %s: %v", filepath.Base(path), err)
		return false
	}
	return true
}
