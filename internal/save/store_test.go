package save

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"dynasty/internal/dynasty"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefix = "DynastySave"

// flickerIdentity reports an identity only while present is true, like a
// host during a scene transition.
type flickerIdentity struct {
	mu      sync.Mutex
	id      string
	present bool
}

func (p *flickerIdentity) CurrentIdentity() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.present {
		return "", false
	}
	return p.id, true
}

func (p *flickerIdentity) set(present bool) {
	p.mu.Lock()
	p.present = present
	p.mu.Unlock()
}

func newStoreForTest(t *testing.T, identity IdentityProvider) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), testPrefix, identity)
	require.NoError(t, err)
	return s
}

func recordExists(t *testing.T, s *Store, name string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(s.dir, name))
	if err == nil {
		return true
	}
	require.True(t, os.IsNotExist(err))
	return false
}

func TestLoad_NoRecords_ReturnsFreshDefault(t *testing.T) {
	s := newStoreForTest(t, NoIdentity)

	st := s.Load()

	assert.False(t, st.DynastyStarted)
	assert.Equal(t, 0, st.DayCount)
	assert.Equal(t, dynasty.NoHost, st.HostCharacterID)
}

func TestSave_NoIdentity_NotStarted_GoesToStaging(t *testing.T) {
	s := newStoreForTest(t, NoIdentity)

	st := dynasty.NewWorldState()
	st.Bonds = 7
	require.NoError(t, s.Save(st))

	assert.True(t, recordExists(t, s, testPrefix+"_New.json"))
	// Writes commit via rename; no temp file survives a save.
	assert.False(t, recordExists(t, s, testPrefix+"_New.json.tmp"))

	got := s.Load()
	assert.Equal(t, 7, got.Bonds)
}

func TestSave_NoIdentity_Started_IsRefused(t *testing.T) {
	s := newStoreForTest(t, NoIdentity)

	st := dynasty.NewWorldState()
	st.DynastyStarted = true

	err := s.Save(st)
	require.ErrorIs(t, err, ErrNoIdentity)
	assert.False(t, recordExists(t, s, testPrefix+"_New.json"))
}

func TestSave_WithIdentity_BindsStagingAndLegacy(t *testing.T) {
	p := &flickerIdentity{id: "uid-1"}
	s := newStoreForTest(t, p)

	// Stage a record before any identity exists.
	st := dynasty.NewWorldState()
	st.Influence = 3
	require.NoError(t, s.Save(st))
	require.True(t, recordExists(t, s, testPrefix+"_New.json"))

	// Plant a legacy record too.
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, testPrefix+".json"), []byte(`{"bonds": 1}`), 0o644))

	var boundTo string
	s.BindHook = func(id string) { boundTo = id }

	// Identity appears: next save binds.
	p.set(true)
	st.DynastyStarted = true
	require.NoError(t, s.Save(st))

	assert.True(t, recordExists(t, s, testPrefix+"_uid-1.json"))
	assert.False(t, recordExists(t, s, testPrefix+"_New.json"))
	assert.False(t, recordExists(t, s, testPrefix+".json"))
	assert.Equal(t, "uid-1", boundTo)
}

func TestSave_BindIsIdempotent(t *testing.T) {
	p := &flickerIdentity{id: "uid-1"}
	s := newStoreForTest(t, p)

	st := dynasty.NewWorldState()
	st.Influence = 3
	require.NoError(t, s.Save(st))

	p.set(true)
	require.NoError(t, s.Save(st))
	first, err := os.ReadFile(filepath.Join(s.dir, testPrefix+"_uid-1.json"))
	require.NoError(t, err)

	// A second save with the same state produces the same record and no
	// stray staging/legacy files.
	require.NoError(t, s.Save(st))
	second, err := os.ReadFile(filepath.Join(s.dir, testPrefix+"_uid-1.json"))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.False(t, recordExists(t, s, testPrefix+"_New.json"))
}

func TestLoad_PreferenceOrder(t *testing.T) {
	p := &flickerIdentity{id: "uid-1", present: true}
	s := newStoreForTest(t, p)

	write := func(name string, day int) {
		st := dynasty.NewWorldState()
		st.DayCount = day
		raw, err := json.Marshal(st)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(s.dir, name), raw, 0o644))
	}
	write(testPrefix+".json", 1)      // legacy
	write(testPrefix+"_New.json", 2)  // staging
	write(testPrefix+"_uid-1.json", 3)

	assert.Equal(t, 3, s.Load().DayCount)

	require.NoError(t, os.Remove(filepath.Join(s.dir, testPrefix+"_uid-1.json")))
	assert.Equal(t, 2, s.Load().DayCount)

	require.NoError(t, os.Remove(filepath.Join(s.dir, testPrefix+"_New.json")))
	assert.Equal(t, 1, s.Load().DayCount)
}

func TestLoad_CorruptRecord_FallsBackToFresh(t *testing.T) {
	s := newStoreForTest(t, NoIdentity)
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, testPrefix+"_New.json"), []byte("{not json"), 0o644))

	st := s.Load()

	assert.False(t, st.DynastyStarted)
	assert.Equal(t, 0, st.DayCount)
}

func TestIdentityCache_SurvivesTransientLoss(t *testing.T) {
	p := &flickerIdentity{id: "uid-1", present: true}
	s := newStoreForTest(t, p)

	st := dynasty.NewWorldState()
	st.DynastyStarted = true
	require.NoError(t, s.Save(st))
	require.True(t, recordExists(t, s, testPrefix+"_uid-1.json"))

	// Identity goes dark mid-transition: saves still land on the cached
	// identity key, not staging.
	p.set(false)
	st.DayCount = 12
	require.NoError(t, s.Save(st))

	assert.False(t, recordExists(t, s, testPrefix+"_New.json"))
	assert.Equal(t, 12, s.Load().DayCount)
}

func TestForceCacheIdentity_EnablesSaveWithoutLiveIdentity(t *testing.T) {
	s := newStoreForTest(t, NoIdentity)
	s.ForceCacheIdentity("uid-9")

	st := dynasty.NewWorldState()
	st.DynastyStarted = true
	require.NoError(t, s.Save(st))

	assert.True(t, recordExists(t, s, testPrefix+"_uid-9.json"))
}

func TestDeleteCurrent_NeverTouchesOtherIdentities(t *testing.T) {
	p := &flickerIdentity{id: "uid-x", present: true}
	s := newStoreForTest(t, p)

	stX := dynasty.NewWorldState()
	stX.DynastyStarted = true
	require.NoError(t, s.Save(stX))

	// Another identity's record sits in the same directory.
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, testPrefix+"_uid-y.json"), []byte(`{}`), 0o644))

	s.DeleteCurrent()

	assert.False(t, recordExists(t, s, testPrefix+"_uid-x.json"))
	assert.True(t, recordExists(t, s, testPrefix+"_uid-y.json"))
}

func TestDeleteCurrent_NoIdentity_DeletesStagingOnly(t *testing.T) {
	s := newStoreForTest(t, NoIdentity)

	require.NoError(t, s.Save(dynasty.NewWorldState()))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, testPrefix+"_uid-y.json"), []byte(`{}`), 0o644))

	s.DeleteCurrent()

	assert.False(t, recordExists(t, s, testPrefix+"_New.json"))
	assert.True(t, recordExists(t, s, testPrefix+"_uid-y.json"))
}

func TestDeleteAll_WipesEverythingAndResetsCache(t *testing.T) {
	p := &flickerIdentity{id: "uid-1", present: true}
	s := newStoreForTest(t, p)

	st := dynasty.NewWorldState()
	st.DynastyStarted = true
	require.NoError(t, s.Save(st))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, testPrefix+"_uid-2.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, testPrefix+".json"), []byte(`{}`), 0o644))

	require.NoError(t, s.DeleteAll())

	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Cache was cleared: with the provider dark, a started save must be
	// refused instead of landing on the stale identity.
	p.set(false)
	assert.ErrorIs(t, s.Save(st), ErrNoIdentity)
}

func TestResolveKey(t *testing.T) {
	p := &flickerIdentity{id: "uid 1/../x", present: false}
	s := newStoreForTest(t, p)

	assert.Equal(t, filepath.Join(s.dir, testPrefix+"_New.json"), s.ResolveKey())

	p.set(true)
	// Illegal filename characters are stripped from the token.
	assert.Equal(t, filepath.Join(s.dir, testPrefix+"_uid1..x.json"), s.ResolveKey())
}
