package ops

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupAndRestoreRoundTrip(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "DynastySave_uid-1.json"), []byte(`{"day_count":7}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "DynastySave_New.json"), []byte(`{"day_count":0}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "journal.sqlite"), []byte("sqlite bytes"), 0o644))

	archive := filepath.Join(t.TempDir(), "backups", "dynasty.tar.gz")
	require.NoError(t, BackupSaveDir(src, archive))

	dst := t.TempDir()
	require.NoError(t, RestoreSaveDir(archive, dst))

	got, err := os.ReadFile(filepath.Join(dst, "DynastySave_uid-1.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"day_count":7}`, string(got))

	got, err = os.ReadFile(filepath.Join(dst, "journal.sqlite"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite bytes", string(got))
}

func TestBackupSaveDir_OnlyArchivesRecords(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "DynastySave_uid-1.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("scratch"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "stray.json"), []byte(`{}`), 0o644))

	archive := filepath.Join(t.TempDir(), "dynasty.tar.gz")
	require.NoError(t, BackupSaveDir(src, archive))

	dst := t.TempDir()
	require.NoError(t, RestoreSaveDir(archive, dst))

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "DynastySave_uid-1.json", entries[0].Name())
}

func TestBackupSaveDir_MissingSource(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "out.tar.gz")
	err := BackupSaveDir(filepath.Join(t.TempDir(), "nope"), archive)
	assert.Error(t, err)
}

func TestBackupSaveDir_SourceIsFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "file.json")
	require.NoError(t, os.WriteFile(src, []byte("{}"), 0o644))

	err := BackupSaveDir(src, filepath.Join(t.TempDir(), "out.tar.gz"))
	assert.Error(t, err)
}

func TestRestoreSaveDir_MissingArchive(t *testing.T) {
	err := RestoreSaveDir(filepath.Join(t.TempDir(), "nope.tar.gz"), t.TempDir())
	assert.Error(t, err)
}

func TestRestoreSaveDir_RejectsTraversalEntry(t *testing.T) {
	// Hand-built archive with a path-traversal entry name.
	archive := filepath.Join(t.TempDir(), "evil.tar.gz")
	f, err := os.Create(archive)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	payload := []byte(`{}`)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "../escape.json", Mode: 0o644, Size: int64(len(payload)), Typeflag: tar.TypeReg,
	}))
	_, err = tw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	target := t.TempDir()
	err = RestoreSaveDir(archive, target)
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(filepath.Dir(target), "escape.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRecordEntryName(t *testing.T) {
	name, err := recordEntryName("DynastySave_uid-1.json")
	require.NoError(t, err)
	assert.Equal(t, "DynastySave_uid-1.json", name)

	_, err = recordEntryName("nested/record.json")
	assert.Error(t, err)

	_, err = recordEntryName("/abs/record.json")
	assert.Error(t, err)

	_, err = recordEntryName("notes.txt")
	assert.Error(t, err)
}
