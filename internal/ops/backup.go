package ops

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BackupSaveDir archives the dynasty records in a save directory into a
// tar.gz: the JSON save records (staging, legacy and per-identity) and the
// sqlite journal. The save directory is flat; nothing else it may contain
// is worth keeping, so anything that is not a record or a journal is left
// out. Taken before destructive admin operations so a wipe-all is
// recoverable.
func BackupSaveDir(srcDir, archivePath string) error {
	srcDir = filepath.Clean(strings.TrimSpace(srcDir))
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	if srcDir == "" || archivePath == "" {
		return fmt.Errorf("srcDir and archivePath are required")
	}
	info, err := os.Stat(srcDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("source is not a directory: %s", srcDir)
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	tw := tar.NewWriter(gz)
	defer tw.Close()

	for _, entry := range entries {
		if !entry.Type().IsRegular() || !isDynastyRecord(entry.Name()) {
			continue
		}
		if err := addRecord(tw, filepath.Join(srcDir, entry.Name()), entry.Name()); err != nil {
			return err
		}
	}
	return nil
}

// isDynastyRecord reports whether a save-directory file belongs in a backup:
// a JSON save record or the sqlite journal.
func isDynastyRecord(name string) bool {
	switch filepath.Ext(name) {
	case ".json", ".sqlite":
		return true
	}
	return false
}

func addRecord(tw *tar.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(tw, src)
	return err
}

// RestoreSaveDir unpacks an archive produced by BackupSaveDir. Entries are
// restored flat into the target directory; anything that is not a plain
// dynasty record (nested paths, non-record extensions, traversal attempts)
// is rejected.
func RestoreSaveDir(archivePath, targetDir string) error {
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	targetDir = filepath.Clean(strings.TrimSpace(targetDir))
	if archivePath == "" || targetDir == "" {
		return fmt.Errorf("archivePath and targetDir are required")
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name, err := recordEntryName(hdr.Name)
		if err != nil {
			return err
		}

		dst, err := os.OpenFile(filepath.Join(targetDir, name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		if _, err := io.Copy(dst, tr); err != nil {
			_ = dst.Close()
			return err
		}
		if err := dst.Close(); err != nil {
			return err
		}
	}
	return nil
}

// recordEntryName validates an archive entry as a flat dynasty record name.
func recordEntryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid archive entry path: %q", name)
	}
	if !isDynastyRecord(name) {
		return "", fmt.Errorf("not a dynasty record: %q", name)
	}
	return name, nil
}
