package convlog

import (
	"fmt"
	"os"
	"path/filepath"
)

// Downloader delivers an exported transcript to the user.
type Downloader interface {
	Download(content, filename string) error
}

// DirDownloader writes transcripts into a directory.
type DirDownloader struct {
	Dir string
}

func (d DirDownloader) Download(content, name string) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(d.Dir, filepath.Base(name))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
