// Package storage keeps screenshot evidence on disk behind a narrow
// interface so the broadcast core stays free of filesystem concerns.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxScreenshotBytes = 5 << 20

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Screenshots stores screenshot files under a single directory. References
// handed out are bare file names, never paths.
type Screenshots struct {
	Dir string

	// Client downloads attachment URLs. Defaults to http.DefaultClient.
	Client *http.Client
}

// Save downloads an attachment and stores it under a date-prefixed name
// derived from the reported user's ID. The returned reference goes into
// the bad actor entry.
func (s *Screenshots) Save(url, originalName, actorUserID string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", errors.New("invalid file type, only PNG, JPEG and JPG files are allowed")
	}

	name := fmt.Sprintf("%s_%s%s", time.Now().Format("2006-01-02"), actorUserID, ext)
	path := filepath.Join(s.Dir, name)

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("file already exists: %s", name)
	}

	data, err := s.download(url)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}

	log.Printf("[storage] file saved to %s", path)
	return name, nil
}

// Replace deletes the old screenshot and saves the new one. A failure to
// delete the old file is logged but does not block the replacement.
func (s *Screenshots) Replace(url, originalName, actorUserID, oldRef string) (string, error) {
	if err := s.Delete(oldRef); err != nil {
		log.Printf("[storage] failed to delete old file %s: %v", oldRef, err)
	}
	return s.Save(url, originalName, actorUserID)
}

// Delete removes a stored screenshot by its reference.
func (s *Screenshots) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	return os.Remove(filepath.Join(s.Dir, filepath.Base(ref)))
}

func (s *Screenshots) download(url string) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch the file: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxScreenshotBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxScreenshotBytes {
		return nil, fmt.Errorf("file size too large, max file size is %d bytes", maxScreenshotBytes)
	}

	return data, nil
}
