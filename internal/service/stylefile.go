package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joeblew999/plat-style/internal/mapstyle"
)

// StyleFileService manages style documents stored in the data directory.
type StyleFileService struct {
	stylesDir string
}

// NewStyleFileService creates a new style file service.
func NewStyleFileService(dataDir string) *StyleFileService {
	return &StyleFileService{
		stylesDir: filepath.Join(dataDir, "styles"),
	}
}

// List returns all style documents in the styles directory.
func (s *StyleFileService) List() ([]StyleFile, error) {
	entries, err := os.ReadDir(s.stylesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []StyleFile{}, nil
		}
		return nil, err
	}

	files := []StyleFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ".json" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, StyleFile{
			Name: entry.Name(),
			Size: formatSize(info.Size()),
			URL:  "file:" + entry.Name(),
		})
	}

	return files, nil
}

// Definitions returns a registry entry for every local style document. The
// id is the file name without extension.
func (s *StyleFileService) Definitions() ([]mapstyle.StyleDefinition, error) {
	files, err := s.List()
	if err != nil {
		return nil, fmt.Errorf("list styles in %s: %w", s.stylesDir, err)
	}
	defs := make([]mapstyle.StyleDefinition, 0, len(files))
	for _, f := range files {
		id := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		defs = append(defs, mapstyle.StyleDefinition{
			ID:    id,
			Label: labelFromID(id),
			URL:   f.URL,
		})
	}
	return defs, nil
}

// StylesDir returns the path to the styles directory.
func (s *StyleFileService) StylesDir() string {
	return s.stylesDir
}

// labelFromID turns "muted_night-v2" into "Muted Night V2".
func labelFromID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
