// Package publish writes the repertoire as a tree of markdown files.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"repertoire-cli/internal/model"
	"repertoire-cli/internal/repertoire"
)

type WriteOptions struct {
	SkipNotes bool
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written" yaml:"written"`
}

// WriteLine writes <toDir>/lines/<id>.md.
func WriteLine(t *repertoire.Tree, lineID string, toDir string, opt WriteOptions) (WriteResult, error) {
	lineID = strings.TrimSpace(lineID)
	if lineID == "" {
		return WriteResult{}, errors.New("missing lineID")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	md, err := RenderLineMarkdown(t, lineID, RenderOptions{SkipNotes: opt.SkipNotes})
	if err != nil {
		return WriteResult{}, err
	}
	outDir := filepath.Join(toDir, "lines")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	outPath := filepath.Join(outDir, lineID+".md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

// WriteFolder writes <toDir>/index.md for folderID plus a page per line below it.
func WriteFolder(t *repertoire.Tree, folderID string, toDir string, opt WriteOptions) (WriteResult, error) {
	folderID = strings.TrimSpace(folderID)
	if folderID == "" {
		return WriteResult{}, errors.New("missing folderID")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	indexMD, err := RenderFolderIndexMarkdown(t, folderID)
	if err != nil {
		return WriteResult{}, err
	}
	if err := os.MkdirAll(filepath.Join(toDir, "lines"), 0o755); err != nil {
		return WriteResult{}, err
	}
	indexPath := filepath.Join(toDir, "index.md")
	if err := writeFile(indexPath, []byte(indexMD), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}

	// Stop on first error.
	written := []string{indexPath}
	for _, id := range t.LinesUnder(model.ID(folderID)) {
		res, err := WriteLine(t, id, toDir, opt)
		if err != nil {
			return WriteResult{Written: written}, err
		}
		written = append(written, res.Written...)
	}
	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
