package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tgcourse/internal/model"
)

var videoExts = map[string]bool{
	".mp4": true,
	".mkv": true,
	".mov": true,
}

// IsVideo reports whether name has an allowed video container extension.
func IsVideo(name string) bool {
	return videoExts[strings.ToLower(filepath.Ext(name))]
}

// ListMedia returns the sorted basenames of the video files directly inside dir.
func ListMedia(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsVideo(e.Name()) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// BuildPlan scans the immediate children of root. Root-level videos form a
// unit named after root, placed first; every subdirectory becomes a unit in
// lexicographic order, even when it holds no videos.
func BuildPlan(root string) (model.WorkPlan, error) {
	root = filepath.Clean(root)
	course := filepath.Base(root)

	entries, err := os.ReadDir(root)
	if err != nil {
		return model.WorkPlan{}, fmt.Errorf("read course dir: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if isDir(root, e) {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)

	plan := model.WorkPlan{Course: course, Root: root}

	rootFiles, err := ListMedia(root)
	if err != nil {
		return model.WorkPlan{}, err
	}
	if len(rootFiles) > 0 {
		plan.Units = append(plan.Units, model.WorkUnit{Name: course, SourcePath: root, MediaFiles: rootFiles})
	}

	for _, d := range dirs {
		p := filepath.Join(root, d)
		files, err := ListMedia(p)
		if err != nil {
			return model.WorkPlan{}, fmt.Errorf("read unit %s: %w", d, err)
		}
		plan.Units = append(plan.Units, model.WorkUnit{Name: d, SourcePath: p, MediaFiles: files})
	}
	return plan, nil
}

// isDir follows symlinks so linked lecture folders count as units.
func isDir(root string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(root, e.Name()))
	return err == nil && fi.IsDir()
}

// Progress returns the run-wide completion percent after item j (0-based)
// of n in unit i of total. Each unit carries an equal share of 100.
// Empty units and an empty plan yield the unit's starting share.
func Progress(i, total, j, n int) int {
	if total <= 0 {
		return 0
	}
	share := 100.0 / float64(total)
	pct := float64(i) * share
	if n > 0 {
		pct += float64(j+1) * (share / float64(n))
	}
	p := int(pct)
	if p > 100 {
		p = 100
	}
	return p
}
