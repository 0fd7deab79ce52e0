package batch

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emptyOVO/textjobs/worker"
	log "github.com/sirupsen/logrus"
)

const maxLineSize = 16 << 20

// ReadInputs loads every input unit named by paths. A path may be a file,
// a directory (its regular, non-hidden files) or a glob. Units are returned
// sorted by path and each file is read once. Cancellation is checked
// before each file.
func ReadInputs(ctx context.Context, paths []string) ([]worker.InputUnit, error) {
	files, err := expandInputs(paths)
	if err != nil {
		return nil, err
	}
	units := make([]worker.InputUnit, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, &worker.PhaseError{Phase: worker.PhaseRead, Path: f, Err: err}
		}
		u, err := readUnit(f)
		if err != nil {
			return nil, &worker.PhaseError{Phase: worker.PhaseRead, Path: f, Err: err}
		}
		log.Tracef("[Source] read %s (%d lines)", f, len(u.Lines))
		units = append(units, u)
	}
	return units, nil
}

func expandInputs(paths []string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	add := func(f string) {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, &worker.PhaseError{Phase: worker.PhaseRead, Path: p, Err: err}
		}
		if len(matches) == 0 {
			// Not a pattern match: let Stat report the missing path.
			matches = []string{p}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, &worker.PhaseError{Phase: worker.PhaseRead, Path: m, Err: err}
			}
			if !info.IsDir() {
				add(m)
				continue
			}
			entries, err := os.ReadDir(m)
			if err != nil {
				return nil, &worker.PhaseError{Phase: worker.PhaseRead, Path: m, Err: err}
			}
			for _, e := range entries {
				if e.IsDir() || hiddenName(e.Name()) {
					continue
				}
				add(filepath.Join(m, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// hiddenName follows the Hadoop input rule: names starting with "." or "_"
// are skipped.
func hiddenName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func readUnit(path string) (worker.InputUnit, error) {
	f, err := os.Open(path)
	if err != nil {
		return worker.InputUnit{}, err
	}
	defer f.Close()

	u := worker.InputUnit{Name: filepath.Base(path), Path: path}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		u.Lines = append(u.Lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return worker.InputUnit{}, err
	}
	return u, nil
}
