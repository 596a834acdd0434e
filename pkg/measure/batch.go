package measure

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
)

// A BatchEntry is the outcome for one file of a directory sweep.
// Index is the zero-based position in directory-traversal order,
// stable across runs so rows can be diffed between sessions.
type BatchEntry struct {
	Index  int
	Path   string
	Result *Result
	Err    error
}

// Batch measures every image file directly inside dir. Files run on
// a pool of Cfg.Jobs workers; each image's pipeline is stateless, so
// the only coordination is handing out work and collecting results.
// One file failing never stops its siblings - its entry simply
// carries the error. The returned slice is in traversal order.
func (p *Pipeline) Batch(dir string) ([]BatchEntry, error) {
	paths, err := listImages(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]BatchEntry, len(paths))
	jobs := p.Cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}

	var wg sync.WaitGroup
	work := make(chan int)
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				res, err := p.Analyze(paths[i])
				entries[i] = BatchEntry{Index: i, Path: paths[i], Result: res, Err: err}
				if err != nil {
					p.Log.Warn("measurement failed", "image", paths[i], "err", err)
				} else {
					p.Log.Info("measured", "image", paths[i], "record", res.Record())
				}
			}
		}()
	}
	for i := range paths {
		work <- i
	}
	close(work)
	wg.Wait()

	return entries, nil
}

// listImages returns the loadable image files directly inside dir,
// sorted by name so batch indexes are deterministic.
func listImages(dir string) ([]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("readdir %s: %v", dir, err)
	}
	paths := []string{}
	for _, item := range items {
		if item.IsDir() || !IsImagePath(item.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, item.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// WriteCSV emits the batch contract: a header row then one row per
// successful measurement, in index order. Failed files contribute no
// row - a half-measured line would poison downstream statistics.
func WriteCSV(w io.Writer, entries []BatchEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Index", "Filename", "Separation", "Angle", "Dmag"}); err != nil {
		return err
	}
	for _, e := range entries {
		if e.Err != nil {
			continue
		}
		r := e.Result
		err := cw.Write([]string{
			strconv.Itoa(e.Index),
			filepath.Base(e.Path),
			fmt.Sprintf("%.2f", r.SeparationArcsec),
			fmt.Sprintf("%.2f", r.PositionAngleDeg),
			fmt.Sprintf("%.2f", r.DeltaMag),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
