package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"h2d/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {

	r := &Report{entries: make(map[string]entry)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

type entry struct {
	original string
	actual   string
	stamp    time.Time
	data     []byte
}

// Report accumulates files and data blobs (source markup, parsed tree dump,
// rendered parts) to be packed into a single debug archive on Close.
// NOTE: not to be used concurrently.
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Close finalizes debug report.
func (r *Report) Close() error {
	// nil report means no report has been requested
	if r == nil || r.file == nil {
		return nil
	}
	return multierr.Append(r.finalize(), r.file.Close())
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store saves path to file to be put in the final archive later.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if old, exists := r.entries[name]; exists && old.original != path {
		panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, old.original, path))
	}

	e := entry{original: path, actual: path}
	if p, err := filepath.Abs(path); err == nil {
		e.actual = p
	}
	r.entries[name] = e
}

// StoreData saves binary data to be put in the final archive later as a file
// under requested name. Repeated names get a numeric suffix so the same kind
// of data may be stored for every converted file.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	key := name
	for n := 2; ; n++ {
		if _, exists := r.entries[key]; !exists {
			break
		}
		key = fmt.Sprintf("%s.%d", name, n)
	}
	r.entries[key] = entry{data: data, stamp: time.Now()}
}

// finalize packs manifest and all stored items into report archive.
func (r *Report) finalize() (err error) {
	arc := zip.NewWriter(r.file)
	defer func() {
		err = multierr.Append(err, arc.Close())
	}()

	names := slices.SortedFunc(maps.Keys(r.entries), natural.Compare)
	if err := writeEntry(arc, "MANIFEST", time.Now(), manifest(names, r.entries)); err != nil {
		return err
	}
	for _, name := range names {
		if err := r.entries[name].pack(arc, name); err != nil {
			return fmt.Errorf("unable to pack %s: %w", name, err)
		}
	}
	return nil
}

// pack copies entry content into archive. Files which disappeared since
// Store was called are silently skipped.
func (e entry) pack(arc *zip.Writer, name string) error {
	if len(e.data) > 0 {
		return writeEntry(arc, name, e.stamp, bytes.NewReader(e.data))
	}
	info, err := os.Stat(e.actual)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}
	f, err := os.Open(e.actual)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeEntry(arc, name, info.ModTime(), f)
}

// manifest lists every stored item, one per line: time, name and origin.
func manifest(names []string, entries map[string]entry) io.Reader {
	var (
		buf bytes.Buffer
		now = time.Now()
	)
	for _, name := range names {
		e := entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		origin := "(data)"
		if e.data == nil {
			origin = e.original + " : " + e.actual
		}
		fmt.Fprintf(&buf, "%s\t%s\t%s\n", stamp.UTC().Format(time.RFC3339), name, origin)
	}
	return &buf
}

func writeEntry(arc *zip.Writer, name string, modified time.Time, src io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
