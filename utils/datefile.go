package utils

import (
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/spf13/afero"
)

type dateFile struct {
	mu       sync.Mutex
	fs       afero.Fs
	file     afero.File
	lastDate string
	name     string
	flags    int
	perms    fs.FileMode
	now      func() time.Time
}

// NewDateFile returns a writer that prefixes name with the current date and opens a new file
// whenever the date changes
func NewDateFile(fs afero.Fs, name string, flags int, perms fs.FileMode) io.WriteCloser {
	return &dateFile{
		fs:    fs,
		name:  name,
		flags: flags,
		perms: perms,
		now:   time.Now,
	}
}

func (f *dateFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	err := f.file.Close()
	f.file = nil
	f.lastDate = ""
	return err
}

func (f *dateFile) loadFile() error {
	t := f.now().Format(time.DateOnly)
	if t == f.lastDate && f.file != nil {
		return nil
	}

	if f.file != nil {
		if err := f.file.Close(); err != nil {
			return err
		}
	}

	name := fmt.Sprintf("%s-%s", t, f.name)
	file, err := f.fs.OpenFile(name, f.flags, f.perms)
	if err != nil {
		return err
	}

	f.file = file
	f.lastDate = t
	return nil
}

func (f *dateFile) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadFile(); err != nil {
		return 0, err
	}

	return f.file.Write(b)
}
