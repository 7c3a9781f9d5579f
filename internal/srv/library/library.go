package library

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2"
	"github.com/jypelle/gifmatrix/internal/srv/engine"
	"github.com/sirupsen/logrus"
)

const Extension = ".gif"

var (
	ErrInvalidUpload  = errors.New("invalid upload")
	ErrUploadTooLarge = errors.New("upload too large")
	ErrNotFound       = errors.New("item not found")
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Library is the folder of GIF items. The listing is cached and invalidated by a folder watcher.
type Library struct {
	lock          sync.RWMutex
	folder        string
	bounds        image.Rectangle
	maxUploadSize int64

	names []string
	dirty bool

	watcher *fsnotify.Watcher
	askDone chan struct{}
	done    chan struct{}
}

func NewLibrary(folder string, bounds image.Rectangle, maxUploadSize int64) *Library {
	return &Library{
		folder:        folder,
		bounds:        bounds,
		maxUploadSize: maxUploadSize,
		dirty:         true,
	}
}

func (l *Library) Folder() string {
	return l.folder
}

func (l *Library) Start() error {
	logrus.Infof("Start library on %s", l.folder)

	if err := os.MkdirAll(l.folder, 0770); err != nil {
		return fmt.Errorf("unable to create library folder: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.Warnf("Library folder not watched, listing on each pass: %v", err)
		return nil
	}
	if err := watcher.Add(l.folder); err != nil {
		watcher.Close()
		logrus.Warnf("Library folder not watched, listing on each pass: %v", err)
		return nil
	}

	l.lock.Lock()
	l.watcher = watcher
	l.askDone = make(chan struct{})
	l.done = make(chan struct{})
	l.lock.Unlock()

	go l.watch(watcher)
	return nil
}

func (l *Library) Stop() {
	logrus.Infof("Stop library")

	l.lock.Lock()
	watcher := l.watcher
	l.watcher = nil
	l.lock.Unlock()

	if watcher != nil {
		close(l.askDone)
		<-l.done
	}
}

func (l *Library) watch(watcher *fsnotify.Watcher) {
	defer close(l.done)
	defer watcher.Close()

	for {
		select {
		case <-l.askDone:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if isItemName(filepath.Base(ev.Name)) && ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) != 0 {
				logrus.Debugf("Library change: %s", ev)
				l.invalidate()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logrus.Warnf("Library watcher error: %v", err)
			l.invalidate()
		}
	}
}

func (l *Library) invalidate() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.dirty = true
}

// List returns the GIF files of the folder, in directory order.
func (l *Library) List() ([]string, error) {
	l.lock.RLock()
	if !l.dirty && l.watcher != nil {
		names := append([]string(nil), l.names...)
		l.lock.RUnlock()
		return names, nil
	}
	l.lock.RUnlock()

	l.lock.Lock()
	defer l.lock.Unlock()

	entries, err := os.ReadDir(l.folder)
	if err != nil {
		return nil, fmt.Errorf("unable to read library folder: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && isItemName(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	l.names = names
	l.dirty = false
	return append([]string(nil), names...), nil
}

func (l *Library) Decode(name string) (*engine.Sequence, error) {
	file, err := l.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrDecode, err)
	}
	defer file.Close()

	seq, err := DecodeGIF(file, l.bounds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return seq, nil
}

// Open gives access to the stored content of name.
func (l *Library) Open(name string) (*os.File, error) {
	if name != filepath.Base(name) || !isItemName(name) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	file, err := os.Open(filepath.Join(l.folder, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return file, nil
}

// Save validates and atomically stores an uploaded GIF, returning its library name.
func (l *Library) Save(filename string, r io.Reader) (string, error) {
	name, err := SanitizeFilename(filename)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, l.maxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("unable to read upload: %w", err)
	}
	if int64(len(data)) > l.maxUploadSize {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, l.maxUploadSize)
	}

	if _, err := DecodeGIF(bytes.NewReader(data), l.bounds); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}

	if err := renameio.WriteFile(filepath.Join(l.folder, name), data, 0660); err != nil {
		return "", fmt.Errorf("unable to store %s: %w", name, err)
	}
	l.invalidate()

	logrus.Infof("Stored %s (%d bytes)", name, len(data))
	return name, nil
}

// SanitizeFilename keeps the base name with safe characters and requires the GIF extension.
func SanitizeFilename(filename string) (string, error) {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = unsafeFilenameChars.ReplaceAllString(strings.ReplaceAll(name, " ", "_"), "")
	name = strings.TrimLeft(name, "._")
	if name == "" || name == "." {
		return "", fmt.Errorf("%w: no filename", ErrInvalidUpload)
	}
	if !isItemName(name) {
		return "", fmt.Errorf("%w: only %s files are allowed", ErrInvalidUpload, Extension)
	}
	return name, nil
}

func isItemName(name string) bool {
	return !strings.HasPrefix(name, ".") &&
		len(name) > len(Extension) &&
		strings.EqualFold(filepath.Ext(name), Extension)
}
