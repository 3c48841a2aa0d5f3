package tunable

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// File exposes keys of a YAML gain file as live Numbers. Values are copied
// into Vars on load so readers never touch viper from the control loop.
// Every access to the viper instance holds mu.
type File struct {
	path    string
	v       *viper.Viper
	log     *zap.Logger
	mu      sync.Mutex
	keys    map[string]*Var
	onLoad  []func()
	watcher *fsnotify.Watcher
}

type FileOption func(*File)

func WithLogger(l *zap.Logger) FileOption {
	return func(f *File) {
		if l != nil {
			f.log = l
		}
	}
}

// OpenFile reads path. Keys use viper's dotted notation ("pid.kp").
func OpenFile(path string, opts ...FileOption) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading gain file %s", path)
	}

	f := &File{path: filepath.Clean(path), v: v, log: zap.NewNop(), keys: make(map[string]*Var)}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Number returns a live value for key. If the key is absent the fallback is
// used until a reload provides it.
func (f *File) Number(key string, fallback float64) *Var {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n, ok := f.keys[key]; ok {
		return n
	}
	f.v.SetDefault(key, fallback)
	n := NewVar(f.v.GetFloat64(key))
	f.keys[key] = n
	return n
}

// Reload re-reads the file and publishes new values.
func (f *File) Reload() error {
	f.mu.Lock()
	if err := f.v.ReadInConfig(); err != nil {
		f.mu.Unlock()
		return errors.Wrap(err, "reloading gain file")
	}
	for key, n := range f.keys {
		val := f.v.GetFloat64(key)
		if val != n.Value() {
			f.log.Debug("gain updated", zap.String("key", key), zap.Float64("value", val))
		}
		n.Set(val)
	}
	hooks := append([]func(){}, f.onLoad...)
	f.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return nil
}

// OnLoad registers a callback run after every successful reload.
func (f *File) OnLoad(fn func()) {
	f.mu.Lock()
	f.onLoad = append(f.onLoad, fn)
	f.mu.Unlock()
}

// Watch reloads values whenever the file changes on disk, until Close.
// The directory is watched so editors that replace the file are seen.
func (f *File) Watch() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "watching gain file")
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return errors.Wrapf(err, "watching gain file %s", f.path)
	}
	f.watcher = w
	go f.watch(w)
	return nil
}

func (f *File) watch(w *fsnotify.Watcher) {
	for {
		select {
		case e, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != f.path || !e.Op.Has(fsnotify.Write) && !e.Op.Has(fsnotify.Create) {
				continue
			}
			f.log.Info("gain file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
			if err := f.Reload(); err != nil {
				f.log.Warn("gain file reload failed", zap.Error(err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			f.log.Warn("gain file watcher", zap.Error(err))
		}
	}
}

// Close stops a running Watch.
func (f *File) Close() error {
	f.mu.Lock()
	w := f.watcher
	f.watcher = nil
	f.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
