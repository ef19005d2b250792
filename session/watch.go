package session

import (
	"os"

	"github.com/fsnotify/fsnotify"
)

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Watcher watches a Session's configured search paths for on-disk edits,
// bumping the edited module's source version and invalidating its
// dependents on every write (spec §3 "a Session observes the filesystem
// and re-analyzes modules whose source changed"), generalized from the
// teacher's incremental-rebuild trigger (core.BuildState re-parsing a
// package once its BUILD file's mtime changes) to fsnotify-driven push
// notification instead of a poll loop.
type Watcher struct {
	sess *Session
	fsw  *fsnotify.Watcher
	done chan struct{}

	// PathToModule maps a watched file's absolute path to the dotted
	// module name Analyze should use when re-analyzing it. Add records an
	// entry for every path it starts watching; nothing else fills it in.
	PathToModule map[string]string
}

// NewWatcher creates a Watcher bound to sess. Call Watch to begin watching
// and Close to stop.
func NewWatcher(sess *Session) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{sess: sess, fsw: fsw, done: make(chan struct{}), PathToModule: map[string]string{}}, nil
}

// Add starts watching path (a directory or file) for changes, associating
// it with dotted for re-analysis.
func (w *Watcher) Add(path, dotted string) error {
	w.PathToModule[path] = dotted
	return w.fsw.Add(path)
}

// Watch runs the event loop until Close is called. It is meant to be
// invoked in its own goroutine.
func (w *Watcher) Watch() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			dotted, ok := w.PathToModule[ev.Name]
			if !ok {
				continue
			}
			src, err := readFile(ev.Name)
			if err != nil {
				log.Warningf("watch: reading %s after change: %s", ev.Name, err)
				continue
			}
			if _, err := w.sess.Analyze(dotted, ev.Name, src); err != nil {
				log.Warningf("watch: re-analyzing %s: %s", dotted, err)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warningf("watch: fsnotify error: %s", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watch loop and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
