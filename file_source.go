package bloc

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
)

// FileSource watches a file and emits a decoded event for every write.
// It turns a file on disk into an event feed: each time the file changes,
// its contents are decoded with the configured codec (default JSON) into a
// fresh E. The current contents are emitted immediately so a container can
// pick up the on-disk value at bind time.
type FileSource[E any] struct {
	path  string
	codec Codec
}

// NewFileSource creates a FileSource for the given path.
func NewFileSource[E any](path string) *FileSource[E] {
	return &FileSource[E]{path: path, codec: JSONCodec{}}
}

// Codec sets the codec used to decode file contents into events.
// Default: JSONCodec. Must be called before Events.
func (s *FileSource[E]) Codec(codec Codec) *FileSource[E] {
	s.codec = codec
	return s
}

// Events begins watching the file and returns a channel emitting one
// decoded event per write. Contents that fail to decode are skipped; the
// watch continues. The channel closes when ctx is canceled.
func (s *FileSource[E]) Events(ctx context.Context) (<-chan E, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch file %s: %w", s.path, err)
	}

	out := make(chan E)

	go func() {
		defer close(out)
		defer watcher.Close()

		// Emit the current contents first.
		if event, ok := s.decode(); ok {
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case fsEvent, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Only emit on write or create events
				if fsEvent.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				event, ok := s.decode()
				if !ok {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Continue watching despite errors
			}
		}
	}()

	return out, nil
}

// decode reads and decodes the file, reporting whether an event resulted.
func (s *FileSource[E]) decode() (E, bool) {
	var event E
	data, err := os.ReadFile(s.path)
	if err != nil {
		return event, false
	}
	if err := s.codec.Unmarshal(data, &event); err != nil {
		return event, false
	}
	return event, true
}
