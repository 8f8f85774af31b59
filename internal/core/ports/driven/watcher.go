package driven

import "context"

// FileWatcher reports changes to a single file.
type FileWatcher interface {
	// Watch emits on the first channel whenever the file at path is written
	// or recreated. Both channels close when ctx is done.
	Watch(ctx context.Context, path string) (<-chan struct{}, <-chan error)
}
