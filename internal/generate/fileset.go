package generate

// FileSet maps relative file paths to generated contents. Iteration order is
// the order in which paths were first added, so downstream writes and result
// reporting stay deterministic.
type FileSet struct {
	order    []string
	contents map[string]string
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{contents: make(map[string]string)}
}

// Set adds or replaces a file. A replaced path keeps its original position.
func (fs *FileSet) Set(path, content string) {
	if _, ok := fs.contents[path]; !ok {
		fs.order = append(fs.order, path)
	}
	fs.contents[path] = content
}

// Get returns the content stored for path.
func (fs *FileSet) Get(path string) (string, bool) {
	content, ok := fs.contents[path]
	return content, ok
}

// Paths returns the file paths in first-insertion order.
func (fs *FileSet) Paths() []string {
	out := make([]string, len(fs.order))
	copy(out, fs.order)
	return out
}

// Len reports the number of files in the set.
func (fs *FileSet) Len() int {
	return len(fs.contents)
}
