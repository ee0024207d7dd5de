package ports

import "time"

// FileSystemPort is the file capability the manifest cache consumes.
type FileSystemPort interface {
	ReadFile(path string) ([]byte, error)

	// ModTime returns (zero, false) when the file does not exist.
	ModTime(path string) (time.Time, bool)

	// WriteFileAtomic replaces path so that readers never observe a
	// partially written file.
	WriteFileAtomic(path string, data []byte) error

	RemoveFile(path string) error

	// Glob returns matches in lexicographic order.
	Glob(pattern string) ([]string, error)
}
