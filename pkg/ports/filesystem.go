// Package ports defines interfaces for external dependencies of the writer
// pipeline: containers, sources, filesystem, rendering and logging.
package ports

import "io"

// File is an open output file. Container writers append sequentially and
// may seek back once, on Close, to patch a header field.
type File interface {
	io.Writer
	io.Seeker
	io.Closer
}

// FileSystem abstracts file system operations.
type FileSystem interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to a file, creating it if necessary.
	WriteFile(path string, data []byte) error

	// Create creates or truncates a file for sequential writing,
	// creating parent directories as needed.
	Create(path string) (File, error)

	// Open opens a file for reading.
	Open(path string) (io.ReadSeekCloser, error)

	// List returns the names of the regular files in a directory, sorted.
	List(dir string) ([]string, error)

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory.
	Remove(path string) error
}
