package unpacker

import "os"

// Oracle answers whether a rendition file is present on the media volume
type Oracle interface {
	Exists(path string) bool
}

// FileSystemOracle checks paths against the local filesystem
type FileSystemOracle struct{}

func (FileSystemOracle) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// OracleFunc adapts a plain function to the Oracle interface
type OracleFunc func(path string) bool

func (f OracleFunc) Exists(path string) bool {
	return f(path)
}
