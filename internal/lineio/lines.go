package lineio

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// ForEach calls fn with every line of r and its 1-based number.
// Only the "\n" terminator is removed; a "\r" before it is kept.
// Lines have no length limit.
func ForEach(r io.Reader, fn func(line string, lineNum int) error) error {
	reader := bufio.NewReader(r)
	lineNum := 0

	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		if line == "" && err != nil {
			return nil
		}

		lineNum++

		fnErr := fn(strings.TrimSuffix(line, "\n"), lineNum)
		if fnErr != nil {
			return fnErr
		}

		if err != nil {
			return nil
		}
	}
}
