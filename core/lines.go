package core

import (
	"bufio"
	"io"
	"os"
)

// lineReader splits a file into physical lines. A trailing "\n" or "\r\n" is
// dropped and a last line without terminator still counts as a line.
type lineReader struct {
	r   *bufio.Reader
	buf []byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, readBufferSize)}
}

// next returns the next line or io.EOF. The returned slice is only valid
// until the following call.
func (lr *lineReader) next() ([]byte, error) {
	line, err := lr.r.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		lr.buf = append(lr.buf[:0], line...)
		for err == bufio.ErrBufferFull {
			line, err = lr.r.ReadSlice('\n')
			lr.buf = append(lr.buf, line...)
		}
		line = lr.buf
	}

	if err != nil {
		if err != io.EOF {
			return nil, err
		}
		if len(line) == 0 {
			return nil, io.EOF
		}
	}

	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
	}

	return line, nil
}

// eachLine calls fn with the ordinal and text of every line in path, in order.
func eachLine(path string, fn func(ordinal uint64, text []byte) error) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	lr := newLineReader(f)

	var ordinal uint64
	for {
		text, err := lr.next()
		if err == io.EOF {
			return ordinal, nil
		}
		if err != nil {
			return ordinal, err
		}

		if err := fn(ordinal, text); err != nil {
			return ordinal, err
		}
		ordinal++
	}
}
