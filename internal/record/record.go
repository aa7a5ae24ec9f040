package record

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"unicode/utf8"
)

// Line is one physical line of the input paired with the key that decides
// its position in the sorted output.
type Line struct {
	Key  uint32 // Target key derived from the keyword pass
	Text string // Line text without its terminator
}

// Terminator closes every encoded record.
const Terminator = '\n'

// Key (4)
const KeySizeBytes = 4

var (
	// ErrTruncatedKey is returned when the data ends in the middle of a key.
	ErrTruncatedKey = errors.New("record: data ends inside key")

	// ErrInvalidText is returned when record text is not valid UTF-8.
	ErrInvalidText = errors.New("record: text is not valid utf-8")
)

// EncodedSize is the number of bytes EncodeLine writes for line.
func EncodedSize(line Line) int {
	return KeySizeBytes + len(line.Text) + 1
}

// AppendLine appends the encoded form of line to dst.
//
// The record is encoded as:
//
//	<key:uint32 little-endian><text><'\n'>
//
// Text containing '\n' is not escaped, so it breaks framing on decode.
// Callers only hand in text that was split on '\n' in the first place.
func AppendLine(dst []byte, line Line) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, line.Key)
	dst = append(dst, line.Text...)
	return append(dst, Terminator)
}

func EncodeLineToBytes(line Line) []byte {
	return AppendLine(make([]byte, 0, EncodedSize(line)), line)
}

// EncodeLine writes the encoded form of line to w.
func EncodeLine(w io.Writer, line Line) error {
	var key [KeySizeBytes]byte
	binary.LittleEndian.PutUint32(key[:], line.Key)

	if _, err := w.Write(key[:]); err != nil {
		return err
	}
	if _, err := io.WriteString(w, line.Text); err != nil {
		return err
	}
	if _, err := w.Write([]byte{Terminator}); err != nil {
		return err
	}

	return nil
}

// DecodeLine reads the next record from r.
//
// It returns io.EOF when r is exhausted before a new record starts. Text that
// runs into the end of the data without a terminator is returned as the last
// record.
func DecodeLine(r *bufio.Reader) (Line, error) {
	var key [KeySizeBytes]byte
	if _, err := io.ReadFull(r, key[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Line{}, ErrTruncatedKey
		}
		return Line{}, err
	}

	text, err := r.ReadBytes(Terminator)
	if err != nil && err != io.EOF {
		return Line{}, err
	}
	if n := len(text); n > 0 && text[n-1] == Terminator {
		text = text[:n-1]
	}

	if !utf8.Valid(text) {
		return Line{}, ErrInvalidText
	}

	return Line{
		Key:  binary.LittleEndian.Uint32(key[:]),
		Text: string(text),
	}, nil
}
