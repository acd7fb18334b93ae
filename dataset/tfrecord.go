package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/mapshot/constant"
	"github.com/lixenwraith/mapshot/core"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// maxRecordLen rejects absurd lengths before allocating
const maxRecordLen = 1 << 31

// MaskedCRC returns the masked CRC32C used by TFRecord framing
func MaskedCRC(b []byte) uint32 {
	c := crc32.Checksum(b, castagnoli)
	return ((c >> 15) | (c << 17)) + constant.TFRecordMaskDelta
}

// TFRecordWriter streams tf.Example records into a single file
type TFRecordWriter struct {
	path     string
	f        *os.File
	w        *bufio.Writer
	records  int
	finished bool
	opts     options
}

// NewTFRecordWriter creates path, appending .tfrecord when missing; an existing file is an error
func NewTFRecordWriter(path string, opts ...Option) (*TFRecordWriter, error) {
	if !strings.HasSuffix(strings.ToLower(path), constant.TFRecordExtension) {
		path += constant.TFRecordExtension
	}
	f, err := createExclusive(path)
	if err != nil {
		return nil, err
	}
	o := buildOptions("tfrecord", opts)
	o.log.WithField("path", path).Info("TFRecord output opened")
	return &TFRecordWriter{path: path, f: f, w: bufio.NewWriter(f), opts: o}, nil
}

// Path returns the record file path
func (t *TFRecordWriter) Path() string { return t.path }

// Write encodes the sample as a tf.Example record
// Nothing is written for a sample that fails to encode
func (t *TFRecordWriter) Write(s *core.Sample) error {
	if t.finished {
		return ErrFinished
	}
	ex, err := NewExample(s)
	if err != nil {
		return err
	}
	return t.WriteRecord(ex.Marshal())
}

// WriteRecord frames one payload: length, masked crc of length, payload, masked crc of payload
func (t *TFRecordWriter) WriteRecord(payload []byte) error {
	if t.finished {
		return ErrFinished
	}
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(len(payload)))
	binary.LittleEndian.PutUint32(header[8:], MaskedCRC(header[:8]))
	var footer [4]byte
	binary.LittleEndian.PutUint32(footer[:], MaskedCRC(payload))

	for _, chunk := range [][]byte{header[:], payload, footer[:]} {
		if _, err := t.w.Write(chunk); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}
	t.records++
	t.opts.count(len(header) + len(payload) + len(footer))
	return nil
}

// Finish flushes and closes the file
func (t *TFRecordWriter) Finish() error {
	if t.finished {
		return ErrFinished
	}
	t.finished = true
	if err := t.w.Flush(); err != nil {
		t.f.Close()
		return fmt.Errorf("flush %s: %w", t.path, err)
	}
	if err := t.f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", t.path, err)
	}
	t.opts.log.WithFields(logrus.Fields{"path": t.path, "records": t.records}).Info("TFRecord output sealed")
	return nil
}

// RecordReader reads TFRecord framing and verifies both checksums
type RecordReader struct {
	r *bufio.Reader
}

// NewRecordReader wraps r
func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{r: bufio.NewReader(r)}
}

// Next returns the next payload, or io.EOF at a clean end of stream
func (rr *RecordReader) Next() ([]byte, error) {
	var header [12]byte
	if _, err := io.ReadFull(rr.r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: truncated record header: %v", core.ErrCorruption, err)
	}
	if got, want := binary.LittleEndian.Uint32(header[8:]), MaskedCRC(header[:8]); got != want {
		return nil, fmt.Errorf("%w: length checksum %08x, expected %08x", core.ErrCorruption, got, want)
	}
	length := binary.LittleEndian.Uint64(header[:8])
	if length > maxRecordLen {
		return nil, fmt.Errorf("%w: record length %d", core.ErrCorruption, length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(rr.r, payload); err != nil {
		return nil, fmt.Errorf("%w: truncated record payload: %v", core.ErrCorruption, err)
	}
	var footer [4]byte
	if _, err := io.ReadFull(rr.r, footer[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated record footer: %v", core.ErrCorruption, err)
	}
	if got, want := binary.LittleEndian.Uint32(footer[:]), MaskedCRC(payload); got != want {
		return nil, fmt.Errorf("%w: payload checksum %08x, expected %08x", core.ErrCorruption, got, want)
	}
	return payload, nil
}
