package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Format selects a snapshot encoding.
type Format int

const (
	FormatBinary Format = iota
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatForPath picks the snapshot format from a file extension: ".json"
// selects JSON, anything else the binary format.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatBinary
}

// Binary snapshot header: [4-byte magic "RWDB"][uint16 version][uint32 tableCount]
// followed by one entry per table:
//
//	[uint32 totalLen][payload…][uint32 crc32]
//
// totalLen counts the length field, payload and CRC. The CRC covers the
// payload, which is:
//
//	[name:str][colCount:u16] per col: [name:str][datatype:u8][nullable:u8]
//	[rowCount:u32] per row: [valueCount:u16][value…]
const (
	snapshotMagic          = "RWDB"
	snapshotHeaderSize     = 10 // 4 (magic) + 2 (version) + 4 (table count)
	snapshotCurrentVersion = 1

	// maxSnapshotEntrySize bounds totalLen of a single table entry.
	maxSnapshotEntrySize = 1 << 30
)

// SnapshotVersionError is returned when a binary snapshot was written by a
// newer format version than this build understands.
type SnapshotVersionError struct {
	Version   uint16
	Supported uint16
}

func (e *SnapshotVersionError) Error() string {
	return fmt.Sprintf("snapshot version %d is newer than supported version %d", e.Version, e.Supported)
}

// Save writes every table to w in the given format.
func (c *Catalog) Save(w io.Writer, format Format) error {
	snaps := c.Snapshot()
	switch format {
	case FormatBinary:
		return writeBinarySnapshot(w, snaps)
	case FormatJSON:
		return writeJSONSnapshot(w, snaps)
	default:
		return fmt.Errorf("unsupported snapshot format %s", format)
	}
}

// Load replaces the catalog contents with the snapshot read from r. On
// any error the catalog is left as it was.
func (c *Catalog) Load(r io.Reader, format Format) error {
	var (
		snaps []TableSnapshot
		err   error
	)
	switch format {
	case FormatBinary:
		snaps, err = readBinarySnapshot(r)
	case FormatJSON:
		snaps, err = readJSONSnapshot(r)
	default:
		return fmt.Errorf("unsupported snapshot format %s", format)
	}
	if err != nil {
		return err
	}
	if err := c.Restore(snaps); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	return nil
}

// SaveFile writes a snapshot to path, choosing the format by extension.
// The data goes to a temporary file in the same directory that is then
// renamed over path, so a failed save never truncates an existing file.
func (c *Catalog) SaveFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	tmpName := tmp.Name()

	bw := bufio.NewWriter(tmp)
	if err := c.Save(bw, FormatForPath(path)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// LoadFile reads a snapshot from path, choosing the format by extension.
func (c *Catalog) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return c.Load(bufio.NewReader(f), FormatForPath(path))
}

// -------------------------------------------------------------------------
// Binary format
// -------------------------------------------------------------------------

func writeBinarySnapshot(w io.Writer, snaps []TableSnapshot) error {
	var hdr [snapshotHeaderSize]byte
	copy(hdr[:4], snapshotMagic)
	binary.BigEndian.PutUint16(hdr[4:6], snapshotCurrentVersion)
	binary.BigEndian.PutUint32(hdr[6:], uint32(len(snaps)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	for _, s := range snaps {
		payload, err := encodeTable(s)
		if err != nil {
			return fmt.Errorf("encode table %q: %w", s.Name, err)
		}
		if len(payload)+8 > maxSnapshotEntrySize {
			return fmt.Errorf("table %q: entry of %d bytes exceeds the %d byte limit", s.Name, len(payload)+8, maxSnapshotEntrySize)
		}
		if err := writeEntry(w, payload); err != nil {
			return fmt.Errorf("write table %q: %w", s.Name, err)
		}
	}
	return nil
}

func writeEntry(w io.Writer, payload []byte) error {
	totalLen := uint32(4 + len(payload) + 4) // len + payload + crc

	entry := make([]byte, 0, totalLen)
	entry = binary.BigEndian.AppendUint32(entry, totalLen)
	entry = append(entry, payload...)
	entry = binary.BigEndian.AppendUint32(entry, crc32.ChecksumIEEE(payload))

	_, err := w.Write(entry)
	return err
}

func encodeTable(s TableSnapshot) ([]byte, error) {
	buf, err := encodeString(nil, s.Name)
	if err != nil {
		return nil, err
	}
	if len(s.Columns) > math.MaxUint16 {
		return nil, fmt.Errorf("too many columns: %d", len(s.Columns))
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s.Columns)))
	for _, col := range s.Columns {
		if buf, err = encodeString(buf, col.Name); err != nil {
			return nil, err
		}
		buf = append(buf, byte(col.DataType))
		var nullable byte
		if col.Nullable {
			nullable = 1
		}
		buf = append(buf, nullable)
	}

	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s.Rows)))
	for i, row := range s.Rows {
		if buf, err = encodeRow(buf, row); err != nil {
			return nil, fmt.Errorf("row[%d]: %w", i, err)
		}
	}
	return buf, nil
}

func readBinarySnapshot(r io.Reader) ([]TableSnapshot, error) {
	var hdr [snapshotHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}
	if string(hdr[:4]) != snapshotMagic {
		return nil, fmt.Errorf("not a rowdb snapshot (bad magic %q)", hdr[:4])
	}
	version := binary.BigEndian.Uint16(hdr[4:6])
	if version > snapshotCurrentVersion {
		return nil, &SnapshotVersionError{Version: version, Supported: snapshotCurrentVersion}
	}
	count := binary.BigEndian.Uint32(hdr[6:])

	// count comes from the file; grow with the entries actually read.
	snaps := make([]TableSnapshot, 0, min(count, 64))
	for i := uint32(0); i < count; i++ {
		payload, err := readEntry(r)
		if err != nil {
			return nil, fmt.Errorf("table entry %d: %w", i, err)
		}
		s, err := decodeTable(payload)
		if err != nil {
			return nil, fmt.Errorf("table entry %d: %w", i, err)
		}
		snaps = append(snaps, s)
	}
	return snaps, nil
}

func readEntry(r io.Reader) ([]byte, error) {
	var totalLen uint32
	if err := binary.Read(r, binary.BigEndian, &totalLen); err != nil {
		return nil, fmt.Errorf("read entry length: %w", err)
	}
	if totalLen < 8 { // 4 (len) + 4 (crc)
		return nil, fmt.Errorf("snapshot entry too short: %d bytes", totalLen)
	}

	if totalLen > maxSnapshotEntrySize {
		return nil, fmt.Errorf("snapshot entry too large: %d bytes", totalLen)
	}

	// Copy rather than preallocate so a truncated file claiming a large
	// entry only costs what it actually holds.
	var body bytes.Buffer
	if _, err := io.CopyN(&body, r, int64(totalLen-4)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read entry body: %w", err)
	}
	rest := body.Bytes()

	payload := rest[:len(rest)-4]
	storedCRC := binary.BigEndian.Uint32(rest[len(rest)-4:])
	if crc32.ChecksumIEEE(payload) != storedCRC {
		return nil, fmt.Errorf("snapshot CRC mismatch")
	}
	return payload, nil
}

func decodeTable(payload []byte) (TableSnapshot, error) {
	var s TableSnapshot
	name, rest, err := decodeString(payload)
	if err != nil {
		return s, err
	}
	s.Name = name

	if len(rest) < 2 {
		return s, fmt.Errorf("truncated column count")
	}
	colCount := binary.BigEndian.Uint16(rest[:2])
	rest = rest[2:]

	s.Columns = make([]ColumnDef, colCount)
	for i := range s.Columns {
		s.Columns[i].Name, rest, err = decodeString(rest)
		if err != nil {
			return s, err
		}
		if len(rest) < 2 { // datatype(1) + nullable(1)
			return s, fmt.Errorf("truncated column type")
		}
		s.Columns[i].DataType = DataType(rest[0])
		s.Columns[i].Nullable = rest[1] != 0
		rest = rest[2:]
	}

	if len(rest) < 4 {
		return s, fmt.Errorf("truncated row count")
	}
	rowCount := binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]

	s.Rows = make([]Row, 0, min(int(rowCount), len(rest)/2))
	for i := uint32(0); i < rowCount; i++ {
		var row Row
		row, rest, err = decodeRow(rest)
		if err != nil {
			return s, fmt.Errorf("row[%d]: %w", i, err)
		}
		s.Rows = append(s.Rows, row)
	}
	if len(rest) != 0 {
		return s, fmt.Errorf("%d trailing bytes after table %q", len(rest), s.Name)
	}
	return s, nil
}
