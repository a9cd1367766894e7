package vector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Native file layout, little-endian:
//
//	magic "PSVM" | version uint16 | dtype uint16 | rows uint64 | cols uint64 | rows*cols float32
const (
	nativeMagic   = "PSVM"
	nativeVersion = 1
	dtypeFloat32  = 1

	nativeHeaderSize = 4 + 2 + 2 + 8 + 8
)

func isNPY(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".npy")
}

// readMatrix loads a matrix in whichever format path's extension selects.
func readMatrix(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, 0, fmt.Errorf("open vector file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat vector file: %w", err)
	}
	r := bufio.NewReaderSize(f, 1<<16)
	if isNPY(path) {
		return readNPY(r, info.Size())
	}
	return readNative(r, info.Size())
}

func readNative(r io.Reader, size int64) ([][]float32, int, error) {
	var hdr [nativeHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: short header", ErrFormat)
	}
	if string(hdr[:4]) != nativeMagic {
		return nil, 0, fmt.Errorf("%w: bad magic %q", ErrFormat, hdr[:4])
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != nativeVersion {
		return nil, 0, fmt.Errorf("%w: unsupported version %d", ErrFormat, v)
	}
	if dt := binary.LittleEndian.Uint16(hdr[6:8]); dt != dtypeFloat32 {
		return nil, 0, fmt.Errorf("%w: unsupported dtype %d", ErrFormat, dt)
	}
	rows := binary.LittleEndian.Uint64(hdr[8:16])
	cols := binary.LittleEndian.Uint64(hdr[16:24])
	if err := checkShape(rows, cols, 4, size-nativeHeaderSize); err != nil {
		return nil, 0, err
	}
	m, err := readFloat32Rows(r, int(rows), int(cols))
	if err != nil {
		return nil, 0, err
	}
	return m, int(cols), nil
}

// checkShape rejects shapes whose payload would not exactly fill the rest of
// the file.
func checkShape(rows, cols, elem uint64, remaining int64) error {
	if rows > 0 && cols == 0 {
		return fmt.Errorf("%w: %d rows with zero columns", ErrFormat, rows)
	}
	if cols != 0 && rows > math.MaxInt64/elem/cols {
		return fmt.Errorf("%w: shape (%d, %d) overflows", ErrFormat, rows, cols)
	}
	if want := int64(rows * cols * elem); want != remaining {
		return fmt.Errorf("%w: shape (%d, %d) needs %d bytes, file has %d", ErrFormat, rows, cols, want, remaining)
	}
	return nil
}

// readFloat32Rows reads rows*cols little-endian float32 values into one
// contiguous backing array.
func readFloat32Rows(r io.Reader, rows, cols int) ([][]float32, error) {
	data := make([]float32, rows*cols)
	buf := make([]byte, cols*4)
	out := make([][]float32, rows)
	for i := 0; i < rows; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: truncated at row %d", ErrFormat, i)
		}
		row := data[i*cols : (i+1)*cols : (i+1)*cols]
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		out[i] = row
	}
	return out, nil
}

func readFloat64Rows(r io.Reader, rows, cols int) ([][]float32, error) {
	data := make([]float32, rows*cols)
	buf := make([]byte, cols*8)
	out := make([][]float32, rows)
	for i := 0; i < rows; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: truncated at row %d", ErrFormat, i)
		}
		row := data[i*cols : (i+1)*cols : (i+1)*cols]
		for j := range row {
			row[j] = float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[j*8:])))
		}
		out[i] = row
	}
	return out, nil
}

// writeMatrix writes m to a temporary file next to path and renames it into
// place once everything is flushed and closed.
func writeMatrix(path string, m [][]float32, cols int) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create dir %s: %w", ErrIO, dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrIO, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriterSize(tmp, 1<<16)
	if isNPY(path) {
		err = writeNPYHeader(w, len(m), cols)
	} else {
		err = writeNativeHeader(w, len(m), cols)
	}
	if err != nil {
		return fmt.Errorf("%w: write header: %w", ErrIO, err)
	}
	buf := make([]byte, cols*4)
	for i, row := range m {
		for j, v := range row {
			binary.LittleEndian.PutUint32(buf[j*4:], math.Float32bits(v))
		}
		if _, err = w.Write(buf); err != nil {
			return fmt.Errorf("%w: write row %d: %w", ErrIO, i, err)
		}
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrIO, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", ErrIO, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename: %w", ErrIO, err)
	}
	return nil
}

func writeNativeHeader(w io.Writer, rows, cols int) error {
	var hdr [nativeHeaderSize]byte
	copy(hdr[:4], nativeMagic)
	binary.LittleEndian.PutUint16(hdr[4:6], nativeVersion)
	binary.LittleEndian.PutUint16(hdr[6:8], dtypeFloat32)
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(rows))
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(cols))
	_, err := w.Write(hdr[:])
	return err
}
