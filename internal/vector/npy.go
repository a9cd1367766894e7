package vector

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const npyMagic = "\x93NUMPY"

// readNPY decodes a 2-D C-order little-endian float32 or float64 NumPy array.
// float64 input is narrowed to float32.
func readNPY(r io.Reader, size int64) ([][]float32, int, error) {
	var pre [8]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: short npy preamble", ErrFormat)
	}
	if string(pre[:6]) != npyMagic {
		return nil, 0, fmt.Errorf("%w: not an npy file", ErrFormat)
	}
	var hlen int
	consumed := int64(8)
	switch pre[6] {
	case 1:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, 0, fmt.Errorf("%w: short npy header", ErrFormat)
		}
		hlen = int(binary.LittleEndian.Uint16(b[:]))
		consumed += 2
	case 2, 3:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, 0, fmt.Errorf("%w: short npy header", ErrFormat)
		}
		hlen = int(binary.LittleEndian.Uint32(b[:]))
		consumed += 4
	default:
		return nil, 0, fmt.Errorf("%w: unsupported npy version %d.%d", ErrFormat, pre[6], pre[7])
	}
	if int64(hlen) > size-consumed {
		return nil, 0, fmt.Errorf("%w: npy header length %d exceeds file", ErrFormat, hlen)
	}
	header := make([]byte, hlen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, 0, fmt.Errorf("%w: short npy header", ErrFormat)
	}
	consumed += int64(hlen)

	descr, fortran, shape, err := parseNPYHeader(string(header))
	if err != nil {
		return nil, 0, err
	}
	if fortran {
		return nil, 0, fmt.Errorf("%w: fortran-ordered arrays are not supported", ErrFormat)
	}
	if len(shape) != 2 {
		return nil, 0, fmt.Errorf("%w: expected a 2-D array, got shape %v", ErrFormat, shape)
	}
	rows, cols := shape[0], shape[1]

	var elem uint64
	switch descr {
	case "<f4":
		elem = 4
	case "<f8":
		elem = 8
	default:
		return nil, 0, fmt.Errorf("%w: unsupported dtype %q", ErrFormat, descr)
	}
	if err := checkShape(rows, cols, elem, size-consumed); err != nil {
		return nil, 0, err
	}
	var m [][]float32
	if elem == 4 {
		m, err = readFloat32Rows(r, int(rows), int(cols))
	} else {
		m, err = readFloat64Rows(r, int(rows), int(cols))
	}
	if err != nil {
		return nil, 0, err
	}
	return m, int(cols), nil
}

// parseNPYHeader extracts the fields of the Python dict literal that
// describes an npy array, e.g. {'descr': '<f4', 'fortran_order': False, 'shape': (6, 2), }.
func parseNPYHeader(h string) (descr string, fortran bool, shape []uint64, err error) {
	h = strings.ReplaceAll(strings.TrimSpace(h), `"`, `'`)
	if !strings.HasPrefix(h, "{") || !strings.HasSuffix(h, "}") {
		return "", false, nil, fmt.Errorf("%w: npy header is not a dict", ErrFormat)
	}

	v, ok := npyField(h, "descr")
	if !ok || len(v) < 2 || v[0] != '\'' {
		return "", false, nil, fmt.Errorf("%w: npy header missing descr", ErrFormat)
	}
	end := strings.IndexByte(v[1:], '\'')
	if end < 0 {
		return "", false, nil, fmt.Errorf("%w: npy header has unterminated descr", ErrFormat)
	}
	descr = v[1 : end+1]

	v, ok = npyField(h, "fortran_order")
	switch {
	case ok && strings.HasPrefix(v, "True"):
		fortran = true
	case ok && strings.HasPrefix(v, "False"):
	default:
		return "", false, nil, fmt.Errorf("%w: npy header missing fortran_order", ErrFormat)
	}

	v, ok = npyField(h, "shape")
	if !ok || !strings.HasPrefix(v, "(") {
		return "", false, nil, fmt.Errorf("%w: npy header missing shape", ErrFormat)
	}
	end = strings.IndexByte(v, ')')
	if end < 0 {
		return "", false, nil, fmt.Errorf("%w: npy header has unterminated shape", ErrFormat)
	}
	for _, part := range strings.Split(v[1:end], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, perr := strconv.ParseUint(strings.TrimSuffix(part, "L"), 10, 64)
		if perr != nil {
			return "", false, nil, fmt.Errorf("%w: bad shape entry %q", ErrFormat, part)
		}
		shape = append(shape, n)
	}
	return descr, fortran, shape, nil
}

// npyField returns the text following 'key': in the header.
func npyField(h, key string) (string, bool) {
	i := strings.Index(h, "'"+key+"'")
	if i < 0 {
		return "", false
	}
	rest := strings.TrimSpace(h[i+len(key)+2:])
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	return strings.TrimSpace(rest[1:]), true
}

// writeNPYHeader writes a version 1.0 header for a (rows, cols) float32
// array, padded so the payload starts on a 64-byte boundary.
func writeNPYHeader(w io.Writer, rows, cols int) error {
	dict := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", rows, cols)
	total := len(npyMagic) + 2 + 2 + len(dict) + 1
	if pad := (64 - total%64) % 64; pad > 0 {
		dict += strings.Repeat(" ", pad)
	}
	dict += "\n"
	pre := make([]byte, 10)
	copy(pre, npyMagic)
	pre[6], pre[7] = 1, 0
	binary.LittleEndian.PutUint16(pre[8:], uint16(len(dict)))
	if _, err := w.Write(pre); err != nil {
		return err
	}
	_, err := io.WriteString(w, dict)
	return err
}
