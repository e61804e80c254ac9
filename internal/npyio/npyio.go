// Package npyio writes and reads little-endian int64 arrays in NumPy's .npy
// format so replay output can be loaded with numpy.load on the analysis side.
package npyio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var order = binary.LittleEndian

// The following is adapted from: github.com/sbinet/npyio
var magic = [6]byte{'\x93', 'N', 'U', 'M', 'P', 'Y'}

const (
	majorVersion = byte(2)
	minorVersion = byte(0)
)

// WriteInt64 writes data as a C-ordered '<i8' array of the given shape.
func WriteInt64(w io.Writer, shape []int, data []int64) error {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(data) {
		return fmt.Errorf("shape %v holds %d elements, got %d", shape, n, len(data))
	}
	if err := writeHeader(w, shape); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	var buf [8]byte
	for _, x := range data {
		order.PutUint64(buf[:], uint64(x))
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile is WriteInt64 to a new file at path.
func WriteFile(path string, shape []int, data []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := WriteInt64(f, shape, data); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return f.Close()
}

func writeHeader(w io.Writer, shape []int) error {
	if err := binary.Write(w, order, magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, order, majorVersion); err != nil {
		return err
	}
	if err := binary.Write(w, order, minorVersion); err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	fmt.Fprintf(buf,
		"{'descr': '<i8', 'fortran_order': False, 'shape': %s, }",
		shapeString(shape))

	// magic + version + uint32 header length
	var hdrSize = len(magic) + 2 + 4
	padding := (16 - (hdrSize+buf.Len()+1)%16) % 16
	if _, err := buf.Write(bytes.Repeat([]byte{'\x20'}, padding)); err != nil {
		return err
	}
	if _, err := buf.Write([]byte{'\n'}); err != nil {
		return err
	}

	buflen := int64(buf.Len())
	if err := binary.Write(w, order, uint32(buflen)); err != nil {
		return err
	}

	if n, err := io.Copy(w, buf); err != nil {
		return err
	} else if n < buflen {
		return io.ErrShortWrite
	}

	return nil
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var shapeRE = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)

// ReadInt64 reads an array written by WriteInt64.
func ReadInt64(r io.Reader) ([]int, []int64, error) {
	var m [6]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, nil, err
	}
	if m != magic {
		return nil, nil, fmt.Errorf("not a npy file")
	}
	var version [2]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return nil, nil, err
	}
	var hlen uint32
	if version[0] == 1 {
		var h16 uint16
		if err := binary.Read(r, order, &h16); err != nil {
			return nil, nil, err
		}
		hlen = uint32(h16)
	} else if err := binary.Read(r, order, &hlen); err != nil {
		return nil, nil, err
	}
	hdr := make([]byte, hlen)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, nil, err
	}
	if !bytes.Contains(hdr, []byte("'<i8'")) {
		return nil, nil, fmt.Errorf("unsupported dtype in header %q", hdr)
	}
	match := shapeRE.FindSubmatch(hdr)
	if match == nil {
		return nil, nil, fmt.Errorf("no shape in header %q", hdr)
	}
	var shape []int
	n := 1
	for _, s := range strings.Split(string(match[1]), ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		d, err := strconv.Atoi(s)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "shape %q", match[1])
		}
		shape = append(shape, d)
		n *= d
	}

	data := make([]int64, n)
	if err := binary.Read(bufio.NewReader(r), order, data); err != nil {
		return nil, nil, err
	}
	return shape, data, nil
}
