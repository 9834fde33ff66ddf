package mnist

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// ReadCSV parses one sample per record: the label, then width*height grey
// values in 0..255.
func ReadCSV(r io.Reader, width, height int) (*Set, error) {
	if width < 1 || height < 1 {
		return nil, errors.Errorf("mnist: image size %dx%d", width, height)
	}
	size := width * height
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = size + 1
	cr.ReuseRecord = true

	s := &Set{Width: width, Height: height}
	for line := 1; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrFormat, "line %d: %v", line, err)
		}
		label, err := strconv.Atoi(record[0])
		if err != nil || label < 0 || label > 255 {
			return nil, errors.Wrapf(ErrFormat, "line %d: label %q", line, record[0])
		}
		s.labels = append(s.labels, byte(label))
		for i, field := range record[1:] {
			p, err := strconv.ParseUint(field, 10, 8)
			if err != nil {
				return nil, errors.Wrapf(ErrFormat, "line %d: pixel %d: %q", line, i, field)
			}
			s.pixels = append(s.pixels, byte(p))
		}
		s.count++
	}
	return s, nil
}

// OpenCSV reads a CSV set from path.
func OpenCSV(path string, width, height int) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "mnist: could not open csv file")
	}
	defer f.Close()
	s, err := ReadCSV(f, width, height)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return s, nil
}
