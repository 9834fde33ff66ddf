// Package mnist reads the MNIST handwritten digit set in its IDX form and
// in the CSV layout (label first, then pixels).
package mnist

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"dnn/tensor"

	"github.com/pkg/errors"
)

// IDX magic numbers.
const (
	ImageMagic = 2051
	LabelMagic = 2049
)

// Standard file names under a data root.
const (
	TrainImages = "train-images-idx3-ubyte"
	TrainLabels = "train-labels-idx1-ubyte"
	TestImages  = "t10k-images-idx3-ubyte"
	TestLabels  = "t10k-labels-idx1-ubyte"
)

// ErrFormat marks a file that is not a well formed IDX or CSV set.
var ErrFormat = errors.New("mnist: malformed data")

// MaxPixels caps the pixel bytes a header may announce. The full MNIST
// training set is about 47 MB.
const MaxPixels = 1 << 30

type imageHeader struct {
	Magic uint32
	Count uint32
	Rows  uint32
	Cols  uint32
}

type labelHeader struct {
	Magic uint32
	Count uint32
}

// Sample is one image with its label.
type Sample struct {
	Index  int
	Label  int
	Width  int
	Height int
	Pixels []byte
}

// Input returns the normalised pixels in row-major order, ready for an
// input layer of Width x Height nodes.
func (s Sample) Input() []float64 {
	v := make([]float64, len(s.Pixels))
	for i, p := range s.Pixels {
		v[i] = tensor.Normalize(p)
	}
	return v
}

// Image returns the sample as a Height x Width tensor.
func (s Sample) Image() (*tensor.Tensor, error) {
	return tensor.FromPixels(s.Pixels, s.Width, s.Height)
}

// Set is an in-memory image set. Next walks it in order; At gives random
// access. A Set is not safe for concurrent use.
type Set struct {
	Width, Height int

	pixels []byte
	labels []byte
	count  int
	pos    int
}

// Len is the number of samples.
func (s *Set) Len() int { return s.count }

// At returns sample i.
func (s *Set) At(i int) (Sample, error) {
	if i < 0 || i >= s.count {
		return Sample{}, errors.Errorf("mnist: sample %d out of range [0,%d)", i, s.count)
	}
	size := s.Width * s.Height
	return Sample{
		Index:  i,
		Label:  int(s.labels[i]),
		Width:  s.Width,
		Height: s.Height,
		Pixels: s.pixels[i*size : (i+1)*size : (i+1)*size],
	}, nil
}

// Next returns the sample after the last one returned, or io.EOF.
func (s *Set) Next() (Sample, error) {
	if s.pos >= s.count {
		return Sample{}, io.EOF
	}
	smp, err := s.At(s.pos)
	if err != nil {
		return Sample{}, err
	}
	s.pos++
	return smp, nil
}

// Reset rewinds Next to the first sample.
func (s *Set) Reset() { s.pos = 0 }

// Limit truncates the set to at most n samples. n <= 0 keeps everything.
func (s *Set) Limit(n int) {
	if n > 0 && n < s.count {
		s.count = n
	}
	if s.pos > s.count {
		s.pos = s.count
	}
}

// Read parses an IDX3 image stream and the matching IDX1 label stream.
func Read(images, labels io.Reader) (*Set, error) {
	var ih imageHeader
	if err := binary.Read(images, binary.BigEndian, &ih); err != nil {
		return nil, errors.Wrap(err, "mnist: reading image header")
	}
	if ih.Magic != ImageMagic {
		return nil, errors.Wrapf(ErrFormat, "image magic %d, want %d", ih.Magic, ImageMagic)
	}
	var lh labelHeader
	if err := binary.Read(labels, binary.BigEndian, &lh); err != nil {
		return nil, errors.Wrap(err, "mnist: reading label header")
	}
	if lh.Magic != LabelMagic {
		return nil, errors.Wrapf(ErrFormat, "label magic %d, want %d", lh.Magic, LabelMagic)
	}
	if ih.Count != lh.Count {
		return nil, errors.Wrapf(ErrFormat, "%d images but %d labels", ih.Count, lh.Count)
	}
	if ih.Rows == 0 || ih.Cols == 0 {
		return nil, errors.Wrapf(ErrFormat, "image size %dx%d", ih.Cols, ih.Rows)
	}
	if total := uint64(ih.Count) * uint64(ih.Rows) * uint64(ih.Cols); total > MaxPixels {
		return nil, errors.Wrapf(ErrFormat, "header announces %d pixel bytes, limit is %d", total, MaxPixels)
	}

	s := &Set{
		Width:  int(ih.Cols),
		Height: int(ih.Rows),
		count:  int(ih.Count),
		pixels: make([]byte, int(ih.Count)*int(ih.Rows)*int(ih.Cols)),
		labels: make([]byte, int(lh.Count)),
	}
	if _, err := io.ReadFull(images, s.pixels); err != nil {
		return nil, errors.Wrapf(ErrFormat, "image data: %v", err)
	}
	if _, err := io.ReadFull(labels, s.labels); err != nil {
		return nil, errors.Wrapf(ErrFormat, "label data: %v", err)
	}
	return s, nil
}

// Open reads an image file and its label file.
func Open(imagePath, labelPath string) (*Set, error) {
	imgFile, err := os.Open(imagePath)
	if err != nil {
		return nil, errors.Wrap(err, "mnist: could not open image file")
	}
	defer imgFile.Close()
	lblFile, err := os.Open(labelPath)
	if err != nil {
		return nil, errors.Wrap(err, "mnist: could not open label file")
	}
	defer lblFile.Close()

	s, err := Read(bufio.NewReader(imgFile), bufio.NewReader(lblFile))
	if err != nil {
		return nil, errors.Wrapf(err, "%s", imagePath)
	}
	return s, nil
}

// OpenTraining opens the 60k training set under root.
func OpenTraining(root string) (*Set, error) {
	return Open(filepath.Join(root, TrainImages), filepath.Join(root, TrainLabels))
}

// OpenTesting opens the 10k test set under root.
func OpenTesting(root string) (*Set, error) {
	return Open(filepath.Join(root, TestImages), filepath.Join(root, TestLabels))
}
