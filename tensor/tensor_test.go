package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShape(t *testing.T) {
	t1 := New(2, 3)
	assert.Len(t, t1.Data, 6)
	assert.Equal(t, []int{2, 3}, t1.Shape)
}

func TestFromPixels(t *testing.T) {
	img, err := FromPixels([]byte{0, 127, 255, 63, 191, 127}, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, img.Shape)
	assert.InDelta(t, -127.0/128, img.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, img.At(0, 1))
	assert.InDelta(t, 1.0, img.At(0, 2), 1e-12)
	assert.InDelta(t, -0.5, img.At(1, 0), 1e-12)
	assert.InDelta(t, 0.5, img.At(1, 1), 1e-12)
	assert.Equal(t, img.At(1, 2), img.Vector()[5])

	_, err = FromPixels([]byte{1, 2, 3}, 2, 2)
	assert.Error(t, err)
}

func TestSetAt(t *testing.T) {
	x := New(2, 2, 3)
	x.Set(7, 1, 0, 2)
	assert.Equal(t, 7.0, x.At(1, 0, 2))
	assert.Equal(t, 7.0, x.Data[1*6+0*3+2])
	assert.Panics(t, func() { x.At(2, 0, 0) })
	assert.Panics(t, func() { x.At(0, 0) })
}

func TestReshape(t *testing.T) {
	img := New(28, 28)
	img.Set(1, 1, 2)
	flat, err := img.Reshape(784)
	require.NoError(t, err)
	assert.Equal(t, 1.0, flat.At(30))
	assert.Equal(t, 784, flat.Len())

	_, err = img.Reshape(10, 10)
	assert.Error(t, err)
}
