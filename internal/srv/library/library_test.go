package library

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jypelle/gifmatrix/internal/srv/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBounds = image.Rect(0, 0, 32, 16)

var testPalette = color.Palette{
	color.RGBA{0, 0, 0, 0},
	color.RGBA{255, 0, 0, 255},
	color.RGBA{0, 255, 0, 255},
}

// encodeGIF builds an 8x8 animation; every frame fills a 4x4 square of a new color.
func encodeGIF(t *testing.T, frames int, loopCount int, delay int, disposal byte) []byte {
	t.Helper()
	g := &gif.GIF{LoopCount: loopCount, Config: image.Config{Width: 8, Height: 8, ColorModel: testPalette}}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 8, 8), testPalette)
		square := image.Rect(0, 0, 4, 4).Add(image.Pt(4*(i%2), 0))
		for y := square.Min.Y; y < square.Max.Y; y++ {
			for x := square.Min.X; x < square.Max.X; x++ {
				frame.SetColorIndex(x, y, uint8(1+i%2))
			}
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, delay)
		g.Disposal = append(g.Disposal, disposal)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	l := NewLibrary(t.TempDir(), testBounds, 1<<20)
	require.NoError(t, l.Start())
	t.Cleanup(l.Stop)
	return l
}

func writeFile(t *testing.T, l *Library, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(l.Folder(), name), data, 0660))
}

func TestDecodeGIF(t *testing.T) {
	seq, err := DecodeGIF(bytes.NewReader(encodeGIF(t, 3, 0, 5, gif.DisposalNone)), testBounds)
	require.NoError(t, err)

	require.Equal(t, 3, seq.FrameCount())
	assert.Equal(t, 0, seq.LoopCount)
	for _, frame := range seq.Frames {
		assert.Equal(t, testBounds, frame.Image.Bounds())
		assert.Equal(t, 50*time.Millisecond, frame.Duration)
	}

	// Left half is red, scaled up 4x horizontally and 2x vertically.
	r, g, b, a := seq.Frames[0].Image.At(2, 2).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})

	// Untouched area is composited over black.
	r, g, b, a = seq.Frames[0].Image.At(30, 14).RGBA()
	assert.Equal(t, []uint32{0, 0, 0, 0xffff}, []uint32{r, g, b, a})
}

func TestDecodeGIF_Disposal(t *testing.T) {
	kept, err := DecodeGIF(bytes.NewReader(encodeGIF(t, 2, 0, 0, gif.DisposalNone)), testBounds)
	require.NoError(t, err)
	// Without disposal the red square of frame 0 is still visible on frame 1.
	r, _, _, _ := kept.Frames[1].Image.At(2, 2).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	cleared, err := DecodeGIF(bytes.NewReader(encodeGIF(t, 2, 0, 0, gif.DisposalBackground)), testBounds)
	require.NoError(t, err)
	r, _, _, _ = cleared.Frames[1].Image.At(2, 2).RGBA()
	assert.Equal(t, uint32(0), r)
}

func TestDecodeGIF_LoopCount(t *testing.T) {
	tests := []struct {
		gifLoopCount int
		expected     int
	}{
		{gifLoopCount: -1, expected: 1},
		{gifLoopCount: 0, expected: 0},
		{gifLoopCount: 2, expected: 3},
	}
	for _, tt := range tests {
		// The loop extension is only written for animated GIFs.
		seq, err := DecodeGIF(bytes.NewReader(encodeGIF(t, 2, tt.gifLoopCount, 0, gif.DisposalNone)), testBounds)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, seq.LoopCount, "gif loop count %d", tt.gifLoopCount)
	}
}

func TestDecodeGIF_Corrupt(t *testing.T) {
	_, err := DecodeGIF(strings.NewReader("GIF89a not really"), testBounds)
	assert.ErrorIs(t, err, engine.ErrDecode)
}

func TestLibrary_ListFiltersAndOrders(t *testing.T) {
	l := newTestLibrary(t)
	data := encodeGIF(t, 1, 0, 0, gif.DisposalNone)
	writeFile(t, l, "b.gif", data)
	writeFile(t, l, "A.GIF", data)
	writeFile(t, l, "notes.txt", []byte("hello"))
	writeFile(t, l, ".hidden.gif", data)
	require.NoError(t, os.Mkdir(filepath.Join(l.Folder(), "dir.gif"), 0770))

	names, err := l.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"A.GIF", "b.gif"}, names)
}

func TestLibrary_ListSeesNewFiles(t *testing.T) {
	l := newTestLibrary(t)
	names, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	writeFile(t, l, "new.gif", encodeGIF(t, 1, 0, 0, gif.DisposalNone))
	assert.Eventually(t, func() bool {
		names, err := l.List()
		return err == nil && len(names) == 1 && names[0] == "new.gif"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLibrary_Decode(t *testing.T) {
	l := newTestLibrary(t)
	writeFile(t, l, "ok.gif", encodeGIF(t, 4, 0, 0, gif.DisposalNone))
	writeFile(t, l, "broken.gif", []byte("nope"))

	seq, err := l.Decode("ok.gif")
	require.NoError(t, err)
	assert.Equal(t, 4, seq.FrameCount())

	_, err = l.Decode("broken.gif")
	assert.ErrorIs(t, err, engine.ErrDecode)

	_, err = l.Decode("missing.gif")
	assert.ErrorIs(t, err, engine.ErrDecode)
}

func TestLibrary_OpenRejectsTraversal(t *testing.T) {
	l := newTestLibrary(t)
	_, err := l.Open("../secret.gif")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.Open("missing.gif")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLibrary_Save(t *testing.T) {
	l := newTestLibrary(t)
	data := encodeGIF(t, 2, 0, 0, gif.DisposalNone)

	name, err := l.Save("../My Party.gif", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "My_Party.gif", name)

	stored, err := os.ReadFile(filepath.Join(l.Folder(), name))
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	names, err := l.List()
	require.NoError(t, err)
	assert.Contains(t, names, name)

	file, err := l.Open(name)
	require.NoError(t, err)
	defer file.Close()
	read, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, data, read)
}

func TestLibrary_SaveRejects(t *testing.T) {
	l := NewLibrary(t.TempDir(), testBounds, 64)
	require.NoError(t, l.Start())
	defer l.Stop()

	_, err := l.Save("image.png", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, ErrInvalidUpload)

	_, err = l.Save("", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, ErrInvalidUpload)

	_, err = l.Save("fake.gif", bytes.NewReader([]byte("not a gif")))
	assert.ErrorIs(t, err, ErrInvalidUpload)

	_, err = l.Save("big.gif", bytes.NewReader(make([]byte, 65)))
	assert.ErrorIs(t, err, ErrUploadTooLarge)

	names, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"cat.gif":           "cat.gif",
		"C:\\pics\\dog.GIF": "dog.GIF",
		"../../etc/x.gif":   "x.gif",
		"wéird náme!.gif":   "wird_nme.gif",
		"..hidden.gif":      "hidden.gif",
	}
	for input, expected := range tests {
		name, err := SanitizeFilename(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, name, input)
	}

	for _, input := range []string{"", "..", "noext", "x.png", ".gif"} {
		_, err := SanitizeFilename(input)
		assert.ErrorIs(t, err, ErrInvalidUpload, input)
	}
}
