package classifier

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrNoFrame is returned when a frame carries no image data.
var ErrNoFrame = errors.New("no image data in frame")

// Tensor is a single-image batch in NHWC layout.
type Tensor struct {
	Shape [4]int
	Data  []float32
}

// Instances returns the tensor as nested [batch][row][col][channel] slices
// for JSON serving APIs.
func (t *Tensor) Instances() [][][][]float32 {
	h, w, c := t.Shape[1], t.Shape[2], t.Shape[3]
	rows := make([][][]float32, h)
	for y := range h {
		cols := make([][]float32, w)
		for x := range w {
			off := (y*w + x) * c
			cols[x] = t.Data[off : off+c : off+c]
		}
		rows[y] = cols
	}
	return [][][][]float32{rows}
}

// FrameBytes returns the raw image bytes of a frame, decoding a
// data:image/...;base64, URL if present.
func FrameBytes(frame []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 {
		return nil, ErrNoFrame
	}
	if !bytes.HasPrefix(trimmed, []byte("data:")) {
		return trimmed, nil
	}

	header, payload, ok := strings.Cut(string(trimmed), ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URL %q", header)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoFrame
	}
	return data, nil
}

// Preprocess decodes a frame and converts it into the model input tensor:
// nearest-neighbour resize to the input size, channel values divided by scale.
func Preprocess(frame []byte, in InputSpec) (*Tensor, error) {
	data, err := FrameBytes(frame)
	if err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, in.Width, in.Height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	t := &Tensor{
		Shape: [4]int{1, in.Height, in.Width, in.Channels},
		Data:  make([]float32, 0, in.Height*in.Width*in.Channels),
	}
	scale := float32(in.Scale)
	for y := range in.Height {
		for x := range in.Width {
			off := dst.PixOffset(x, y)
			r, g, b := float32(dst.Pix[off]), float32(dst.Pix[off+1]), float32(dst.Pix[off+2])
			if in.Channels == 1 {
				// ITU-R 601 luma
				t.Data = append(t.Data, (0.299*r+0.587*g+0.114*b)/scale)
				continue
			}
			t.Data = append(t.Data, r/scale, g/scale, b/scale)
		}
	}
	return t, nil
}
