// Package webcam captures frames from a camera, video file or stream URL
// through OpenCV.
package webcam

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/wbrown/mosaic/capture"
	"gocv.io/x/gocv"
)

var errEmptyFrame = errors.New("webcam: empty frame")

// Webcam is a capture.Source backed by gocv.VideoCapture.
type Webcam struct {
	mu      sync.Mutex
	device  string
	live    bool
	capture *gocv.VideoCapture
	bgr     gocv.Mat
	rgba    gocv.Mat
}

// Open opens a capture device. A numeric device selects a camera by index;
// anything else is passed to OpenCV as a file name or stream URL. Failed
// reads from a camera are reported as transient errors, while a file or
// stream that stops producing frames ends with capture.ErrEndOfStream.
func Open(device string) (*Webcam, error) {
	var id interface{} = device
	live := false
	if n, err := strconv.Atoi(device); err == nil {
		id = n
		live = true
	}
	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("open camera %q: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open camera %q: device not opened", device)
	}
	return &Webcam{
		device:  device,
		live:    live,
		capture: vc,
		bgr:     gocv.NewMat(),
		rgba:    gocv.NewMat(),
	}, nil
}

// SetSize requests a capture resolution. Cameras pick the closest mode
// they support.
func (w *Webcam) SetSize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	w.capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
}

// Read grabs the next frame and converts it from OpenCV's BGR layout to
// RGBA.
func (w *Webcam) Read(ctx context.Context) (capture.Frame, error) {
	if err := ctx.Err(); err != nil {
		return capture.Frame{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if ok := w.capture.Read(&w.bgr); !ok {
		if w.live {
			return capture.Frame{}, fmt.Errorf("read %s: %w", w.device, errEmptyFrame)
		}
		return capture.Frame{}, capture.ErrEndOfStream
	}
	if w.bgr.Empty() {
		return capture.Frame{}, fmt.Errorf("read %s: %w", w.device, errEmptyFrame)
	}

	gocv.CvtColor(w.bgr, &w.rgba, gocv.ColorBGRToRGBA)
	return capture.Frame{
		Pix:    w.rgba.ToBytes(),
		Width:  w.rgba.Cols(),
		Height: w.rgba.Rows(),
	}, nil
}

// Close releases the device and its buffers.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.bgr.Close(), w.rgba.Close(), w.capture.Close())
}
