package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-focus/pkg/debug"
	"gocv.io/x/gocv"
)

// YuNetDetector uses OpenCV's FaceDetectorYN for face and landmark detection
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   Config
	mu       sync.Mutex // Protects inference
	closed   bool
}

// NewYuNet creates a new YuNet face detector using GoCV's built-in FaceDetectorYN
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",                                        // No config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight), // Initial input size
		float32(cfg.ConfidenceThresh),             // Score threshold
		0.3,                                       // NMS threshold
		5000,                                      // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
	}, nil
}

// Detect finds faces in the JPEG image
func (d *YuNetDetector) Detect(jpeg []byte) ([]Face, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, ErrEmptyImage
	}

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())

	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()

	d.detector.Detect(img, &faces)

	var out []Face
	for r := 0; r < faces.Rows(); r++ {
		// YuNet output format (15 columns):
		// 0-3: x, y, w, h (bounding box in pixels)
		// 4-13: right eye, left eye, nose tip, right mouth, left mouth (x,y pairs)
		// 14: face score
		var row [15]float64
		for c := 0; c < 15; c++ {
			row[c] = float64(faces.GetFloatAt(r, c))
		}
		out = append(out, faceFromRow(row, imgW, imgH))
	}

	if len(out) > 0 {
		debug.TrackLog("yunet faces", "count", len(out))
	}

	return out, nil
}

// DetectLandmarks returns landmarks for the best face, or nil when no face is visible.
func (d *YuNetDetector) DetectLandmarks(jpeg []byte) (*Landmarks, error) {
	faces, err := d.Detect(jpeg)
	if err != nil {
		return nil, err
	}
	best := SelectBest(faces)
	if best == nil {
		return nil, nil
	}
	lm := best.Landmarks
	return &lm, nil
}

// faceFromRow converts one YuNet output row to a normalized Face.
// YuNet has no ear or crown points, so they are placed on the box edges:
// crown at the top centre, chin at the bottom centre, ears at eye height.
func faceFromRow(row [15]float64, imgW, imgH float64) Face {
	x, y, w, h := row[0], row[1], row[2], row[3]
	eyeY := (row[5] + row[7]) / 2

	nx := func(v float64) float64 { return v / imgW }
	ny := func(v float64) float64 { return v / imgH }

	return Face{
		Detection: Detection{
			X:          nx(x),
			Y:          ny(y),
			W:          nx(w),
			H:          ny(h),
			Confidence: row[14],
		},
		Landmarks: Landmarks{
			Nose:     Point{X: nx(row[8]), Y: ny(row[9])},
			Chin:     Point{X: nx(x + w/2), Y: ny(y + h)},
			TopHead:  Point{X: nx(x + w/2), Y: ny(y)},
			LeftEar:  Point{X: nx(x), Y: ny(eyeY)},
			RightEar: Point{X: nx(x + w), Y: ny(eyeY)},
		},
	}
}

// Close releases the detector resources. Safe to call more than once.
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.detector.Close()
	return nil
}
