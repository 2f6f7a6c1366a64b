package detection

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-focus/pkg/debug"
)

// YOLODetector runs a YOLOv8 ONNX export and reports labelled COCO objects.
// The tracker only acts on phones; other labels pass through for logging.
type YOLODetector struct {
	net    gocv.Net
	config YOLOConfig
	mu     sync.Mutex
	closed bool
}

// YOLOConfig holds YOLO detector configuration
type YOLOConfig struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int
}

// DefaultYOLOConfig returns defaults for yolov8n at 640x640
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// NewYOLO loads the model at cfg.ModelPath
func NewYOLO(cfg YOLOConfig) (*YOLODetector, error) {
	if _, err := os.Stat(cfg.ModelPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("detection: load yolo model %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &YOLODetector{net: net, config: cfg}, nil
}

// DetectObjects runs one forward pass over the JPEG frame
func (d *YOLODetector) DetectObjects(jpeg []byte) ([]ObjectDetection, error) {
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

	input := image.Pt(d.config.InputWidth, d.config.InputHeight)
	blob := gocv.BlobFromImage(img, 1.0/255.0, input, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read yolo output: %w", err)
	}

	// [1, 4+classes, anchors], attribute-major
	frame := image.Pt(img.Cols(), img.Rows())
	cands := decodeYOLOv8(data, output.Rows(), output.Cols(), d.config.ConfidenceThresh,
		float32(frame.X)/float32(input.X), float32(frame.Y)/float32(input.Y))
	dets := d.suppress(cands, frame)

	if len(dets) > 0 {
		debug.TrackLog("yolo objects", "count", len(dets), "phones", len(Phones(dets, 0)))
	}
	return dets, nil
}

// suppress applies non-maximum suppression and normalizes the kept boxes
func (d *YOLODetector) suppress(cands []yoloCandidate, frame image.Point) []ObjectDetection {
	if len(cands) == 0 {
		return nil
	}

	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		boxes[i] = c.box
		scores[i] = c.score
	}

	var dets []ObjectDetection
	for _, idx := range gocv.NMSBoxes(boxes, scores, d.config.ConfidenceThresh, d.config.NMSThresh) {
		c := cands[idx]
		dets = append(dets, ObjectDetection{
			Detection: Detection{
				X:          float64(c.box.Min.X) / float64(frame.X),
				Y:          float64(c.box.Min.Y) / float64(frame.Y),
				W:          float64(c.box.Dx()) / float64(frame.X),
				H:          float64(c.box.Dy()) / float64(frame.Y),
				Confidence: float64(c.score),
			},
			ClassID:   c.class,
			ClassName: cocoLabel(c.class),
		})
	}
	return dets
}

// Close releases the network. Safe to call more than once.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.net.Close()
	return nil
}

type yoloCandidate struct {
	box   image.Rectangle // frame pixels
	score float32
	class int
}

// decodeYOLOv8 reads an attribute-major YOLOv8 tensor: attrs rows of
// (cx, cy, w, h, class scores...) across anchors columns. Boxes are scaled
// from model input space to the frame by sx, sy. Anchors whose best class
// scores below thresh are skipped.
func decodeYOLOv8(data []float32, attrs, anchors int, thresh, sx, sy float32) []yoloCandidate {
	if attrs <= 4 || anchors <= 0 || len(data) < attrs*anchors {
		return nil
	}
	at := func(attr, anchor int) float32 { return data[attr*anchors+anchor] }

	var out []yoloCandidate
	for i := 0; i < anchors; i++ {
		best, class := float32(0), -1
		for c := 4; c < attrs; c++ {
			if s := at(c, i); s > best {
				best, class = s, c-4
			}
		}
		if class < 0 || best < thresh {
			continue
		}

		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		out = append(out, yoloCandidate{
			box: image.Rect(
				int((cx-w/2)*sx), int((cy-h/2)*sy),
				int((cx+w/2)*sx), int((cy+h/2)*sy),
			),
			score: best,
			class: class,
		})
	}
	return out
}

func cocoLabel(class int) string {
	if class < 0 || class >= len(cocoLabels) {
		return ""
	}
	return cocoLabels[class]
}

// cocoLabels are the 80 COCO class names in model output order
var cocoLabels = [80]string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat",
	"dog", "horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball",
	"kite", "baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket",
	"bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}
