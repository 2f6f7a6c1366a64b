package detection

import "sync"

// Mock implements LandmarkDetector and ObjectDetector for testing.
// Results are consumed in order; once exhausted the last entry repeats.
type Mock struct {
	// LandmarksFunc overrides the scripted landmark results when set.
	LandmarksFunc func(jpeg []byte) (*Landmarks, error)

	// ObjectsFunc overrides the scripted object results when set.
	ObjectsFunc func(jpeg []byte) ([]ObjectDetection, error)

	mu           sync.Mutex
	landmarks    []*Landmarks
	objects      [][]ObjectDetection
	landmarkIdx  int
	objectIdx    int
	LandmarkCall int
	ObjectCall   int
	Closed       int
}

// NewMock creates a mock that reports the given landmark results in sequence.
func NewMock(landmarks ...*Landmarks) *Mock {
	return &Mock{landmarks: landmarks}
}

// QueueObjects appends object detection results returned by DetectObjects.
func (m *Mock) QueueObjects(results ...[]ObjectDetection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = append(m.objects, results...)
}

// DetectLandmarks implements LandmarkDetector.
func (m *Mock) DetectLandmarks(jpeg []byte) (*Landmarks, error) {
	m.mu.Lock()
	m.LandmarkCall++
	fn := m.LandmarksFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(jpeg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.landmarks) == 0 {
		return nil, nil
	}
	i := m.landmarkIdx
	if i >= len(m.landmarks) {
		i = len(m.landmarks) - 1
	} else {
		m.landmarkIdx++
	}
	return m.landmarks[i], nil
}

// DetectObjects implements ObjectDetector.
func (m *Mock) DetectObjects(jpeg []byte) ([]ObjectDetection, error) {
	m.mu.Lock()
	m.ObjectCall++
	fn := m.ObjectsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(jpeg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.objects) == 0 {
		return nil, nil
	}
	i := m.objectIdx
	if i >= len(m.objects) {
		i = len(m.objects) - 1
	} else {
		m.objectIdx++
	}
	return m.objects[i], nil
}

// Close implements both detector interfaces.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed++
	return nil
}

// Phone returns a phone detection with the given confidence.
func Phone(confidence float64) ObjectDetection {
	return ObjectDetection{
		Detection: Detection{X: 0.4, Y: 0.6, W: 0.1, H: 0.2, Confidence: confidence},
		ClassID:   67,
		ClassName: "cell phone",
	}
}

// FrontalLandmarks returns landmarks for a face looking straight at the camera.
func FrontalLandmarks() *Landmarks {
	return &Landmarks{
		Nose:     Point{X: 0.5, Y: 0.5},
		Chin:     Point{X: 0.5, Y: 0.8},
		TopHead:  Point{X: 0.5, Y: 0.3},
		LeftEar:  Point{X: 0.35, Y: 0.45},
		RightEar: Point{X: 0.65, Y: 0.45},
	}
}
