// focus-cam - check the webcam and models by printing live attention readings
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/teslashibe/go-focus/internal/config"
	"github.com/teslashibe/go-focus/internal/log"
	"github.com/teslashibe/go-focus/pkg/camera"
	"github.com/teslashibe/go-focus/pkg/daemon"
	"github.com/teslashibe/go-focus/pkg/debug"
	"github.com/teslashibe/go-focus/pkg/tracking"
	"github.com/teslashibe/go-focus/pkg/tracking/detection"
)

func main() {
	device := flag.Int("camera", 0, "Camera device index")
	preset := flag.String("preset", camera.PresetDefault, "Camera preset: "+fmt.Sprint(camera.PresetNames()))
	modelDir := flag.String("models", config.ModelDir(), "Directory containing the ONNX models")
	snapshot := flag.String("snapshot", "", "Write one captured JPEG to this path and exit")
	duration := flag.Duration("duration", 30*time.Second, "How long to run")
	verbose := flag.Bool("debug-tracking", false, "Log every processed frame")
	flag.Parse()

	log.Init("info")
	debug.Tracking = *verbose

	camCfg := camera.GetPreset(*preset)
	if camCfg == nil {
		fatal(fmt.Errorf("unknown preset %q", *preset))
	}
	camCfg.DeviceID = *device

	cam := camera.NewManager(*camCfg)
	if err := cam.Open(); err != nil {
		fatal(err)
	}
	defer cam.Close()

	if *snapshot != "" {
		jpeg, err := cam.CaptureJPEG()
		if err != nil {
			fatal(err)
		}
		if err := os.WriteFile(*snapshot, jpeg, 0644); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %d bytes to %s\n", len(jpeg), *snapshot)
		return
	}

	faceCfg := detection.DefaultConfig()
	faceCfg.ModelPath = filepath.Join(*modelDir, daemon.FaceModelFile)
	faceCfg.InputWidth, faceCfg.InputHeight = camCfg.Width, camCfg.Height
	landmarks, err := detection.NewYuNet(faceCfg)
	if err != nil {
		fatal(err)
	}

	var objects detection.ObjectDetector
	yoloCfg := detection.DefaultYOLOConfig()
	yoloCfg.ModelPath = filepath.Join(*modelDir, daemon.ObjectModelFile)
	if yolo, err := detection.NewYOLO(yoloCfg); err != nil {
		log.Warn("phone detection disabled", "error", err)
	} else {
		objects = yolo
	}

	tracker := tracking.New(tracking.DefaultConfig(), landmarks, objects)
	defer tracker.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelRun := context.WithTimeout(ctx, *duration)
	defer cancelRun()

	tracker.Start(ctx, cam)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			tracker.Stop()
			return
		case <-ticker.C:
			s := tracker.State()
			if s == nil {
				fmt.Println("waiting for first frame...")
				continue
			}
			fmt.Printf("face=%-5v screen=%-5v head_down=%-5v phone=%-5v pitch=%6.1f yaw=%6.1f\n",
				s.IsFacePresent, s.IsLookingAtScreen, s.IsHeadDown, s.IsPhoneDetected, s.Pitch, s.Yaw)
		}
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "focus-cam: %v\n", err)
	os.Exit(1)
}
