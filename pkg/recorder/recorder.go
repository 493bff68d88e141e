// Package recorder captures device screen recordings for the span of a test
// case and stores them next to the test case log.
package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mohanavadivelu2/automation-framework/pkg/driver/appium"
	"github.com/mohanavadivelu2/automation-framework/pkg/executor"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
	"github.com/mohanavadivelu2/automation-framework/pkg/session"
)

// DefaultTimeLimit is the longest single recording the server is asked for.
const DefaultTimeLimit = 30 * time.Minute

// Device is the part of a device session a recorder needs.
type Device interface {
	StartRecording(ctx context.Context, options map[string]interface{}) error
	StopRecording(ctx context.Context) ([]byte, error)
}

// Recorder records one device. Start begins the recording and hands it to a
// background goroutine; Stop signals that goroutine, which fetches the video
// and writes it to Path.
type Recorder struct {
	device    Device
	path      string
	timeLimit time.Duration
	log       *logger.Logger

	started  bool
	stopCh   chan struct{}
	done     chan error
	stopOnce sync.Once
	stopErr  error
}

// New creates a recorder writing to <outputDir>/<testCaseID>_<target>.mp4.
func New(device Device, testCaseID, target, outputDir string, log *logger.Logger) *Recorder {
	name := fmt.Sprintf("%s_%s.mp4", testCaseID, sanitize(target))
	return &Recorder{
		device:    device,
		path:      filepath.Join(outputDir, name),
		timeLimit: DefaultTimeLimit,
		log:       log,
	}
}

// Path returns the output file.
func (r *Recorder) Path() string {
	return r.path
}

// Start begins recording.
func (r *Recorder) Start() error {
	if r.started {
		return fmt.Errorf("recorder already started")
	}
	opts := map[string]interface{}{
		"timeLimit": fmt.Sprintf("%d", int(r.timeLimit.Seconds())),
	}
	if err := r.device.StartRecording(context.Background(), opts); err != nil {
		return fmt.Errorf("start recording: %w", err)
	}

	r.started = true
	r.stopCh = make(chan struct{})
	r.done = make(chan error, 1)
	go r.run()
	r.log.Debug("Recording started -> %s", r.path)
	return nil
}

func (r *Recorder) run() {
	<-r.stopCh
	r.done <- r.save()
}

func (r *Recorder) save() error {
	data, err := r.device.StopRecording(context.Background())
	if err != nil {
		return fmt.Errorf("stop recording: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("stop recording: empty video")
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write video: %w", err)
	}
	r.log.Debug("Recording saved -> %s (%d bytes)", r.path, len(data))
	return nil
}

// Stop ends the recording and waits for the video to be written. Calling
// Stop again returns the first result.
func (r *Recorder) Stop() error {
	r.stopOnce.Do(func() {
		if !r.started {
			r.stopErr = fmt.Errorf("recorder not started")
			return
		}
		close(r.stopCh)
		r.stopErr = <-r.done
	})
	return r.stopErr
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, s)
}

// Factory creates session-backed recorders for the test case runner.
type Factory struct {
	lookup func(target string) (Device, bool)
	log    *logger.Logger
}

var _ executor.RecorderFactory = (*Factory)(nil)

// NewFactory resolves devices through a session manager.
func NewFactory(sessions *session.Manager, log *logger.Logger) *Factory {
	return NewFactoryFunc(func(target string) (Device, bool) {
		c, ok := sessions.Client(target)
		if !ok {
			return nil, false
		}
		return c, true
	}, log)
}

// NewFactoryFunc resolves devices through lookup.
func NewFactoryFunc(lookup func(target string) (Device, bool), log *logger.Logger) *Factory {
	return &Factory{lookup: lookup, log: log}
}

// NewRecorder implements executor.RecorderFactory.
func (f *Factory) NewRecorder(testCaseID, target, outputDir string) (executor.Recorder, error) {
	dev, ok := f.lookup(target)
	if !ok {
		return nil, fmt.Errorf("%s: no device session", target)
	}
	return New(dev, testCaseID, target, outputDir, f.log), nil
}

var _ Device = (*appium.Client)(nil)
