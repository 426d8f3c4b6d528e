package attendance

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/classifier"
	"github.com/kozaktomas/attendance-kiosk/internal/database"
	"github.com/kozaktomas/attendance-kiosk/internal/events"
)

// ErrAttemptInProgress is returned when an attempt is started while another
// one is still running.
var ErrAttemptInProgress = errors.New("an attendance attempt is already in progress")

// OutcomeKind classifies how an attempt ended.
type OutcomeKind string

const (
	OutcomeRecorded         OutcomeKind = "recorded"
	OutcomeCaptureFailed    OutcomeKind = "capture_failed"
	OutcomeModelLoadFailed  OutcomeKind = "model_load_failed"
	OutcomeProcessingFailed OutcomeKind = "processing_failed"
	OutcomeNotRecognized    OutcomeKind = "not_recognized"
	OutcomeSaveFailed       OutcomeKind = "save_failed"

	// OutcomeRecognized is returned by Classify for a face above the
	// threshold; Attempt turns it into recorded or save_failed.
	OutcomeRecognized OutcomeKind = "recognized"
)

// Outcome is the result of one attempt. Every failure is reported here, not
// as an error.
type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	Identity   string      `json:"identity,omitempty"`
	Label      string      `json:"label,omitempty"`
	Confidence float64     `json:"confidence"`
	Index      int         `json:"index"`
	Threshold  float64     `json:"threshold,omitempty"`
	Scores     []float64   `json:"scores,omitempty"`
	Timestamp  string      `json:"timestamp,omitempty"`
	RecordID   string      `json:"record_id,omitempty"`
	Status     string      `json:"status"`
	Toast      *Toast      `json:"toast"`
	Error      string      `json:"error,omitempty"`

	Err error `json:"-"`
}

// Recorded reports whether the attempt stored a record.
func (o *Outcome) Recorded() bool {
	return o.Kind == OutcomeRecorded
}

// ManifestLoader provides the model manifest.
type ManifestLoader interface {
	Load(ctx context.Context) (*classifier.Manifest, error)
}

// Options wires a Service.
type Options struct {
	Loader     ManifestLoader
	Classifier classifier.Classifier
	// Store is only used by Attempt
	Store database.AttendanceWriter
	// Publisher defaults to events.NopPublisher
	Publisher events.Publisher
	// Threshold overrides the manifest threshold when > 0
	Threshold float64
	// Clock defaults to time.Now
	Clock func() time.Time
}

// Service runs attendance attempts against one kiosk.
type Service struct {
	kiosk *Kiosk
	opts  Options
}

// NewService creates a service for kiosk.
func NewService(kiosk *Kiosk, opts Options) *Service {
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{kiosk: kiosk, opts: opts}
}

// Kiosk returns the kiosk the service drives.
func (s *Service) Kiosk() *Kiosk {
	return s.kiosk
}

// Attempt captures one frame's worth of attendance: model load, decode and
// inference run in order and the first failure ends the attempt. The kiosk
// flag is always cleared before Attempt returns.
func (s *Service) Attempt(ctx context.Context, frame []byte) (*Outcome, error) {
	if !s.kiosk.TryBegin() {
		return nil, ErrAttemptInProgress
	}

	out := failed(OutcomeProcessingFailed, MsgProcessingFailed, errors.New("attempt aborted"))
	defer func() {
		var identity string
		if out.Recorded() {
			identity = out.Identity
		}
		s.kiosk.Finish(out.Status, out.Toast, identity)
	}()

	out = s.run(ctx, frame)
	return out, nil
}

// Classify runs the model on frame without touching the kiosk or the store.
func (s *Service) Classify(ctx context.Context, frame []byte) (*Outcome, error) {
	out := s.classify(ctx, frame)
	return out, out.Err
}

func failed(kind OutcomeKind, msg string, err error) *Outcome {
	out := &Outcome{
		Kind:   kind,
		Index:  -1,
		Status: msg,
		Toast:  &Toast{Message: msg, Type: ToastError},
		Err:    err,
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

// classify covers capture, model load and inference.
func (s *Service) classify(ctx context.Context, frame []byte) *Outcome {
	if _, err := classifier.FrameBytes(frame); errors.Is(err, classifier.ErrNoFrame) {
		return failed(OutcomeCaptureFailed, MsgCaptureFailed, err)
	}

	m, err := s.opts.Loader.Load(ctx)
	if err != nil {
		log.Printf("attendance: failed to load model: %v", err)
		return failed(OutcomeModelLoadFailed, MsgModelLoadFailed, err)
	}

	scores, err := s.opts.Classifier.Classify(ctx, frame, m)
	if err != nil {
		log.Printf("attendance: failed to process image: %v", err)
		return failed(OutcomeProcessingFailed, MsgProcessingFailed, err)
	}

	threshold := classifier.EffectiveThreshold(s.opts.Threshold, m)
	pred, err := classifier.Decide(scores, m.Labels, threshold)
	if err != nil {
		log.Printf("attendance: failed to process image: %v", err)
		return failed(OutcomeProcessingFailed, MsgProcessingFailed, err)
	}

	if !pred.Recognized {
		out := failed(OutcomeNotRecognized, MsgNotRecognized, nil)
		out.Label = pred.Label
		out.Index = pred.Index
		out.Confidence = pred.Confidence
		out.Threshold = threshold
		out.Scores = scores
		return out
	}

	return &Outcome{
		Kind:       OutcomeRecognized,
		Identity:   pred.Label,
		Label:      pred.Label,
		Index:      pred.Index,
		Confidence: pred.Confidence,
		Threshold:  threshold,
		Scores:     scores,
		Status:     "Recognized: " + pred.Label,
	}
}

func (s *Service) run(ctx context.Context, frame []byte) *Outcome {
	out := s.classify(ctx, frame)
	if out.Kind != OutcomeRecognized {
		return out
	}

	rec := &database.AttendanceRecord{
		Identity:   out.Identity,
		Timestamp:  s.opts.Clock().UTC(),
		Confidence: out.Confidence,
		Classifier: s.opts.Classifier.Name(),
	}
	out.Timestamp = rec.ISOTimestamp()

	if err := s.opts.Store.SaveAttendance(ctx, rec); err != nil {
		log.Printf("attendance: failed to save record for %s: %v", out.Identity, err)
		out.Kind = OutcomeSaveFailed
		out.Status = StatusSaveFailed
		out.Toast = &Toast{Message: MsgSaveFailed, Type: ToastError}
		out.Err = err
		out.Error = err.Error()
		return out
	}

	out.Kind = OutcomeRecorded
	out.RecordID = rec.ID.String()
	out.Status = StatusRecorded(out.Identity)
	out.Toast = &Toast{Message: MsgRecorded(out.Identity), Type: ToastSuccess}

	if err := s.opts.Publisher.Publish(ctx, events.NewAttendanceEvent(rec)); err != nil {
		log.Printf("attendance: failed to publish event for %s: %v", out.Identity, err)
	}
	return out
}
