package enroll

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/doe69john/SmartAttendanceSMU-sub001/core"
	"github.com/doe69john/SmartAttendanceSMU-sub001/core/bus"
	"github.com/doe69john/SmartAttendanceSMU-sub001/core/capture"
)

var (
	ErrProcessing = errors.New("an enrollment run is already in progress")
	ErrNoFrames   = errors.New("no captured frames to process")

	genericErrMsg = "enrollment could not be completed, please retry"
)

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// Pipeline turns a validated frame set into durable face-data records:
// prepare -> upload -> record, with compensating deletes on failure. A single
// run may be in flight at a time.
type Pipeline struct {
	conf    core.EnrollConfig
	log     core.Logger
	storage Storage
	records Records
	bus     *bus.Bus

	onProgress func(Progress)
	onComplete func(Status)

	now func() time.Time // test seam

	mu       sync.Mutex
	running  bool
	progress Progress
}

func NewPipeline(conf *core.Config, log core.Logger, storage Storage, records Records, b *bus.Bus) *Pipeline {
	return &Pipeline{
		conf:     conf.Enroll,
		log:      log,
		storage:  storage,
		records:  records,
		bus:      b,
		now:      time.Now,
		progress: Progress{Prepare: StatusPending, Upload: StatusPending, Record: StatusPending},
	}
}

// OnProgress registers a stage-status callback for display.
func (p *Pipeline) OnProgress(fn func(Progress)) { p.onProgress = fn }

// OnComplete registers an optional completion callback, fired after a fully
// successful run with the refreshed enrollment status.
func (p *Pipeline) OnComplete(fn func(Status)) { p.onComplete = fn }

// Progress returns a snapshot of the stage statuses.
func (p *Pipeline) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// Process runs the full pipeline for one enrollment attempt. Partial stage
// progress is preserved for display; on abort, incomplete stages are
// force-marked error and every uploaded file is deleted best-effort.
func (p *Pipeline) Process(ctx context.Context, studentID string, frames []capture.Frame) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrProcessing
	}
	p.running = true
	p.progress = Progress{Prepare: StatusInProgress, Upload: StatusPending, Record: StatusPending}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()
	p.notifyProgress()

	if len(frames) == 0 {
		p.fail(func(pr *Progress) { pr.Prepare = StatusError })
		return ErrNoFrames
	}

	// prepare: synthesize filenames from the in-memory blobs; no network calls
	baseTimestamp := p.now().UTC().UnixMilli()
	inputs := make([]UploadInput, len(frames))
	for i, f := range frames {
		inputs[i] = UploadInput{
			FileName: fmt.Sprintf("capture_%d_%d.jpg", baseTimestamp, i),
			Data:     f.Data,
			Width:    f.Width,
			Height:   f.Height,
			Box:      f.Box,
		}
	}
	p.update(func(pr *Progress) {
		pr.Prepare = StatusSuccess
		pr.Upload = StatusInProgress
	})

	// upload: sequential, order matters for index correlation
	uploaded := make([]Uploaded, 0, len(inputs))
	for i, in := range inputs {
		up, err := p.storage.UploadFaceImage(ctx, studentID, in)
		if err != nil {
			p.compensate(ctx, studentID, uploaded)
			p.fail(func(pr *Progress) {
				pr.Upload = StatusError
				pr.Record = StatusError
			})
			return errors.Wrapf(err, "uploading frame %d", i)
		}
		uploaded = append(uploaded, up)
	}
	p.update(func(pr *Progress) {
		pr.Upload = StatusSuccess
		pr.Record = StatusInProgress
	})

	// record: aggregate quality metrics plus one metadata record per upload
	lighting, sharpness := p.aggregates(frames)
	quality := core.Round3((lighting + sharpness + p.conf.PoseQuality) / 3)

	for i, up := range uploaded {
		rec := ImageRecord{
			ImageURL:         up.URL(),
			QualityScore:     quality,
			ConfidenceScore:  p.conf.DefaultConfidence,
			IsPrimary:        i == 0,
			ProcessingStatus: "completed",
			Metadata: map[string]interface{}{
				"storage_path":  up.StoragePath,
				"file_name":     up.FileName,
				"capture_index": i,
				"captured_at":   baseTimestamp,
				"step_id":       frames[i].StepID,
				"frame_width":   frames[i].Width,
				"frame_height":  frames[i].Height,
				"analysis": map[string]interface{}{
					"brightness": frames[i].Analysis.Brightness,
					"sharpness":  frames[i].Analysis.Sharpness,
				},
				"bounding_box": map[string]interface{}{
					"x":      frames[i].Box.X,
					"y":      frames[i].Box.Y,
					"width":  frames[i].Box.Width,
					"height": frames[i].Box.Height,
				},
			},
		}
		if err := p.records.CreateFaceImageRecord(ctx, studentID, rec); err != nil {
			if tolerableRecordErr(err) {
				// this particular record isn't persistable; the rest of the
				// batch may still succeed
				p.log.Warn(fmt.Sprintf("skipping face-data record %d", i), err)
				continue
			}
			p.compensate(ctx, studentID, uploaded)
			p.fail(func(pr *Progress) { pr.Record = StatusError })
			return errors.Wrapf(err, "creating face-data record %d", i)
		}
	}
	p.update(func(pr *Progress) { pr.Record = StatusSuccess })

	status := p.refreshStatus(ctx, studentID)
	if p.onComplete != nil {
		p.onComplete(status)
	}
	return nil
}

// Retry re-invokes the same pipeline from prepare; the re-entrancy guard is
// explicitly cleared first.
func (p *Pipeline) Retry(ctx context.Context, studentID string, frames []capture.Frame) error {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return p.Process(ctx, studentID, frames)
}

func (p *Pipeline) aggregates(frames []capture.Frame) (lighting, sharpness float64) {
	var b, s float64
	for _, f := range frames {
		b += f.Analysis.Brightness
		s += f.Analysis.Sharpness
	}
	n := float64(len(frames))
	lighting = core.Round3(core.Clamp01(b / n))
	sharpness = core.Round3(core.Clamp01(s / n / p.conf.SharpnessNorm))
	return lighting, sharpness
}

// compensate best-effort deletes every uploaded file; failures are logged,
// not escalated.
func (p *Pipeline) compensate(ctx context.Context, studentID string, uploaded []Uploaded) {
	for _, up := range uploaded {
		if err := p.storage.DeleteFaceImage(ctx, studentID, up.FileName); err != nil {
			p.log.Warn(fmt.Sprintf("compensating delete failed for %s", up.FileName), err)
		}
	}
}

// refreshStatus re-fetches the enrollment status and broadcasts it so sibling
// components stay consistent. A miss is a silent warning.
func (p *Pipeline) refreshStatus(ctx context.Context, studentID string) Status {
	status, err := p.records.GetFaceDataStatus(ctx, studentID)
	if err != nil {
		p.log.Warn("refreshing face-data status", err)
		return Status{}
	}
	if p.bus != nil {
		p.bus.Publish(bus.Event{
			StudentID:   studentID,
			HasFaceData: status.HasFaceData,
			ImageCount:  status.ImageCount,
		})
	}
	return status
}

func (p *Pipeline) update(fn func(*Progress)) {
	p.mu.Lock()
	fn(&p.progress)
	p.mu.Unlock()
	p.notifyProgress()
}

func (p *Pipeline) fail(fn func(*Progress)) {
	p.mu.Lock()
	fn(&p.progress)
	// an error in any stage halts progression; remaining non-success stages
	// are error too
	if p.progress.Prepare != StatusSuccess {
		p.progress.Prepare = StatusError
	}
	if p.progress.Upload != StatusSuccess {
		p.progress.Upload = StatusError
	}
	if p.progress.Record != StatusSuccess {
		p.progress.Record = StatusError
	}
	p.progress.Err = genericErrMsg
	p.mu.Unlock()
	p.notifyProgress()
}

func (p *Pipeline) notifyProgress() {
	if p.onProgress != nil {
		p.onProgress(p.Progress())
	}
}

func tolerableRecordErr(err error) bool {
	if sc, ok := errors.Cause(err).(statusCoder); ok {
		code := sc.StatusCode()
		return code == http.StatusForbidden || code == http.StatusNotFound
	}
	return false
}
