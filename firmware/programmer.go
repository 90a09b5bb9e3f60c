package firmware

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-astribank/hexfile"
	"github.com/moffa90/go-astribank/mpp"
)

// Uploader is the device side of an upload session. *mpp.Device
// implements it.
type Uploader interface {
	SendStart(ctx context.Context, dest mpp.Dest, version string) error
	SendSeg(ctx context.Context, offset uint16, data []byte) error
	SendEnd(ctx context.Context) error
}

// Programmer uploads Intel HEX images through an MPP upload session.
//
// A Programmer runs one upload at a time; the Uploader it drives holds
// the session state.
type Programmer struct {
	device Uploader
	config Config
}

// New creates a new Programmer with the given device and options.
//
// Example:
//
//	dev, _ := mpp.New(transport)
//	prog := firmware.New(dev,
//	    firmware.WithProgressCallback(progressFunc),
//	    firmware.WithSegmentSize(64),
//	)
func New(device Uploader, opts ...Option) *Programmer {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		device: device,
		config: cfg,
	}
}

// Program performs the complete upload sequence:
//  1. Open the session with DEV_SEND_START carrying dest and the version tag
//  2. Send every image segment with DEV_SEND_SEG
//  3. Close the session with DEV_SEND_END
//
// Nothing is retried. A cancelled context stops the upload between
// segments and leaves the device session open.
//
// Example:
//
//	img, _ := hexfile.Parse("FPGA_1161.hex")
//	err := prog.Program(context.Background(), img, mpp.DestFPGA)
func (p *Programmer) Program(ctx context.Context, img *hexfile.Image, dest mpp.Dest) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}
	if img.Size() == 0 {
		return ErrEmptyImage
	}
	version := img.Version
	if p.config.Version != "" {
		version = p.config.Version
	}
	if len(version) > mpp.VersionLen {
		return &VersionTooLongError{Version: version, Max: mpp.VersionLen}
	}

	segs := img.Segments(p.config.SegmentSize)
	startTime := time.Now()

	// Phase 1: open the session
	p.reportProgress(Progress{
		Phase:         PhaseStarting,
		TotalSegments: len(segs),
	})

	if err := p.device.SendStart(ctx, dest, version); err != nil {
		return fmt.Errorf("start upload: %w", err)
	}

	p.logDebug("upload started",
		"dest", dest.String(),
		"version", version,
		"segments", len(segs),
		"bytes", img.Size(),
	)

	// Phase 2: segments
	bytesWritten := 0
	for i, seg := range segs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		if err := p.device.SendSeg(ctx, seg.Offset, seg.Data); err != nil {
			p.logError("segment failed", "index", i, "offset", seg.Offset, "error", err)
			return &SegmentError{Index: i, Offset: seg.Offset, Err: err}
		}
		p.config.Metrics.Segment(dest.String(), len(seg.Data))

		if p.config.SegmentDelay > 0 {
			time.Sleep(p.config.SegmentDelay)
		}

		bytesWritten += len(seg.Data)

		// Report progress (2% to 95%)
		percentage := 2 + (float64(i+1)/float64(len(segs)))*93
		p.reportProgress(Progress{
			Phase:          PhaseSending,
			CurrentSegment: i + 1,
			TotalSegments:  len(segs),
			Percentage:     percentage,
			BytesWritten:   bytesWritten,
			ElapsedTime:    time.Since(startTime),
		})
	}

	// Phase 3: close the session
	p.reportProgress(Progress{
		Phase:          PhaseEnding,
		CurrentSegment: len(segs),
		TotalSegments:  len(segs),
		Percentage:     97,
		BytesWritten:   bytesWritten,
		ElapsedTime:    time.Since(startTime),
	})

	if err := p.device.SendEnd(ctx); err != nil {
		return fmt.Errorf("end upload: %w", err)
	}

	p.reportProgress(Progress{
		Phase:          PhaseComplete,
		CurrentSegment: len(segs),
		TotalSegments:  len(segs),
		Percentage:     100,
		BytesWritten:   bytesWritten,
		ElapsedTime:    time.Since(startTime),
	})

	p.logInfo("upload complete",
		"dest", dest.String(),
		"segments", len(segs),
		"bytes", bytesWritten,
		"elapsed", time.Since(startTime).String(),
	)

	return nil
}

// ProgramFile parses the Intel HEX file at path and uploads it to dest.
func (p *Programmer) ProgramFile(ctx context.Context, path string, dest mpp.Dest) error {
	img, err := hexfile.Parse(path)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return p.Program(ctx, img, dest)
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}
