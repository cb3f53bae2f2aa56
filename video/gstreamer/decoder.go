// Package gstreamer decodes video files and network streams into planar
// I420 frames with GStreamer.
//
// Pipeline:
//
//	uridecodebin → videoconvert → capsfilter(video/x-raw,format=I420) → appsink
//
// The appsink callback runs on a GStreamer streaming thread. It copies each
// sample and queues it; Decoder.Next drains the queue on the caller's
// goroutine and watches the bus for end of stream and errors.
package gstreamer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/gogpu/dewarp/video"
)

// ErrPipeline wraps failures while building or starting the pipeline.
var ErrPipeline = errors.New("gstreamer: pipeline setup failed")

var initOnce sync.Once

// Init initializes GStreamer once per process.
func Init() {
	initOnce.Do(func() { gst.Init(nil) })
}

// Available reports whether the elements the decoder needs are installed.
func Available() bool {
	Init()
	for _, name := range []string{"uridecodebin", "videoconvert", "capsfilter", "appsink"} {
		if gst.Find(name) == nil {
			return false
		}
	}
	return true
}

type sample struct {
	data          []byte
	width, height int
	pts           time.Duration
}

// Decoder is a video.Decoder backed by a GStreamer pipeline.
type Decoder struct {
	cfg     Config
	uri     string
	session string
	log     *slog.Logger

	pipeline *gst.Pipeline
	sink     *app.Sink
	bus      *gst.Bus

	samples chan sample
	dropped int

	mu      sync.Mutex
	pending *sample
	width   int
	height  int
	index   int
	eos     bool
	closed  bool
}

var _ video.Decoder = (*Decoder)(nil)

// Open builds and starts a pipeline for source, a file path or URI, and
// waits for the first frame so the stream size is known.
func Open(ctx context.Context, source string, cfg Config) (*Decoder, error) {
	cfg = cfg.withDefaults()
	uri, err := SourceURI(source)
	if err != nil {
		return nil, err
	}
	Init()

	d := &Decoder{
		cfg:     cfg,
		uri:     uri,
		session: uuid.NewString(),
		samples: make(chan sample, cfg.QueueDepth),
	}
	d.log = cfg.Logger.With("uri", uri, "pipeline", d.session)

	if err := d.build(); err != nil {
		d.teardown()
		return nil, err
	}
	if err := d.pipeline.SetState(gst.StatePlaying); err != nil {
		d.teardown()
		return nil, fmt.Errorf("%w: set playing: %w", ErrPipeline, err)
	}
	if err := d.waitFirst(ctx); err != nil {
		d.teardown()
		return nil, err
	}
	d.log.Info("gstreamer: stream opened", "width", d.width, "height", d.height)
	return d, nil
}

func (d *Decoder) build() error {
	pipeline, err := gst.NewPipeline("dewarp-" + d.session[:8])
	if err != nil {
		return fmt.Errorf("%w: pipeline: %w", ErrPipeline, err)
	}
	d.pipeline = pipeline

	src, err := gst.NewElement("uridecodebin")
	if err != nil {
		return fmt.Errorf("%w: uridecodebin: %w", ErrPipeline, err)
	}
	if err := src.SetProperty("uri", d.uri); err != nil {
		return fmt.Errorf("%w: uri: %w", ErrPipeline, err)
	}
	convert, err := gst.NewElement("videoconvert")
	if err != nil {
		return fmt.Errorf("%w: videoconvert: %w", ErrPipeline, err)
	}
	filter, err := gst.NewElement("capsfilter")
	if err != nil {
		return fmt.Errorf("%w: capsfilter: %w", ErrPipeline, err)
	}
	if err := filter.SetProperty("caps", gst.NewCapsFromString("video/x-raw,format=I420")); err != nil {
		return fmt.Errorf("%w: caps: %w", ErrPipeline, err)
	}
	sink, err := app.NewAppSink()
	if err != nil {
		return fmt.Errorf("%w: appsink: %w", ErrPipeline, err)
	}
	d.sink = sink
	sink.SetProperty("sync", false)
	sink.SetProperty("max-buffers", uint(d.cfg.QueueDepth))

	if err := pipeline.AddMany(src, convert, filter, sink.Element); err != nil {
		return fmt.Errorf("%w: add elements: %w", ErrPipeline, err)
	}
	if err := gst.ElementLinkMany(convert, filter, sink.Element); err != nil {
		return fmt.Errorf("%w: link: %w", ErrPipeline, err)
	}

	if isRTSP(d.uri) {
		src.Connect("source-setup", func(self *gst.Element, source *gst.Element) {
			d.setupRTSP(source)
		})
	}
	src.Connect("pad-added", func(self *gst.Element, pad *gst.Pad) {
		d.linkDecoded(pad, convert)
	})
	sink.SetCallbacks(&app.SinkCallbacks{NewSampleFunc: d.onSample})

	d.bus = pipeline.GetPipelineBus()
	return nil
}

// setupRTSP tunes the rtspsrc created by uridecodebin.
func (d *Decoder) setupRTSP(source *gst.Element) {
	props := []struct {
		name  string
		value any
	}{
		{"protocols", d.cfg.RTSPProtocols},
		{"tcp-timeout", uint64(d.cfg.RTSPTimeout / time.Microsecond)},
		{"latency", uint(d.cfg.RTSPLatency / time.Millisecond)},
	}
	for _, p := range props {
		if err := source.SetProperty(p.name, p.value); err != nil {
			d.log.Warn("gstreamer: rtsp property", "name", p.name, "err", err)
		}
	}
	d.log.Debug("gstreamer: rtsp source configured",
		"protocols", d.cfg.RTSPProtocols, "timeout", d.cfg.RTSPTimeout)
}

// linkDecoded links the first raw video pad of uridecodebin to the
// converter. Audio and further video pads stay unlinked.
func (d *Decoder) linkDecoded(pad *gst.Pad, convert *gst.Element) {
	caps := pad.GetCurrentCaps()
	if caps == nil || !strings.HasPrefix(caps.String(), "video/") {
		return
	}
	sinkPad := convert.GetStaticPad("sink")
	if sinkPad == nil || sinkPad.IsLinked() {
		return
	}
	if ret := pad.Link(sinkPad); ret != gst.PadLinkOK {
		d.log.Error("gstreamer: link decoded pad", "pad", pad.GetName(), "ret", ret)
		return
	}
	d.log.Debug("gstreamer: decoded pad linked", "pad", pad.GetName())
}

func (d *Decoder) onSample(sink *app.Sink) gst.FlowReturn {
	smp := sink.PullSample()
	if smp == nil {
		return gst.FlowEOS
	}
	w, h, ok := capsSize(smp.GetCaps())
	if !ok {
		d.log.Warn("gstreamer: sample without size, skipping")
		return gst.FlowOK
	}
	buf := smp.GetBuffer()
	if buf == nil {
		return gst.FlowOK
	}
	info := buf.Map(gst.MapRead)
	data := append([]byte(nil), info.Bytes()...)
	buf.Unmap()

	s := sample{data: data, width: w, height: h, pts: time.Duration(buf.PresentationTimestamp())}
	select {
	case d.samples <- s:
	default:
		// Queue full: drop the oldest frame to stay live.
		select {
		case <-d.samples:
			d.mu.Lock()
			d.dropped++
			d.mu.Unlock()
		default:
		}
		select {
		case d.samples <- s:
		default:
		}
	}
	return gst.FlowOK
}

func capsSize(caps *gst.Caps) (int, int, bool) {
	if caps == nil || caps.GetSize() == 0 {
		return 0, 0, false
	}
	st := caps.GetStructureAt(0)
	wv, err := st.GetValue("width")
	if err != nil {
		return 0, 0, false
	}
	hv, err := st.GetValue("height")
	if err != nil {
		return 0, 0, false
	}
	w, ok1 := wv.(int)
	h, ok2 := hv.(int)
	return w, h, ok1 && ok2 && w > 0 && h > 0
}

// waitFirst blocks until the first frame arrives, the pipeline fails, or
// the open timeout expires.
func (d *Decoder) waitFirst(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.OpenTimeout)
	defer cancel()
	for {
		select {
		case s := <-d.samples:
			d.pending = &s
			d.width, d.height = s.width, s.height
			return nil
		case <-ctx.Done():
			return fmt.Errorf("%w: no frame from %s: %w", ErrPipeline, d.uri, ctx.Err())
		default:
		}
		if err := d.pollBus(d.cfg.PollInterval); err != nil {
			if video.IsEndOfStream(err) {
				return fmt.Errorf("%w: %s has no video frames", ErrPipeline, d.uri)
			}
			return fmt.Errorf("%w: %w", ErrPipeline, err)
		}
	}
}

// pollBus waits up to timeout for one bus message and turns end of stream
// and errors into the video sentinels.
func (d *Decoder) pollBus(timeout time.Duration) error {
	msg := d.bus.TimedPop(timeout)
	if msg == nil {
		return nil
	}
	switch msg.Type() {
	case gst.MessageEOS:
		d.eos = true
		return video.ErrEndOfStream
	case gst.MessageError:
		gerr := msg.ParseError()
		d.log.Error("gstreamer: pipeline error", "err", gerr.Error(), "debug", gerr.DebugString())
		return fmt.Errorf("%w: %s", video.ErrDecode, gerr.Error())
	case gst.MessageWarning:
		gerr := msg.ParseWarning()
		d.log.Warn("gstreamer: pipeline warning", "err", gerr.Error())
	}
	return nil
}

// Size implements video.Decoder.
func (d *Decoder) Size() (int, int) { return d.width, d.height }

// Dropped returns how many decoded frames were discarded because Next was
// not called fast enough.
func (d *Decoder) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Next returns the next decoded frame. It returns video.ErrNoFrame when no
// frame arrived within the poll interval.
func (d *Decoder) Next(ctx context.Context) (*video.Frame, error) {
	if d.closed {
		return nil, video.ErrEndOfStream
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s, ok := d.take(); ok {
		return d.wrap(s)
	}
	if d.eos {
		return nil, video.ErrEndOfStream
	}
	if err := d.pollBus(d.cfg.PollInterval); err != nil {
		// Frames decoded before the end of stream are still delivered.
		if video.IsEndOfStream(err) {
			if s, ok := d.take(); ok {
				return d.wrap(s)
			}
		}
		return nil, err
	}
	if s, ok := d.take(); ok {
		return d.wrap(s)
	}
	return nil, video.ErrNoFrame
}

func (d *Decoder) take() (sample, bool) {
	if d.pending != nil {
		s := *d.pending
		d.pending = nil
		return s, true
	}
	select {
	case s := <-d.samples:
		return s, true
	default:
		return sample{}, false
	}
}

func (d *Decoder) wrap(s sample) (*video.Frame, error) {
	if s.width != d.width || s.height != d.height {
		return nil, fmt.Errorf("%w: size changed from %dx%d to %dx%d",
			video.ErrDecode, d.width, d.height, s.width, s.height)
	}
	f, err := i420Layout(s.width, s.height).frame(s.data, s.width, s.height)
	if err != nil {
		return nil, err
	}
	f.Index = d.index
	f.PTS = s.pts
	d.index++
	return f, nil
}

// Close stops the pipeline and releases it.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.log.Debug("gstreamer: closing", "frames", d.index, "dropped", d.Dropped())
	return d.teardown()
}

func (d *Decoder) teardown() error {
	if d.pipeline == nil {
		return nil
	}
	err := d.pipeline.SetState(gst.StateNull)
	d.pipeline = nil
	if err != nil {
		return fmt.Errorf("gstreamer: stop pipeline: %w", err)
	}
	return nil
}
