package gstreamer

import (
	"io"
	"log/slog"
	"time"
)

// RTSP lower transport flags of rtspsrc's "protocols" property.
const (
	ProtocolUDP          = 1
	ProtocolUDPMulticast = 2
	ProtocolTCP          = 4
)

// Config tunes how a source is opened.
type Config struct {
	// RTSPProtocols restricts rtspsrc transports. Defaults to TCP only.
	RTSPProtocols int
	// RTSPTimeout bounds the TCP connection of RTSP sources.
	RTSPTimeout time.Duration
	// RTSPLatency is the rtspsrc jitter buffer size.
	RTSPLatency time.Duration

	// OpenTimeout bounds the wait for the first decoded frame.
	OpenTimeout time.Duration
	// PollInterval is how long Next waits on the bus when no frame is queued.
	PollInterval time.Duration
	// QueueDepth is the number of decoded frames buffered between the
	// streaming thread and Next. Older frames are dropped when full.
	QueueDepth int

	// Logger receives pipeline diagnostics. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the settings used by the player.
func DefaultConfig() Config {
	return Config{
		RTSPProtocols: ProtocolTCP,
		RTSPTimeout:   5 * time.Second,
		RTSPLatency:   200 * time.Millisecond,
		OpenTimeout:   10 * time.Second,
		PollInterval:  5 * time.Millisecond,
		QueueDepth:    4,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RTSPProtocols == 0 {
		c.RTSPProtocols = d.RTSPProtocols
	}
	if c.RTSPTimeout <= 0 {
		c.RTSPTimeout = d.RTSPTimeout
	}
	if c.RTSPLatency <= 0 {
		c.RTSPLatency = d.RTSPLatency
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = d.OpenTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = d.QueueDepth
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}
