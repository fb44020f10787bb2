// Package silence implements energy-based end-of-answer detection. It
// samples the microphone stream's RMS energy at a fixed interval and
// fires a one-shot latched event once the energy has stayed below a
// threshold for long enough.
package silence

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-voice-core/internal/audio"
	"ai-interview-voice-core/internal/observability/logging"
	"ai-interview-voice-core/internal/observability/metrics"
)

// Config holds silence detection parameters.
type Config struct {
	CheckInterval   time.Duration // energy sampling period
	EnergyThreshold float64       // normalized level below which counts as silence
	SilenceAfter    time.Duration // accumulated below-threshold time that fires the event
	WindowSamples   int           // size of the RMS sample window
}

// DefaultConfig returns the reference detection parameters.
func DefaultConfig() Config {
	return Config{
		CheckInterval:   100 * time.Millisecond,
		EnergyThreshold: 0.01,
		SilenceAfter:    2 * time.Second,
		WindowSamples:   2048,
	}
}

// Callbacks receives monitor output. Both run on the monitor's check
// goroutine and must not block.
type Callbacks struct {
	OnLevel   func(level float64)
	OnSilence func(accumulated time.Duration)
}

// Monitor samples a stream's energy. It never owns the stream: Stop only
// detaches the monitor's own tap, the microphone stays with its opener.
type Monitor struct {
	cfg Config
	cb  Callbacks
	log zerolog.Logger
	m   *metrics.Metrics

	mu          sync.Mutex
	window      []int16
	windowPos   int
	windowFull  bool
	detach      func()
	stop        chan struct{}
	running     bool
	accumulated time.Duration
	latched     bool
	lastLevel   float64
}

// NewMonitor creates a silence monitor. Zero config fields take defaults.
func NewMonitor(cfg Config, cb Callbacks) *Monitor {
	def := DefaultConfig()
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	if cfg.EnergyThreshold <= 0 {
		cfg.EnergyThreshold = def.EnergyThreshold
	}
	if cfg.SilenceAfter <= 0 {
		cfg.SilenceAfter = def.SilenceAfter
	}
	if cfg.WindowSamples <= 0 {
		cfg.WindowSamples = def.WindowSamples
	}
	return &Monitor{
		cfg:    cfg,
		cb:     cb,
		log:    logging.WithComponent("silence"),
		m:      metrics.Default,
		window: make([]int16, cfg.WindowSamples),
	}
}

// Initialize attaches the monitor to a caller-supplied stream and starts
// the periodic check. The stream's lifecycle stays with the caller.
func (mon *Monitor) Initialize(stream *audio.Stream) {
	mon.mu.Lock()
	if mon.running {
		mon.mu.Unlock()
		return
	}
	mon.running = true
	mon.stop = make(chan struct{})
	mon.detach = stream.Tap(mon.consume)
	stop := mon.stop
	mon.mu.Unlock()

	go mon.checkLoop(stop)
	mon.log.Debug().Dur("interval", mon.cfg.CheckInterval).Msg("Silence monitor attached")
}

// Stop cancels the periodic check and detaches the tap. The monitor's
// silence state is reset; the stream itself is untouched.
func (mon *Monitor) Stop() {
	mon.mu.Lock()
	if !mon.running {
		mon.mu.Unlock()
		return
	}
	mon.running = false
	close(mon.stop)
	detach := mon.detach
	mon.detach = nil
	mon.accumulated = 0
	mon.latched = false
	mon.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// Reset zeroes the running silence duration and clears the latch without
// releasing any resources.
func (mon *Monitor) Reset() {
	mon.mu.Lock()
	mon.accumulated = 0
	mon.latched = false
	mon.mu.Unlock()
}

// Level returns the most recently computed normalized level.
func (mon *Monitor) Level() float64 {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return mon.lastLevel
}

// consume appends samples to the ring window. Runs on the device's
// delivery goroutine.
func (mon *Monitor) consume(frame audio.Frame) {
	mon.mu.Lock()
	for _, s := range frame {
		mon.window[mon.windowPos] = s
		mon.windowPos++
		if mon.windowPos == len(mon.window) {
			mon.windowPos = 0
			mon.windowFull = true
		}
	}
	mon.mu.Unlock()
}

func (mon *Monitor) checkLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(mon.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			mon.check()
		}
	}
}

// check runs one sampling tick: compute the level, accumulate silence,
// and fire the latched event when the threshold duration is reached.
func (mon *Monitor) check() {
	mon.mu.Lock()
	level := mon.levelLocked()
	mon.lastLevel = level

	var fire bool
	var accumulated time.Duration
	if level < mon.cfg.EnergyThreshold {
		mon.accumulated += mon.cfg.CheckInterval
		if !mon.latched && mon.accumulated >= mon.cfg.SilenceAfter {
			mon.latched = true
			fire = true
			accumulated = mon.accumulated
		}
	} else {
		// Energy above threshold re-arms the latch and restarts the count.
		mon.accumulated = 0
		mon.latched = false
	}
	mon.mu.Unlock()

	mon.m.RecordAudioLevel(level)
	if mon.cb.OnLevel != nil {
		mon.cb.OnLevel(level)
	}
	if fire {
		mon.log.Info().Dur("accumulated", accumulated).Msg("Silence detected")
		mon.m.RecordSilenceEvent()
		if mon.cb.OnSilence != nil {
			mon.cb.OnSilence(accumulated)
		}
	}
}

// levelLocked computes the RMS energy of the current sample window,
// normalized to [0,1]. Caller holds mon.mu.
func (mon *Monitor) levelLocked() float64 {
	n := len(mon.window)
	if !mon.windowFull {
		n = mon.windowPos
	}
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		v := float64(mon.window[i]) / 32768.0
		sum += v * v
	}
	level := math.Sqrt(sum / float64(n))
	if level > 1 {
		level = 1
	}
	return level
}
