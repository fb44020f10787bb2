// Package app assembles the voice interview client: configuration,
// logging, the session channel, the interaction controller, the event
// mirror, and the metrics endpoint.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-voice-core/internal/audio"
	"ai-interview-voice-core/internal/channel"
	"ai-interview-voice-core/internal/config"
	"ai-interview-voice-core/internal/events"
	"ai-interview-voice-core/internal/interview"
	"ai-interview-voice-core/internal/observability"
	"ai-interview-voice-core/internal/observability/logging"
	"ai-interview-voice-core/internal/playback"
	"ai-interview-voice-core/internal/protocol"
	"ai-interview-voice-core/internal/session"
	"ai-interview-voice-core/internal/silence"
	"ai-interview-voice-core/internal/stt"
	googlestt "ai-interview-voice-core/internal/stt/google"
	sttmock "ai-interview-voice-core/internal/stt/mock"
)

// Options override the pluggable collaborators. Zero values take the
// built-in defaults.
type Options struct {
	// Device supplies microphone streams. Defaults to the in-memory
	// fake, which is silent until frames are pushed.
	Device audio.Device
	// Player renders question audio. Defaults to the timed player.
	Player playback.Player
	// Observer receives controller output for the presentation layer.
	Observer interview.Observer
}

// Application holds process-wide state for the client.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Session    *session.Session
	Channel    *channel.SessionChannel
	Controller *interview.Controller
	Publisher  *events.Publisher

	metricsServer *observability.Server
}

// New constructs an Application from the provided configuration.
func New(cfg *config.Config, opts Options) (*Application, error) {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a := &Application{
		Cfg:    cfg,
		Logger: logging.WithComponent("application"),
	}

	a.Session = session.New(
		cfg.Interview.JobRole,
		cfg.Interview.JobDescription,
		cfg.Interview.QuestionCount,
	)

	a.Publisher = events.New(&events.Config{
		Enabled:         cfg.Kafka.Enabled,
		Brokers:         cfg.Kafka.Brokers,
		TopicTranscript: cfg.Kafka.TopicTranscript,
		TopicEvaluation: cfg.Kafka.TopicEvaluation,
		Principal:       cfg.Kafka.Principal,
	})

	adapter, err := newAdapter(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating stt adapter: %w", err)
	}

	device := opts.Device
	if device == nil {
		device = &audio.FakeDevice{}
	}
	player := opts.Player
	if player == nil {
		player = &playback.TimedPlayer{}
	}

	// The channel's handlers forward into the controller, which in turn
	// sends on the channel; wiring the channel first breaks the cycle.
	a.Channel = channel.New(channel.Config{
		Endpoint:             cfg.Channel.Endpoint,
		SessionID:            a.Session.ID,
		HeartbeatInterval:    cfg.Channel.HeartbeatInterval,
		ReconnectBase:        cfg.Channel.ReconnectBase,
		ReconnectMax:         cfg.Channel.ReconnectMax,
		MaxReconnectAttempts: cfg.Channel.MaxReconnectAttempts,
		DialTimeout:          cfg.Channel.DialTimeout,
	}, nil, channel.Handlers{
		OnMessage: func(msg protocol.Inbound) { a.Controller.HandleInbound(msg) },
		OnError: func(err error) {
			a.Logger.Warn().Err(err).Msg("Channel error")
		},
		OnStatus: func(s channel.Status) {
			a.Logger.Info().Str("status", s.String()).Msg("Channel status changed")
		},
	})

	a.Controller = interview.New(interview.Deps{
		Sender: a.Channel,
		Device: device,
		STT:    adapter,
		Player: player,
		Silence: silence.Config{
			CheckInterval:   cfg.Silence.CheckInterval,
			EnergyThreshold: cfg.Silence.EnergyThreshold,
			SilenceAfter:    cfg.Silence.SilenceAfter,
		},
		Session:  a.Session,
		Mirror:   a.Publisher,
		Observer: opts.Observer,
	})

	a.Logger.Info().Str("session_id", a.Session.ID).Msg("Voice interview client created")
	return a, nil
}

func newAdapter(cfg *config.Config) (stt.Adapter, error) {
	switch cfg.STT.Provider {
	case "google":
		return googlestt.New(context.Background(), googlestt.Config{
			LanguageCode: cfg.STT.LanguageCode,
			SampleRateHz: cfg.STT.SampleRateHz,
		})
	default:
		return sttmock.New(), nil
	}
}

// Start connects the session channel, exposes metrics, and begins the
// interview.
func (a *Application) Start(ctx context.Context) error {
	a.StartupTime = time.Now().UTC()

	a.metricsServer = observability.NewServer(":" + a.Cfg.Observability.MetricsPort)
	a.metricsServer.Start()

	if err := a.Channel.Connect(ctx); err != nil {
		return fmt.Errorf("connecting session channel: %w", err)
	}
	if err := a.Controller.Start(ctx); err != nil {
		return fmt.Errorf("starting interview: %w", err)
	}

	a.Logger.Info().Time("startupTime", a.StartupTime).Msg("Voice interview client started")
	return nil
}

// Shutdown ends the interview and releases all resources.
func (a *Application) Shutdown(ctx context.Context) {
	a.Logger.Info().Msg("Voice interview client shutting down")

	a.Controller.End()
	a.Channel.Disconnect()
	if err := a.Publisher.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Publisher close failed")
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}
}
