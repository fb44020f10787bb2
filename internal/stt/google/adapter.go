// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"
	"errors"
	"io"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ai-interview-voice-core/internal/stt"
)

// Config holds recognition parameters for the streaming session.
type Config struct {
	LanguageCode string
	SampleRateHz int
}

// Adapter implements stt.Adapter using Google Cloud Speech-to-Text.
type Adapter struct {
	cfg    Config
	client *speech.Client
	stream speechpb.Speech_StreamingRecognizeClient
	cb     stt.Callback
}

// withDefaults fills unset recognition parameters.
func (c Config) withDefaults() Config {
	if c.LanguageCode == "" {
		c.LanguageCode = "en-US"
	}
	if c.SampleRateHz == 0 {
		c.SampleRateHz = 16000
	}
	return c
}

// New creates a new Google STT adapter.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	cfg = cfg.withDefaults()
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, client: c}, nil
}

// Start begins a streaming recognition session, sends the initial config,
// and spawns the response listener.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	stream, err := a.client.StreamingRecognize(ctx)
	if err != nil {
		return err
	}
	a.stream = stream
	a.cb = cb

	// Streaming config must be the first message on the stream.
	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: int32(a.cfg.SampleRateHz),
					LanguageCode:    a.cfg.LanguageCode,
				},
				InterimResults: true,
			},
		},
	})
	if err != nil {
		return err
	}

	go a.listen()
	return nil
}

// SendAudio sends audio bytes to Google Speech-to-Text.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	return a.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	})
}

// Close ends the streaming session.
func (a *Adapter) Close() error {
	if a.stream != nil {
		return a.stream.CloseSend()
	}
	return nil
}

// listen receives transcript responses and invokes callbacks until the
// stream ends.
func (a *Adapter) listen() {
	for {
		resp, err := a.stream.Recv()
		if err != nil {
			// The stream ends normally after CloseSend or context
			// cancellation; neither is worth reporting.
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return
			}
			switch status.Code(err) {
			case codes.Canceled:
				return
			case codes.OutOfRange:
				// Audio limit reached with nothing recognized.
				a.cb.OnError(stt.ErrNoSpeech)
				return
			}
			a.cb.OnError(err)
			return
		}

		for _, r := range resp.Results {
			if len(r.Alternatives) == 0 {
				continue
			}
			alt := r.Alternatives[0]
			if r.IsFinal {
				a.cb.OnFinal(alt.Transcript, float64(alt.Confidence))
			} else {
				a.cb.OnPartial(alt.Transcript)
			}
		}
	}
}
