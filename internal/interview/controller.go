package interview

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-interview-voice-core/internal/audio"
	"ai-interview-voice-core/internal/capture"
	"ai-interview-voice-core/internal/events"
	"ai-interview-voice-core/internal/observability/logging"
	"ai-interview-voice-core/internal/observability/metrics"
	"ai-interview-voice-core/internal/playback"
	"ai-interview-voice-core/internal/protocol"
	"ai-interview-voice-core/internal/session"
	"ai-interview-voice-core/internal/silence"
	"ai-interview-voice-core/internal/stt"
)

// Sender delivers outbound messages on the session channel.
type Sender interface {
	Send(msg protocol.Outbound) error
}

// Observer receives controller output for the presentation layer. All
// callbacks run on handler goroutines and must not block.
type Observer struct {
	// OnState reports local state transitions.
	OnState func(from, to State)
	// OnRemoteState reports the server-side pipeline state verbatim.
	OnRemoteState func(state string)
	// OnTranscript delivers the merged live transcript.
	OnTranscript func(text string, final bool)
	// OnLevel delivers the normalized microphone level.
	OnLevel func(level float64)
	// OnQuestion announces the question being asked.
	OnQuestion func(number, total int, text string)
	// OnEvaluation delivers per-question score snapshots.
	OnEvaluation func(questionNumber int, scores map[string]float64)
	// OnCompleted delivers the terminal result.
	OnCompleted func(result session.Result)
	// OnError surfaces channel, capture, and server errors.
	OnError func(code, message string)
}

// Deps are the collaborators the controller drives.
type Deps struct {
	Sender   Sender
	Device   audio.Device
	STT      stt.Adapter
	Player   playback.Player
	Silence  silence.Config
	Session  *session.Session
	Mirror   *events.Publisher
	Observer Observer
}

// Controller is the interaction state machine. Each external event
// (inbound message, silence tick, playback completion, command) runs as
// one short handler serialized by the controller mutex.
type Controller struct {
	sender  Sender
	capture *capture.Capture
	monitor *silence.Monitor
	speaker *playback.Speaker
	sess    *session.Session
	mirror  *events.Publisher
	obs     Observer
	log     zerolog.Logger
	m       *metrics.Metrics

	mu    sync.Mutex
	state State
	ctx   context.Context

	// The live transcript is tracked outside the controller mutex so
	// recognition callbacks fired during a capture teardown cannot
	// re-enter the handler lock.
	tmu        sync.Mutex
	transcript string
}

// New creates a controller in Idle state wired to its collaborators.
func New(deps Deps) *Controller {
	c := &Controller{
		sender: deps.Sender,
		sess:   deps.Session,
		mirror: deps.Mirror,
		obs:    deps.Observer,
		log:    logging.WithSession(deps.Session.ID).With().Str("component", "controller").Logger(),
		m:      metrics.Default,
		state:  StateIdle,
		ctx:    context.Background(),
	}
	c.capture = capture.New(deps.Device, deps.STT, capture.Callbacks{
		OnTranscript: c.onTranscript,
		OnError:      c.onCaptureError,
	})
	c.monitor = silence.NewMonitor(deps.Silence, silence.Callbacks{
		OnLevel:   c.onLevel,
		OnSilence: c.onSilence,
	})
	c.speaker = playback.New(deps.Player)
	return c
}

// State returns the current interaction state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns the live merged transcript.
func (c *Controller) Transcript() string {
	c.tmu.Lock()
	defer c.tmu.Unlock()
	return c.transcript
}

// Level returns the most recent microphone level.
func (c *Controller) Level() float64 {
	return c.monitor.Level()
}

// Start begins the interview: the only transition out of Idle. The
// context bounds the whole session and every capture cycle within it.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCompleted {
		return ErrCompleted
	}
	if c.state != StateIdle {
		return ErrAlreadyStarted
	}
	c.ctx = ctx

	c.transitionLocked(StateSetup)
	return c.send(protocol.StartInterview{
		SessionID:      c.sess.ID,
		JobRole:        c.sess.JobRole,
		JobDescription: c.sess.JobDescription,
		QuestionCount:  c.sess.QuestionCount,
	})
}

// StopAnswer is the manual end-of-answer command (mic toggle). It runs
// the same finalize path as silence detection. A no-op outside
// Listening.
func (c *Controller) StopAnswer() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateListening {
		c.log.Debug().Str("state", c.state.String()).Msg("Manual stop ignored outside listening")
		return
	}
	c.finalizeAnswerLocked()
}

// End terminates the interview from the local side.
func (c *Controller) End() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.IsTerminal() {
		return
	}
	c.teardownLocked()
	c.send(protocol.EndInterview{SessionID: c.sess.ID})
	c.transitionLocked(StateCompleted)
}

// HandleInbound dispatches one message from the session channel. Wire
// it as the channel's OnMessage handler.
func (c *Controller) HandleInbound(msg protocol.Inbound) {
	switch m := msg.(type) {
	case protocol.QuestionReady:
		c.onQuestionReady(m)
	case protocol.TTSAudio:
		c.onTTSAudio(m)
	case protocol.EvaluationUpdate:
		c.onEvaluation(m)
	case protocol.InterviewComplete:
		c.onComplete(m)
	case protocol.ErrorNotice:
		c.onServerError(m)
	case protocol.StateUpdate:
		if c.obs.OnRemoteState != nil {
			c.obs.OnRemoteState(m.State)
		}
	case protocol.Pong:
		// Liveness is judged by the read loop, not by pong receipt.
	}
}

func (c *Controller) onQuestionReady(m protocol.QuestionReady) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSetup && c.state != StateThinking {
		c.log.Warn().Str("state", c.state.String()).Msg("Question ready in unexpected state, dropped")
		return
	}

	c.sess.SetQuestion(m.QuestionNumber, m.TotalQuestions, m.Question)
	c.transitionLocked(StateSpeaking)
	if c.obs.OnQuestion != nil {
		c.obs.OnQuestion(m.QuestionNumber, m.TotalQuestions, m.Question)
	}
}

func (c *Controller) onTTSAudio(m protocol.TTSAudio) {
	c.mu.Lock()
	if c.state != StateSpeaking {
		c.mu.Unlock()
		c.log.Warn().Str("state", c.state.String()).Msg("Question audio in unexpected state, dropped")
		return
	}
	c.mu.Unlock()

	if err := c.speaker.Speak(m.AudioBase64, m.AudioFormat, c.onPlaybackDone); err != nil {
		c.log.Error().Err(err).Msg("Question audio rejected")
		c.notifyError("PLAYBACK_FAILED", err.Error())
		// Fall through to listening so the candidate can still answer.
		c.onPlaybackDone()
	}
}

// onPlaybackDone moves Speaking into Listening: only here do capture
// and the silence monitor come up, so the mic is never live while a
// question plays.
func (c *Controller) onPlaybackDone() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateSpeaking {
		return
	}
	c.transitionLocked(StateListening)

	c.setTranscript("")
	if err := c.capture.Start(c.ctx); err != nil {
		// Capture reported the classified error to onCaptureError
		// already. The state stays Listening so a retry can follow.
		return
	}
	c.monitor.Initialize(c.capture.Stream())
}

func (c *Controller) onSilence(accumulated time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateListening {
		return
	}
	c.send(protocol.SilenceDetected{
		SessionID:       c.sess.ID,
		DurationSeconds: accumulated.Seconds(),
	})
	c.finalizeAnswerLocked()
}

// finalizeAnswerLocked tears down the listening cycle and delivers the
// final transcript. Runs exactly once per cycle: both triggers (silence
// and manual stop) check for Listening under the controller mutex.
func (c *Controller) finalizeAnswerLocked() {
	c.monitor.Stop()
	// Stopping capture flushes the engine's pending recognition into
	// the buffer before the microphone is released.
	c.capture.Stop()

	text := c.capture.Buffer()
	c.setTranscript(text)
	c.sess.RecordAnswer(text)

	c.send(protocol.Transcribe{
		SessionID:  c.sess.ID,
		Transcript: text,
		IsFinal:    true,
	})

	if c.mirror != nil {
		current, _ := c.sess.Progress()
		c.mirror.PublishTranscript(c.ctx, c.sess.ID, events.TranscriptEvent{
			EventType:      "interview.transcript.final",
			SessionID:      c.sess.ID,
			QuestionNumber: current,
			Question:       c.sess.CurrentQuestion(),
			Transcript:     text,
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
		})
	}

	c.transitionLocked(StateThinking)
	if c.obs.OnTranscript != nil {
		c.obs.OnTranscript(text, true)
	}
}

func (c *Controller) onEvaluation(m protocol.EvaluationUpdate) {
	c.sess.RecordEvaluation(m.CurrentQuestionNumber, m.Scores)

	if c.mirror != nil {
		c.mirror.PublishEvaluation(c.ctx, c.sess.ID, events.EvaluationEvent{
			EventType:      "interview.evaluation",
			SessionID:      c.sess.ID,
			QuestionNumber: m.CurrentQuestionNumber,
			Scores:         m.Scores,
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
		})
	}
	if c.obs.OnEvaluation != nil {
		c.obs.OnEvaluation(m.CurrentQuestionNumber, m.Scores)
	}
}

func (c *Controller) onComplete(m protocol.InterviewComplete) {
	c.mu.Lock()

	if c.state.IsTerminal() {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.sess.Complete(m.FinalScores, m.Verdict, m.ReportURL)
	c.transitionLocked(StateCompleted)
	c.mu.Unlock()

	if c.obs.OnCompleted != nil {
		c.obs.OnCompleted(session.Result{
			FinalScores: m.FinalScores,
			Verdict:     m.Verdict,
			ReportURL:   m.ReportURL,
		})
	}
}

func (c *Controller) onServerError(m protocol.ErrorNotice) {
	c.log.Warn().Str("code", m.ErrorCode).Str("message", m.ErrorMessage).Msg("Server error notice")
	c.notifyError(m.ErrorCode, m.ErrorMessage)
}

// teardownLocked stops whichever of capture, monitor, and playback is
// active. Safe to call in any state.
func (c *Controller) teardownLocked() {
	c.speaker.Cancel()
	c.monitor.Stop()
	c.capture.Stop()
}

// transitionLocked records a state change and notifies the observer.
func (c *Controller) transitionLocked(to State) {
	from := c.state
	if from == to {
		return
	}
	if !from.CanTransitionTo(to) {
		c.log.Error().Str("from", from.String()).Str("to", to.String()).Msg("Invalid state transition, dropped")
		return
	}
	c.state = to
	c.m.RecordStateTransition(from.String(), to.String())
	c.log.Info().Str("from", from.String()).Str("to", to.String()).Msg("State transition")
	if c.obs.OnState != nil {
		c.obs.OnState(from, to)
	}
}

// onTranscript receives live recognition updates. It deliberately does
// not touch the controller mutex: finals flushed during a capture
// teardown arrive on the goroutine that already holds it.
func (c *Controller) onTranscript(text string, final bool) {
	c.setTranscript(text)
	if c.obs.OnTranscript != nil && !final {
		c.obs.OnTranscript(text, false)
	}
	if !final {
		c.send(protocol.Transcribe{
			SessionID:  c.sess.ID,
			Transcript: text,
			IsFinal:    false,
		})
	}
}

func (c *Controller) onLevel(level float64) {
	if c.obs.OnLevel != nil {
		c.obs.OnLevel(level)
	}
}

func (c *Controller) onCaptureError(err *capture.Error) {
	c.notifyError("CAPTURE_"+string(err.Class), err.Error())
}

func (c *Controller) setTranscript(text string) {
	c.tmu.Lock()
	c.transcript = text
	c.tmu.Unlock()
}

func (c *Controller) notifyError(code, message string) {
	if c.obs.OnError != nil {
		c.obs.OnError(code, message)
	}
}

// send delivers one outbound message, logging delivery failures. A
// closed channel drops the message by contract, which surfaces here as
// an error from Send.
func (c *Controller) send(msg protocol.Outbound) error {
	if err := c.sender.Send(msg); err != nil {
		c.log.Warn().Err(err).Str("kind", string(msg.MessageType())).Msg("Outbound message not delivered")
		return err
	}
	return nil
}
