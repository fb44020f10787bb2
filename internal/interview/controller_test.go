package interview

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"ai-interview-voice-core/internal/audio"
	"ai-interview-voice-core/internal/playback"
	"ai-interview-voice-core/internal/protocol"
	"ai-interview-voice-core/internal/session"
	"ai-interview-voice-core/internal/silence"
	sttmock "ai-interview-voice-core/internal/stt/mock"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []protocol.Outbound
	err  error
}

func (s *fakeSender) Send(msg protocol.Outbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSender) byKind(kind protocol.MessageType) []protocol.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []protocol.Outbound
	for _, m := range s.sent {
		if m.MessageType() == kind {
			out = append(out, m)
		}
	}
	return out
}

type observerRec struct {
	mu          sync.Mutex
	states      []State
	questions   []string
	transcripts []string
	finals      []bool
	evaluations []map[string]float64
	completed   []session.Result
	errors      []string
}

func (r *observerRec) observer() Observer {
	return Observer{
		OnState: func(from, to State) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.states = append(r.states, to)
		},
		OnQuestion: func(number, total int, text string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.questions = append(r.questions, text)
		},
		OnTranscript: func(text string, final bool) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.transcripts = append(r.transcripts, text)
			r.finals = append(r.finals, final)
		},
		OnEvaluation: func(questionNumber int, scores map[string]float64) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.evaluations = append(r.evaluations, scores)
		},
		OnCompleted: func(result session.Result) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completed = append(r.completed, result)
		},
		OnError: func(code, message string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors = append(r.errors, code)
		},
	}
}

type fixture struct {
	ctrl   *Controller
	sender *fakeSender
	device *audio.FakeDevice
	player *playback.FakePlayer
	rec    *observerRec
	sess   *session.Session
}

// newFixture builds a controller whose silence monitor is effectively
// inert, keeping mic-toggle tests deterministic. Tests that exercise
// silence detection use newSilenceFixture.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, silence.Config{
		CheckInterval:   5 * time.Millisecond,
		EnergyThreshold: 0.01,
		SilenceAfter:    time.Hour,
	})
}

func newSilenceFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, silence.Config{
		CheckInterval:   5 * time.Millisecond,
		EnergyThreshold: 0.01,
		SilenceAfter:    25 * time.Millisecond,
	})
}

func newFixtureWith(t *testing.T, cfg silence.Config) *fixture {
	t.Helper()
	f := &fixture{
		sender: &fakeSender{},
		device: &audio.FakeDevice{},
		player: &playback.FakePlayer{},
		rec:    &observerRec{},
	}
	f.sess = session.New("Backend Engineer", "Go microservices", 3)
	f.ctrl = New(Deps{
		Sender: f.sender,
		Device: f.device,
		STT: sttmock.NewScripted(sttmock.SimulatedUtterance{
			Partials:   []string{"we sharded", "we sharded the"},
			Final:      "we sharded the database by tenant",
			Confidence: 0.9,
		}),
		Player:   f.player,
		Silence:  cfg,
		Session:  f.sess,
		Observer: f.rec.observer(),
	})
	return f
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func (f *fixture) toListening(t *testing.T) {
	t.Helper()
	if err := f.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.ctrl.HandleInbound(protocol.QuestionReady{
		SessionID:      f.sess.ID,
		Question:       "How did you scale the data layer?",
		QuestionNumber: 1,
		TotalQuestions: 3,
	})
	f.ctrl.HandleInbound(protocol.TTSAudio{
		SessionID:   f.sess.ID,
		AudioBase64: base64.StdEncoding.EncodeToString([]byte("tts-bytes")),
		AudioFormat: "mp3",
	})
	waitFor(t, func() bool { return f.ctrl.State() == StateListening }, "listening state")
}

func TestController_StartFromIdleLandsOnSetup(t *testing.T) {
	f := newFixture(t)

	if got := f.ctrl.State(); got != StateIdle {
		t.Fatalf("expected Idle before start, got %v", got)
	}

	// Nothing but the start command moves the controller out of Idle.
	f.ctrl.StopAnswer()
	f.ctrl.HandleInbound(protocol.QuestionReady{Question: "early", QuestionNumber: 1, TotalQuestions: 3})
	f.ctrl.HandleInbound(protocol.TTSAudio{AudioBase64: "aGk=", AudioFormat: "mp3"})
	if got := f.ctrl.State(); got != StateIdle {
		t.Fatalf("expected Idle to survive non-start events, got %v", got)
	}

	if err := f.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := f.ctrl.State(); got != StateSetup {
		t.Errorf("expected Setup after start, got %v", got)
	}

	starts := f.sender.byKind(protocol.TypeStartInterview)
	if len(starts) != 1 {
		t.Fatalf("expected one start message, got %d", len(starts))
	}
	start := starts[0].(protocol.StartInterview)
	if start.SessionID != f.sess.ID || start.JobRole != "Backend Engineer" || start.QuestionCount != 3 {
		t.Errorf("unexpected start message: %+v", start)
	}

	if err := f.ctrl.Start(context.Background()); err != ErrAlreadyStarted {
		t.Errorf("expected ErrAlreadyStarted on second start, got %v", err)
	}
}

func TestController_FullAnswerCycle(t *testing.T) {
	f := newFixture(t)
	f.toListening(t)

	stream := f.ctrl.capture.Stream()
	if stream == nil {
		t.Fatal("expected live capture stream in Listening")
	}
	stream.Push(audio.Frame{100, -100})
	stream.Push(audio.Frame{200, -200})

	waitFor(t, func() bool { return f.ctrl.Transcript() == "we sharded the" }, "interim transcript")

	partials := f.sender.byKind(protocol.TypeTranscribe)
	if len(partials) < 2 {
		t.Fatalf("expected interim transcribe messages, got %d", len(partials))
	}

	f.ctrl.StopAnswer()

	if got := f.ctrl.State(); got != StateThinking {
		t.Fatalf("expected Thinking after manual stop, got %v", got)
	}
	if f.device.Released != 1 {
		t.Errorf("expected microphone released, got %d", f.device.Released)
	}

	// The engine flush on stop finalizes the scripted utterance.
	if got := f.ctrl.Transcript(); got != "we sharded the database by tenant" {
		t.Errorf("unexpected final transcript: %q", got)
	}

	var final *protocol.Transcribe
	for _, m := range f.sender.byKind(protocol.TypeTranscribe) {
		tr := m.(protocol.Transcribe)
		if tr.IsFinal {
			tr := tr
			final = &tr
		}
	}
	if final == nil {
		t.Fatal("expected a final transcribe message")
	}
	if final.Transcript != "we sharded the database by tenant" {
		t.Errorf("unexpected final transcript sent: %q", final.Transcript)
	}

	answers := f.sess.Answers()
	if len(answers) != 1 || answers[0].QuestionNumber != 1 {
		t.Errorf("unexpected recorded answers: %+v", answers)
	}

	// A second stop must not finalize again.
	f.ctrl.StopAnswer()
	finalCount := 0
	for _, m := range f.sender.byKind(protocol.TypeTranscribe) {
		if m.(protocol.Transcribe).IsFinal {
			finalCount++
		}
	}
	if finalCount != 1 {
		t.Errorf("expected exactly one final transcribe, got %d", finalCount)
	}
}

func TestController_SilenceFinalizesAnswer(t *testing.T) {
	f := newSilenceFixture(t)
	f.toListening(t)

	// No frames arrive, so the level stays at zero and the monitor
	// accumulates silence until it fires.
	waitFor(t, func() bool { return f.ctrl.State() == StateThinking }, "silence finalize")

	silences := f.sender.byKind(protocol.TypeSilenceDetected)
	if len(silences) != 1 {
		t.Fatalf("expected one silence message, got %d", len(silences))
	}
	if s := silences[0].(protocol.SilenceDetected); s.DurationSeconds <= 0 {
		t.Errorf("expected positive silence duration, got %f", s.DurationSeconds)
	}
	if f.device.Released != 1 {
		t.Errorf("expected microphone released after silence, got %d", f.device.Released)
	}
}

func TestController_QuestionReadyWhileListeningIsDropped(t *testing.T) {
	f := newFixture(t)
	f.toListening(t)

	// A question arriving before the silence event must not corrupt the
	// listening cycle; either ordering has to leave one final answer.
	f.ctrl.HandleInbound(protocol.QuestionReady{
		SessionID:      f.sess.ID,
		Question:       "Next question, too early",
		QuestionNumber: 2,
		TotalQuestions: 3,
	})
	if got := f.ctrl.State(); got != StateListening {
		t.Fatalf("expected Listening to survive early question, got %v", got)
	}

	f.ctrl.StopAnswer()
	if got := f.ctrl.State(); got != StateThinking {
		t.Fatalf("expected Thinking after stop, got %v", got)
	}

	// Re-delivered in Thinking the question is accepted.
	f.ctrl.HandleInbound(protocol.QuestionReady{
		SessionID:      f.sess.ID,
		Question:       "Next question, on time",
		QuestionNumber: 2,
		TotalQuestions: 3,
	})
	if got := f.ctrl.State(); got != StateSpeaking {
		t.Errorf("expected Speaking after question in Thinking, got %v", got)
	}
}

func TestController_CompletionWhileListeningIsSynchronous(t *testing.T) {
	f := newFixture(t)
	f.toListening(t)

	f.ctrl.HandleInbound(protocol.InterviewComplete{
		SessionID: f.sess.ID,
		FinalScores: map[string]float64{
			session.MetricTechnicalDepth: 7.2,
			session.MetricCommunication:  8.1,
		},
		Verdict:   session.VerdictBorderline,
		ReportURL: "https://reports.example.com/r.pdf",
	})

	// Teardown is synchronous: by the time HandleInbound returns the
	// microphone is released and the state is terminal.
	if got := f.ctrl.State(); got != StateCompleted {
		t.Fatalf("expected Completed, got %v", got)
	}
	if f.device.Released != 1 {
		t.Errorf("expected microphone released synchronously, got %d", f.device.Released)
	}
	if f.ctrl.capture.Running() {
		t.Error("expected capture stopped")
	}

	// A mic toggle after completion has no effect.
	f.ctrl.StopAnswer()
	if got := f.ctrl.State(); got != StateCompleted {
		t.Errorf("expected Completed to be terminal, got %v", got)
	}
	if err := f.ctrl.Start(context.Background()); err != ErrCompleted {
		t.Errorf("expected ErrCompleted on restart, got %v", err)
	}

	result := f.sess.Result()
	if result == nil || result.Verdict != session.VerdictBorderline {
		t.Errorf("unexpected session result: %+v", result)
	}

	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()
	if len(f.rec.completed) != 1 {
		t.Errorf("expected one completion notification, got %d", len(f.rec.completed))
	}
}

func TestController_EvaluationRecordedAndForwarded(t *testing.T) {
	f := newFixture(t)
	if err := f.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.ctrl.HandleInbound(protocol.EvaluationUpdate{
		SessionID:             f.sess.ID,
		Scores:                map[string]float64{session.MetricConfidence: 6.5},
		CurrentQuestionNumber: 1,
	})

	if evals := f.sess.Evaluations(); len(evals) != 1 {
		t.Fatalf("expected one recorded evaluation, got %d", len(evals))
	}
	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()
	if len(f.rec.evaluations) != 1 || f.rec.evaluations[0][session.MetricConfidence] != 6.5 {
		t.Errorf("unexpected forwarded evaluations: %+v", f.rec.evaluations)
	}
}

func TestController_ServerErrorLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	f.toListening(t)

	f.ctrl.HandleInbound(protocol.ErrorNotice{
		SessionID:    f.sess.ID,
		ErrorCode:    "TTS_FAILED",
		ErrorMessage: "synthesis backend unavailable",
	})

	if got := f.ctrl.State(); got != StateListening {
		t.Errorf("expected state unchanged on server error, got %v", got)
	}
	f.rec.mu.Lock()
	defer f.rec.mu.Unlock()
	if len(f.rec.errors) != 1 || f.rec.errors[0] != "TTS_FAILED" {
		t.Errorf("unexpected surfaced errors: %v", f.rec.errors)
	}
}

func TestController_EndSendsTerminalMessage(t *testing.T) {
	f := newFixture(t)
	f.toListening(t)

	f.ctrl.End()

	if got := f.ctrl.State(); got != StateCompleted {
		t.Fatalf("expected Completed after end, got %v", got)
	}
	if ends := f.sender.byKind(protocol.TypeEndInterview); len(ends) != 1 {
		t.Errorf("expected one end message, got %d", len(ends))
	}
	if f.device.Released != 1 {
		t.Errorf("expected microphone released, got %d", f.device.Released)
	}
	// End is idempotent.
	f.ctrl.End()
	if ends := f.sender.byKind(protocol.TypeEndInterview); len(ends) != 1 {
		t.Errorf("expected end message not repeated, got %d", len(ends))
	}
}

func TestController_CompletionBeforeStartIsTerminal(t *testing.T) {
	f := newFixture(t)

	// Inbound dispatch begins when the channel connects, which can be
	// before the start command runs. A completion arriving in Idle has
	// to land on Completed, not leave a half-finished session behind.
	f.ctrl.HandleInbound(protocol.InterviewComplete{
		SessionID:   f.sess.ID,
		FinalScores: map[string]float64{session.MetricCommunication: 8.0},
		Verdict:     session.VerdictHire,
	})

	if got := f.ctrl.State(); got != StateCompleted {
		t.Fatalf("expected Completed after completion in Idle, got %v", got)
	}
	result := f.sess.Result()
	if result == nil || result.Verdict != session.VerdictHire {
		t.Errorf("unexpected session result: %+v", result)
	}
	f.rec.mu.Lock()
	completions := len(f.rec.completed)
	f.rec.mu.Unlock()
	if completions != 1 {
		t.Errorf("expected one completion notification, got %d", completions)
	}

	// The session is over: start must refuse and send nothing.
	if err := f.ctrl.Start(context.Background()); err != ErrCompleted {
		t.Errorf("expected ErrCompleted on start after completion, got %v", err)
	}
	if starts := f.sender.byKind(protocol.TypeStartInterview); len(starts) != 0 {
		t.Errorf("expected no start message after completion, got %d", len(starts))
	}
}

func TestController_EndFromIdleIsIdempotent(t *testing.T) {
	f := newFixture(t)

	f.ctrl.End()

	if got := f.ctrl.State(); got != StateCompleted {
		t.Fatalf("expected Completed after end in Idle, got %v", got)
	}
	if ends := f.sender.byKind(protocol.TypeEndInterview); len(ends) != 1 {
		t.Fatalf("expected one end message, got %d", len(ends))
	}

	f.ctrl.End()
	if ends := f.sender.byKind(protocol.TypeEndInterview); len(ends) != 1 {
		t.Errorf("expected end message not repeated, got %d", len(ends))
	}
	if err := f.ctrl.Start(context.Background()); err != ErrCompleted {
		t.Errorf("expected ErrCompleted on start after end, got %v", err)
	}
}

func TestState_TransitionTable(t *testing.T) {
	tests := []struct {
		from    State
		to      State
		allowed bool
	}{
		{StateIdle, StateSetup, true},
		{StateIdle, StateCompleted, true},
		{StateIdle, StateListening, false},
		{StateIdle, StateSpeaking, false},
		{StateSetup, StateSpeaking, true},
		{StateSpeaking, StateListening, true},
		{StateListening, StateThinking, true},
		{StateThinking, StateSpeaking, true},
		{StateSetup, StateCompleted, true},
		{StateSpeaking, StateCompleted, true},
		{StateListening, StateCompleted, true},
		{StateThinking, StateCompleted, true},
		{StateCompleted, StateSetup, false},
		{StateCompleted, StateIdle, false},
		{StateListening, StateSpeaking, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%v -> %v: expected %v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "IDLE"},
		{StateSetup, "SETUP"},
		{StateSpeaking, "SPEAKING"},
		{StateListening, "LISTENING"},
		{StateThinking, "THINKING"},
		{StateCompleted, "COMPLETED"},
		{State(42), "UNKNOWN(42)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
