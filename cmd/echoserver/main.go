// Development companion server: speaks the interview wire protocol with
// canned questions so the client can run end to end without the real
// interview backend.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ai-interview-voice-core/internal/protocol"
	"ai-interview-voice-core/internal/session"
)

var questions = []string{
	"Tell me about a project you are most proud of.",
	"Describe a production incident you debugged end to end.",
	"How do you approach designing an API for a new service?",
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	r := chi.NewRouter()
	r.Get("/ws/{sessionID}", handleSession)

	log.Info().Str("addr", *addr).Msg("Echo interview server listening")
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Upgrade failed")
		return
	}
	defer conn.Close()

	log.Info().Str("session_id", sessionID).Msg("Session connected")
	s := &interviewSim{conn: conn, sessionID: sessionID}
	s.run()
}

type interviewSim struct {
	conn      *websocket.Conn
	sessionID string
	question  int
	scores    []map[string]float64
}

func (s *interviewSim) run() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			log.Info().Str("session_id", s.sessionID).Msg("Session disconnected")
			return
		}
		msg, err := protocol.DecodeOutbound(data)
		if err != nil {
			log.Warn().Err(err).Msg("Undecodable message, dropped")
			continue
		}
		if !s.handle(msg) {
			return
		}
	}
}

// handle processes one client message; returns false once the interview
// is complete.
func (s *interviewSim) handle(msg protocol.Outbound) bool {
	switch m := msg.(type) {
	case protocol.StartInterview:
		log.Info().Str("job_role", m.JobRole).Int("questions", m.QuestionCount).Msg("Interview started")
		s.sendState("SETUP")
		s.askNext()
	case protocol.Transcribe:
		if !m.IsFinal {
			return true
		}
		log.Info().Str("transcript", m.Transcript).Msg("Answer received")
		s.sendState("EVALUATE")
		s.evaluate(m.Transcript)
		if s.question >= len(questions) {
			s.complete()
			return false
		}
		s.askNext()
	case protocol.SilenceDetected:
		log.Info().Float64("duration_s", m.DurationSeconds).Msg("Silence reported")
	case protocol.EndInterview:
		s.complete()
		return false
	case protocol.Ping:
		s.send(protocol.Pong{SessionID: s.sessionID})
	}
	return true
}

func (s *interviewSim) askNext() {
	s.question++
	q := questions[s.question-1]
	s.sendState("ASK_QUESTION")
	s.send(protocol.QuestionReady{
		SessionID:      s.sessionID,
		Question:       q,
		QuestionNumber: s.question,
		TotalQuestions: len(questions),
	})
	s.sendState("PLAY_TTS")
	s.send(protocol.TTSAudio{
		SessionID:   s.sessionID,
		AudioBase64: base64.StdEncoding.EncodeToString(fakeClip(s.question)),
		AudioFormat: "mp3",
		QuestionID:  fmt.Sprintf("q-%d", s.question),
	})
}

func (s *interviewSim) evaluate(answer string) {
	// Longer answers score a little higher, which makes the canned
	// evaluation feel responsive during demos.
	base := 5.0
	if len(answer) > 40 {
		base = 7.0
	}
	scores := map[string]float64{
		session.MetricTechnicalDepth:  base + 0.5,
		session.MetricCommunication:   base + 1.0,
		session.MetricConfidence:      base,
		session.MetricLogicalThinking: base + 0.3,
		session.MetricProblemSolving:  base + 0.7,
		session.MetricCultureFit:      base + 0.9,
	}
	s.scores = append(s.scores, scores)
	s.send(protocol.EvaluationUpdate{
		SessionID:             s.sessionID,
		Scores:                scores,
		CurrentQuestionNumber: s.question,
	})
}

func (s *interviewSim) complete() {
	finals := map[string]float64{}
	for _, scores := range s.scores {
		for metric, score := range scores {
			finals[metric] += score
		}
	}
	var overall float64
	if n := len(s.scores); n > 0 {
		for metric := range finals {
			finals[metric] /= float64(n)
			overall += finals[metric]
		}
		overall /= float64(len(finals))
	}

	verdict := session.VerdictNoHire
	switch {
	case overall >= 7.0:
		verdict = session.VerdictHire
	case overall >= 5.0:
		verdict = session.VerdictBorderline
	}

	s.sendState("COMPLETED")
	s.send(protocol.InterviewComplete{
		SessionID:   s.sessionID,
		FinalScores: finals,
		Verdict:     verdict,
		ReportURL:   "http://localhost:8000/reports/" + s.sessionID + ".pdf",
	})
	log.Info().Str("verdict", verdict).Msg("Interview complete")
}

func (s *interviewSim) sendState(state string) {
	s.send(protocol.StateUpdate{SessionID: s.sessionID, State: state})
}

func (s *interviewSim) send(msg protocol.Inbound) {
	data, err := protocol.EncodeInbound(msg)
	if err != nil {
		log.Error().Err(err).Msg("Encode failed")
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Warn().Err(err).Msg("Write failed")
	}
}

// fakeClip returns a short placeholder payload; the timed player on the
// client side turns its length into playback duration.
func fakeClip(question int) []byte {
	clip := make([]byte, 8000*question)
	for i := range clip {
		clip[i] = byte(i % 251)
	}
	return clip
}
