// Package protocol defines the JSON wire messages exchanged with the
// interview orchestration service over the session channel.
package protocol

import "time"

// MessageType is the wire discriminator carried in the "type" field.
type MessageType string

// Client → service message types.
const (
	TypeStartInterview  MessageType = "START_INTERVIEW"
	TypeTranscribe      MessageType = "TRANSCRIBE"
	TypeSilenceDetected MessageType = "SILENCE_DETECTED"
	TypeEndInterview    MessageType = "END_INTERVIEW"
	TypePing            MessageType = "PING"
)

// Service → client message types.
const (
	TypeQuestionReady     MessageType = "QUESTION_READY"
	TypeTTSAudio          MessageType = "TTS_AUDIO"
	TypeEvaluationUpdate  MessageType = "EVALUATION_UPDATE"
	TypeInterviewComplete MessageType = "INTERVIEW_COMPLETE"
	TypeError             MessageType = "ERROR"
	TypeStateUpdate       MessageType = "STATE_UPDATE"
	TypePong              MessageType = "PONG"
)

// Outbound is the closed set of client → service messages.
// The marker method forces every consumer switch to name each kind.
type Outbound interface {
	outbound()
	MessageType() MessageType
}

// Inbound is the closed set of service → client messages.
type Inbound interface {
	inbound()
	MessageType() MessageType
}

// StartInterview initializes a session with the job parameters.
type StartInterview struct {
	Type           MessageType `json:"type"`
	SessionID      string      `json:"session_id"`
	JobRole        string      `json:"job_role"`
	JobDescription string      `json:"job_description"`
	QuestionCount  int         `json:"question_count"`
	Timestamp      *time.Time  `json:"timestamp,omitempty"`
}

// Transcribe carries an interim or final transcript chunk.
type Transcribe struct {
	Type       MessageType `json:"type"`
	SessionID  string      `json:"session_id"`
	Transcript string      `json:"transcript"`
	IsFinal    bool        `json:"is_final"`
	Timestamp  *time.Time  `json:"timestamp,omitempty"`
}

// SilenceDetected notifies the service that the answer has ended.
type SilenceDetected struct {
	Type            MessageType `json:"type"`
	SessionID       string      `json:"session_id"`
	DurationSeconds float64     `json:"duration_seconds"`
	Timestamp       *time.Time  `json:"timestamp,omitempty"`
}

// EndInterview terminates the session from the client side.
type EndInterview struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
}

// Ping is the channel keepalive. No ack is required for liveness.
type Ping struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
}

// QuestionReady announces the next question text and position.
type QuestionReady struct {
	Type           MessageType `json:"type"`
	SessionID      string      `json:"session_id"`
	Question       string      `json:"question"`
	QuestionNumber int         `json:"question_number"`
	TotalQuestions int         `json:"total_questions"`
	Timestamp      *time.Time  `json:"timestamp,omitempty"`
}

// TTSAudio carries synthesized question audio, base64 encoded.
type TTSAudio struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	AudioBase64 string      `json:"audio_base64"`
	AudioFormat string      `json:"audio_format"`
	QuestionID  string      `json:"question_id,omitempty"`
	Timestamp   *time.Time  `json:"timestamp,omitempty"`
}

// EvaluationUpdate is a per-answer score snapshot from the service.
type EvaluationUpdate struct {
	Type                  MessageType        `json:"type"`
	SessionID             string             `json:"session_id"`
	Scores                map[string]float64 `json:"scores"`
	CurrentQuestionNumber int                `json:"current_question_number"`
	Timestamp             *time.Time         `json:"timestamp,omitempty"`
}

// InterviewComplete is terminal: final scores, verdict and optional report link.
type InterviewComplete struct {
	Type        MessageType        `json:"type"`
	SessionID   string             `json:"session_id"`
	FinalScores map[string]float64 `json:"final_scores"`
	Verdict     string             `json:"verdict"`
	ReportURL   string             `json:"report_url,omitempty"`
	Timestamp   *time.Time         `json:"timestamp,omitempty"`
}

// ErrorNotice reports a service-side failure for the session.
type ErrorNotice struct {
	Type         MessageType `json:"type"`
	SessionID    string      `json:"session_id"`
	ErrorCode    string      `json:"error_code"`
	ErrorMessage string      `json:"error_message"`
	Timestamp    *time.Time  `json:"timestamp,omitempty"`
}

// StateUpdate mirrors the service's interview state machine.
type StateUpdate struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	State     string      `json:"state"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
}

// Pong is the service's reply to a Ping.
type Pong struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
}

func (StartInterview) outbound()  {}
func (Transcribe) outbound()      {}
func (SilenceDetected) outbound() {}
func (EndInterview) outbound()    {}
func (Ping) outbound()            {}

func (StartInterview) MessageType() MessageType  { return TypeStartInterview }
func (Transcribe) MessageType() MessageType      { return TypeTranscribe }
func (SilenceDetected) MessageType() MessageType { return TypeSilenceDetected }
func (EndInterview) MessageType() MessageType    { return TypeEndInterview }
func (Ping) MessageType() MessageType            { return TypePing }

func (QuestionReady) inbound()     {}
func (TTSAudio) inbound()          {}
func (EvaluationUpdate) inbound()  {}
func (InterviewComplete) inbound() {}
func (ErrorNotice) inbound()       {}
func (StateUpdate) inbound()       {}
func (Pong) inbound()              {}

func (QuestionReady) MessageType() MessageType     { return TypeQuestionReady }
func (TTSAudio) MessageType() MessageType          { return TypeTTSAudio }
func (EvaluationUpdate) MessageType() MessageType  { return TypeEvaluationUpdate }
func (InterviewComplete) MessageType() MessageType { return TypeInterviewComplete }
func (ErrorNotice) MessageType() MessageType       { return TypeError }
func (StateUpdate) MessageType() MessageType       { return TypeStateUpdate }
func (Pong) MessageType() MessageType              { return TypePong }
