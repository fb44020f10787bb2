// Package session holds the per-interview session record: identity,
// configured job parameters, question progress, the transcript of
// delivered answers, and evaluation results mirrored from the scoring
// service.
package session

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Metric names used in evaluation score maps.
const (
	MetricTechnicalDepth  = "technical_depth"
	MetricCommunication   = "communication"
	MetricConfidence      = "confidence"
	MetricLogicalThinking = "logical_thinking"
	MetricProblemSolving  = "problem_solving"
	MetricCultureFit      = "culture_fit"
)

// Verdict values reported on interview completion.
const (
	VerdictHire       = "Hire"
	VerdictBorderline = "Borderline"
	VerdictNoHire     = "No-Hire"
)

// Answer is one finalized transcript delivered for a question.
type Answer struct {
	QuestionNumber int
	Question       string
	Transcript     string
	DeliveredAt    time.Time
}

// Evaluation is a per-question score snapshot from the scoring service.
type Evaluation struct {
	QuestionNumber int
	Scores         map[string]float64
	ReceivedAt     time.Time
}

// Result is the terminal interview outcome.
type Result struct {
	FinalScores map[string]float64
	Verdict     string
	ReportURL   string
}

// Session is the record for one interview run.
type Session struct {
	ID             string
	JobRole        string
	JobDescription string
	QuestionCount  int
	StartedAt      time.Time

	mu              sync.Mutex
	currentQuestion int
	totalQuestions  int
	questionText    string
	answers         []Answer
	evaluations     []Evaluation
	result          *Result
}

// New creates a session with a fresh ULID identifier.
func New(jobRole, jobDescription string, questionCount int) *Session {
	return &Session{
		ID:             ulid.Make().String(),
		JobRole:        jobRole,
		JobDescription: jobDescription,
		QuestionCount:  questionCount,
		StartedAt:      time.Now().UTC(),
	}
}

// SetQuestion records the question the interviewer is currently asking.
func (s *Session) SetQuestion(number, total int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentQuestion = number
	s.totalQuestions = total
	s.questionText = text
}

// Progress returns the current and total question numbers.
func (s *Session) Progress() (current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentQuestion, s.totalQuestions
}

// CurrentQuestion returns the question text being answered.
func (s *Session) CurrentQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionText
}

// RecordAnswer appends the finalized transcript for the current question.
func (s *Session) RecordAnswer(transcript string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, Answer{
		QuestionNumber: s.currentQuestion,
		Question:       s.questionText,
		Transcript:     transcript,
		DeliveredAt:    time.Now().UTC(),
	})
}

// RecordEvaluation appends a per-question score snapshot.
func (s *Session) RecordEvaluation(questionNumber int, scores map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluations = append(s.evaluations, Evaluation{
		QuestionNumber: questionNumber,
		Scores:         scores,
		ReceivedAt:     time.Now().UTC(),
	})
}

// Complete stores the terminal interview outcome.
func (s *Session) Complete(finalScores map[string]float64, verdict, reportURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = &Result{
		FinalScores: finalScores,
		Verdict:     verdict,
		ReportURL:   reportURL,
	}
}

// Answers returns a copy of the recorded answers.
func (s *Session) Answers() []Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

// Evaluations returns a copy of the recorded score snapshots.
func (s *Session) Evaluations() []Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Evaluation, len(s.evaluations))
	copy(out, s.evaluations)
	return out
}

// Result returns the terminal outcome, or nil while in progress.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
