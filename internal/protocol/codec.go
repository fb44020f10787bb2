package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors for payloads that cannot be dispatched. Both are non-fatal for
// the channel: the payload is dropped and reported, the connection stays up.
var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUnknownKind      = errors.New("unknown message kind")
)

// envelope is the minimal probe used to read the discriminator.
type envelope struct {
	Type MessageType `json:"type"`
}

// EncodeOutbound serializes a client message. The "type" field is stamped
// from the concrete kind so callers never have to set it by hand.
func EncodeOutbound(msg Outbound) ([]byte, error) {
	switch m := msg.(type) {
	case StartInterview:
		m.Type = TypeStartInterview
		return json.Marshal(m)
	case Transcribe:
		m.Type = TypeTranscribe
		return json.Marshal(m)
	case SilenceDetected:
		m.Type = TypeSilenceDetected
		return json.Marshal(m)
	case EndInterview:
		m.Type = TypeEndInterview
		return json.Marshal(m)
	case Ping:
		m.Type = TypePing
		return json.Marshal(m)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, msg)
	}
}

// EncodeInbound serializes a service message. Used by test fixtures and
// the development echo server.
func EncodeInbound(msg Inbound) ([]byte, error) {
	switch m := msg.(type) {
	case QuestionReady:
		m.Type = TypeQuestionReady
		return json.Marshal(m)
	case TTSAudio:
		m.Type = TypeTTSAudio
		return json.Marshal(m)
	case EvaluationUpdate:
		m.Type = TypeEvaluationUpdate
		return json.Marshal(m)
	case InterviewComplete:
		m.Type = TypeInterviewComplete
		return json.Marshal(m)
	case ErrorNotice:
		m.Type = TypeError
		return json.Marshal(m)
	case StateUpdate:
		m.Type = TypeStateUpdate
		return json.Marshal(m)
	case Pong:
		m.Type = TypePong
		return json.Marshal(m)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownKind, msg)
	}
}

// DecodeInbound parses a service payload and returns the concrete message.
// A payload that fails to parse or carries an unrecognized "type" returns
// ErrMalformedPayload / ErrUnknownKind respectively.
func DecodeInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch env.Type {
	case TypeQuestionReady:
		return decodeAs[QuestionReady](data)
	case TypeTTSAudio:
		return decodeAs[TTSAudio](data)
	case TypeEvaluationUpdate:
		return decodeAs[EvaluationUpdate](data)
	case TypeInterviewComplete:
		return decodeAs[InterviewComplete](data)
	case TypeError:
		return decodeAs[ErrorNotice](data)
	case TypeStateUpdate:
		return decodeAs[StateUpdate](data)
	case TypePong:
		return decodeAs[Pong](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
}

// DecodeOutbound parses a client payload. Used by the echo server and tests.
func DecodeOutbound(data []byte) (Outbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	switch env.Type {
	case TypeStartInterview:
		return decodeOutAs[StartInterview](data)
	case TypeTranscribe:
		return decodeOutAs[Transcribe](data)
	case TypeSilenceDetected:
		return decodeOutAs[SilenceDetected](data)
	case TypeEndInterview:
		return decodeOutAs[EndInterview](data)
	case TypePing:
		return decodeOutAs[Ping](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Type)
	}
}

func decodeAs[T Inbound](data []byte) (Inbound, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return m, nil
}

func decodeOutAs[T Outbound](data []byte) (Outbound, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return m, nil
}
