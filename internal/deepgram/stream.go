package deepgram

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/rbright/rehearse/internal/recognition"
)

// message is the subset of Deepgram's live response we consume.
type message struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	IsFinal bool `json:"is_final"`
}

type stream struct {
	conn    *websocket.Conn
	capture pcmSource
	sink    recognition.Sink
	logger  *slog.Logger

	writeMu   sync.Mutex
	closing   atomic.Bool
	closeOnce sync.Once
	errOnce   sync.Once
	readDone  chan struct{}
}

func newStream(conn *websocket.Conn, capture pcmSource, sink recognition.Sink, logger *slog.Logger) *stream {
	return &stream{
		conn:     conn,
		capture:  capture,
		sink:     sink,
		logger:   logger,
		readDone: make(chan struct{}),
	}
}

// Close ends the stream. It does not wait for the reader, so it is safe to
// call from a sink callback.
func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		_ = s.capture.Stop()

		s.writeMu.Lock()
		_ = s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type": "CloseStream"}`))
		s.writeMu.Unlock()

		err = s.conn.Close()
	})
	return err
}

func (s *stream) readLoop() {
	defer close(s.readDone)

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closing.Load() {
				s.fail(classifyRead(err))
			}
			return
		}
		s.handle(payload)
	}
}

func (s *stream) handle(payload []byte) {
	var msg message
	if err := json.Unmarshal(payload, &msg); err != nil {
		s.debug("ignore malformed deepgram message", "error", err.Error())
		return
	}

	switch msg.Type {
	case "Results":
		if len(msg.Channel.Alternatives) == 0 {
			return
		}
		transcript := msg.Channel.Alternatives[0].Transcript
		if transcript == "" {
			return
		}
		s.sink.Result(recognition.Result{Transcript: transcript, Final: msg.IsFinal})
	case "UtteranceEnd":
		s.debug("deepgram utterance end")
	}
}

func (s *stream) pumpAudio() {
	for chunk := range s.capture.Chunks() {
		s.writeMu.Lock()
		err := s.conn.WriteMessage(websocket.BinaryMessage, chunk)
		s.writeMu.Unlock()
		if err != nil {
			if !s.closing.Load() {
				s.fail(fmt.Errorf("%w: send audio: %w", recognition.ErrNetwork, err))
			}
			return
		}
	}
}

func (s *stream) fail(err error) {
	s.errOnce.Do(func() {
		s.sink.Error(err)
	})
}

func (s *stream) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func classifyRead(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code == websocket.ClosePolicyViolation {
		return fmt.Errorf("deepgram closed the stream: %w", err)
	}
	return fmt.Errorf("%w: read deepgram socket: %w", recognition.ErrNetwork, err)
}
