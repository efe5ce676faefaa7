package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"greensys-quiz-service/internal/domain"
	"greensys-quiz-service/internal/quiz"
)

// SessionHandler hosts one quiz attempt per WebSocket connection. The
// session dies with the connection: closing the socket tears the attempt
// down, stops its clock, and discards any in-flight submit response.
type SessionHandler struct {
	loader    *quiz.Loader
	submitter *quiz.Submitter
	upgrader  websocket.Upgrader
}

func NewSessionHandler(loader *quiz.Loader, submitter *quiz.Submitter) *SessionHandler {
	return &SessionHandler{
		loader:    loader,
		submitter: submitter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	SoalID  string `json:"soalId"`
	Pilihan string `json:"pilihan"`
}

type jumpPayload struct {
	Index int `json:"index"`
}

type instructionsPayload struct {
	Judul      string `json:"judul"`
	Durasi     int    `json:"durasi"`
	JumlahSoal int    `json:"jumlahSoal"`
	Siswa      string `json:"siswa"`
}

type tickPayload struct {
	SisaWaktu int `json:"sisaWaktu"`
}

type completedPayload struct {
	NilaiID string             `json:"nilaiId"`
	Result  *domain.QuizResult `json:"result"`
}

type failedPayload struct {
	Message string             `json:"message"`
	Result  *domain.QuizResult `json:"result"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// ServeWS upgrades the request and runs one attempt end to end.
func (h *SessionHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	groupID := r.URL.Query().Get("groupId")
	token := bearerToken(r)
	if groupID == "" || token == "" {
		http.Error(w, "missing groupId or token", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	att, err := h.loader.Load(r.Context(), token, groupID)
	if err != nil {
		// Load-time errors abort before Instructions; the client shows
		// them with a retreat back to the quiz list.
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: asErrorPayload(err)})
		return
	}

	session := quiz.NewSession(att, h.submitter, token)
	defer session.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- translateEvent(ev):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "instructions", Payload: instructionsPayload{
		Judul:      att.Group.Title,
		Durasi:     att.Group.DurationMinutes,
		JumlahSoal: len(att.Questions),
		Siswa:      att.Student.Name,
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(session, inbound); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: asErrorPayload(err)}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *SessionHandler) dispatch(session *quiz.Session, inbound inboundMessage) error {
	switch inbound.Type {
	case "start":
		return session.Begin()
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errors.New("invalid answer payload")
		}
		return session.SelectAnswer(payload.SoalID, payload.Pilihan)
	case "next":
		return session.Next()
	case "previous":
		return session.Previous()
	case "jump":
		var payload jumpPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errors.New("invalid jump payload")
		}
		return session.JumpTo(payload.Index)
	case "finish":
		// Background context: closing the socket must not cancel a
		// submission that is already on the wire.
		err := session.Finish(context.Background())
		if errors.Is(err, quiz.ErrNotActive) {
			// Expiry beat the user to it; the terminal event already
			// tells the client where it ended up.
			return nil
		}
		return err
	default:
		return errors.New("unsupported message type")
	}
}

func translateEvent(ev quiz.Event) outboundMessage[any] {
	switch ev.Type {
	case quiz.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: tickPayload{SisaWaktu: ev.Remaining}}
	case quiz.EventCompleted:
		return outboundMessage[any]{Type: "completed", Payload: completedPayload{NilaiID: ev.NilaiID, Result: ev.Result}}
	case quiz.EventFailed:
		return outboundMessage[any]{Type: "failed", Payload: failedPayload{Message: ev.Message, Result: ev.Result}}
	default:
		return outboundMessage[any]{Type: "state", Payload: ev.Snapshot}
	}
}

// asErrorPayload attaches the error category so the client can route:
// auth errors go to re-login, not-found retreats to the quiz list.
func asErrorPayload(err error) errorPayload {
	return errorPayload{Message: err.Error(), Category: categorize(err)}
}

func categorize(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuth):
		return "auth"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	case errors.Is(err, domain.ErrServer):
		return "server"
	default:
		return "session"
	}
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// Browsers cannot set headers on WebSocket dials, so the token also
	// rides a query parameter.
	return r.URL.Query().Get("token")
}
