package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"greensys-quiz-service/internal/domain"
	"greensys-quiz-service/internal/infra/memory"
	"greensys-quiz-service/internal/quiz"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "group-1", "token-1")
	defer conn.Close()

	payload := readUntil(conn, t, "instructions")
	if payload["judul"] != "Kuis Uji" || payload["jumlahSoal"] != float64(2) {
		t.Fatalf("unexpected instructions: %+v", payload)
	}

	writeMsg(conn, t, map[string]any{"type": "start"})
	state := readUntil(conn, t, "state")
	for state["state"] != "active" {
		state = readUntil(conn, t, "state")
	}

	writeMsg(conn, t, map[string]any{"type": "answer", "payload": map[string]any{"soalId": "soal-1", "pilihan": "B"}})
	writeMsg(conn, t, map[string]any{"type": "next"})
	writeMsg(conn, t, map[string]any{"type": "answer", "payload": map[string]any{"soalId": "soal-2", "pilihan": "A"}})
	writeMsg(conn, t, map[string]any{"type": "finish"})

	completed := readUntil(conn, t, "completed")
	if completed["nilaiId"] == "" || completed["nilaiId"] == nil {
		t.Fatalf("expected issued nilai id, got %+v", completed)
	}
	result, ok := completed["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result payload, got %+v", completed)
	}
	// soal-1 answered B (correct), soal-2 answered A (wrong): 1/2 = 50.
	if result["skor"] != float64(50) || result["jumlahJawabanBenar"] != float64(1) {
		t.Fatalf("unexpected result: %+v", result)
	}

	// The issued id resolves on the result passthrough route.
	nilaiID, _ := completed["nilaiId"].(string)
	req, _ := http.NewRequest(http.MethodGet, server.URL+"/result/"+nilaiID, nil)
	req.Header.Set("Authorization", "Bearer token-1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from result route, got %d", resp.StatusCode)
	}
	var stored domain.StoredResult
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		t.Fatalf("decode stored result: %v", err)
	}
	if stored.Skor != 50 || stored.SiswaID != "siswa-1" {
		t.Fatalf("unexpected stored result: %+v", stored)
	}
}

func TestWebSocketRejectsUnknownGroup(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "group-missing", "token-1")
	defer conn.Close()

	payload := readUntil(conn, t, "error")
	if payload["category"] != "not_found" {
		t.Fatalf("expected not_found error, got %+v", payload)
	}
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	server, _ := newTestServer(t)
	defer server.Close()

	conn := dial(t, server, "group-1", "bogus")
	defer conn.Close()

	payload := readUntil(conn, t, "error")
	if payload["category"] != "auth" {
		t.Fatalf("expected auth error, got %+v", payload)
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.StaticSource) {
	t.Helper()
	a, b := "3", "4"
	static := memory.NewStaticSource(map[string]domain.QuizPayload{
		"group-1": {
			Group: domain.QuizGroup{ID: "group-1", Title: "Kuis Uji", DurationMinutes: 5},
			Questions: []domain.Question{
				{ID: "soal-1", Prompt: "2+2?", OptionA: &a, OptionB: &b, Answer: "B"},
				{ID: "soal-2", Prompt: "3+3?", OptionA: &a, OptionB: &b, Answer: "B"},
			},
		},
	}, map[string]domain.Student{
		"token-1": {ID: "siswa-1", Name: "Budi"},
	})

	loader := quiz.NewLoader(memory.NewGroupCache(static, time.Minute), static)
	handler := NewSessionHandler(loader, quiz.NewSubmitter(static))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	mux.Handle("/result/", NewResultHandler(static))
	return httptest.NewServer(mux), static
}

func dial(t *testing.T, server *httptest.Server, groupID, token string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?groupId=" + groupID + "&token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func writeMsg(conn *websocket.Conn, t *testing.T, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}

// readUntil skips unrelated events (ticks, interleaved state updates)
// until a message of the wanted type arrives.
func readUntil(conn *websocket.Conn, t *testing.T, want string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read waiting for %s: %v", want, err)
		}
		if msg.Type == want {
			return msg.Payload
		}
	}
}
