package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"live-caption-room-service/internal/audio"
	"live-caption-room-service/internal/ingest"
	"live-caption-room-service/internal/models"
	"live-caption-room-service/internal/observability/metrics"
	"live-caption-room-service/internal/room"
	"live-caption-room-service/internal/stt"
	translatemock "live-caption-room-service/internal/translate/mock"
)

// fixedTranscriber always returns the same single-word hypothesis.
type fixedTranscriber struct{}

func (fixedTranscriber) Transcribe(context.Context, []float32, string) (stt.Result, error) {
	return stt.Result{
		Text:  " hi",
		Words: []stt.Word{{Start: 0, End: 0.3, Text: " hi"}},
	}, nil
}

func newTestServer(t *testing.T) (*Server, *room.Registry, *httptest.Server) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	rooms := room.NewRegistry(m, room.DefaultOptions())
	t.Cleanup(rooms.Close)

	pipeline := ingest.NewPipeline(rooms, fixedTranscriber{}, translatemock.New(), nil, m)
	s := NewServer(rooms, pipeline, translatemock.Languages, ingest.SessionOptions{
		SampleRate:   1000,
		MinChunk:     50 * time.Millisecond,
		SilenceFlush: 150 * time.Millisecond,
		VADThreshold: 0.05,
	}, reg)

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return s, rooms, srv
}

func postJSON(t *testing.T, url string) map[string]string {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestCreateAndInspectRoom(t *testing.T) {
	_, _, srv := newTestServer(t)

	created := postJSON(t, srv.URL+"/rooms")
	id := created["room_id"]
	if !regexp.MustCompile(`^\d{4}$`).MatchString(id) {
		t.Fatalf("unexpected room id %q", id)
	}

	resp, err := http.Get(srv.URL + "/rooms/" + id)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET room returned %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/rooms")
	if err != nil {
		t.Fatal(err)
	}
	var listing map[string][]string
	json.NewDecoder(resp.Body).Decode(&listing)
	resp.Body.Close()
	found := false
	for _, got := range listing["rooms"] {
		if got == id {
			found = true
		}
	}
	if !found {
		t.Errorf("room %s missing from listing %v", id, listing["rooms"])
	}
}

func TestGetRoom_Unknown(t *testing.T) {
	_, _, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/rooms/none")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListLanguages(t *testing.T) {
	_, _, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/languages")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out struct {
		Languages []struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"languages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Languages) == 0 || out.Languages[0].Code != "DE" {
		t.Errorf("unexpected languages %+v", out.Languages)
	}
}

func TestSubmitAudio_UnknownRoom(t *testing.T) {
	_, _, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/rooms/none?is_utterance=true", "application/octet-stream", bytes.NewReader(make([]byte, 320)))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestEvents_RejectsEmptySubscription(t *testing.T) {
	_, _, srv := newTestServer(t)
	id := postJSON(t, srv.URL+"/rooms")["room_id"]

	resp, err := http.Get(srv.URL + "/rooms/" + id + "/events?no_transcriptions=1")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestEvents_DeliversSubmittedUtterance(t *testing.T) {
	_, _, srv := newTestServer(t)
	id := postJSON(t, srv.URL+"/rooms")["room_id"]

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/rooms/"+id+"/events?target_lang=DE", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}

	post, err := http.Post(srv.URL+"/rooms/"+id+"?is_utterance=true", "application/octet-stream", bytes.NewReader(make([]byte, 320)))
	if err != nil {
		t.Fatal(err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusAccepted {
		t.Fatalf("submit returned %d", post.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	var events []string
	var payloads []models.Message
	for scanner.Scan() && len(payloads) < 2 {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
		if strings.HasPrefix(line, "data: ") {
			var m models.Message
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &m); err != nil {
				t.Fatal(err)
			}
			payloads = append(payloads, m)
		}
	}

	if len(events) != 2 || events[0] != models.KindTranscription || events[1] != models.KindTranslation {
		t.Fatalf("unexpected event tags %v", events)
	}

	tc := payloads[0]
	if tc.Committed == nil || *tc.Committed != " hi" {
		t.Errorf("unexpected transcription %+v", tc)
	}
	tn := payloads[1]
	if tn.LanguageCode != "DE" || tn.Volatile == nil || *tn.Volatile != "[DE]  hi" {
		t.Errorf("unexpected translation %+v", tn)
	}
	if tc.UtteranceID != tn.UtteranceID {
		t.Error("translation does not carry the transcription's utterance id")
	}
}

func TestStream_ProducerWebSocket(t *testing.T) {
	_, rooms, srv := newTestServer(t)
	id := postJSON(t, srv.URL+"/rooms")["room_id"]

	q, err := rooms.Subscribe(id, "listener", nil, true)
	if err != nil {
		t.Fatal(err)
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/rooms/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	loud := make([]float32, 50)
	for i := range loud {
		if i%2 == 0 {
			loud[i] = 0.25
		} else {
			loud[i] = -0.25
		}
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, audio.EncodePCM16(loud)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 30; i++ {
		if err := conn.WriteMessage(websocket.BinaryMessage, make([]byte, 100)); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case m := <-q:
			if m.Committed != nil {
				if *m.Committed != " hi" {
					t.Fatalf("unexpected committed text %q", *m.Committed)
				}
				return
			}
		case <-deadline:
			t.Fatal("no committed utterance arrived over the websocket path")
		}
	}
}
