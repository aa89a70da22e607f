// audioclient streams a WAV file into a room at real-time pacing, chunk by
// chunk over HTTP, marking the last chunk as an utterance boundary.
package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Standard PCM WAV header is 44 bytes.
const wavHeaderSize = 44

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "path to WAV file (16-bit mono PCM)")
	serverURL := flag.String("server", "http://localhost:8080", "service base URL")
	roomID := flag.String("room", "", "room id (empty to create a new room)")
	chunkMs := flag.Int("chunk-ms", 1000, "chunk duration in milliseconds")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("failed to read WAV header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)
	if audioFormat != 1 || bitsPerSample != 16 || numChannels != 1 {
		log.Fatal("only 16-bit mono PCM supported")
	}

	if *roomID == "" {
		*roomID = createRoom(*serverURL)
		log.Printf("created room %s", *roomID)
	}

	chunkBytes := int(sampleRate) * 2 * *chunkMs / 1000
	chunk := make([]byte, chunkBytes)
	ticker := time.NewTicker(time.Duration(*chunkMs) * time.Millisecond)
	defer ticker.Stop()

	var pending []byte
	var sent int
	for {
		n, err := f.Read(chunk)
		if n > 0 {
			if pending != nil {
				submit(*serverURL, *roomID, pending, false)
				sent++
				<-ticker.C
			}
			pending = append([]byte(nil), chunk[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("failed to read audio: %v", err)
		}
	}

	// The last chunk closes the utterance.
	if pending != nil {
		submit(*serverURL, *roomID, pending, true)
		sent++
	}
	log.Printf("done: %d chunks sent to room %s", sent, *roomID)
}

func createRoom(serverURL string) string {
	resp, err := http.Post(serverURL+"/rooms", "application/json", nil)
	if err != nil {
		log.Fatalf("failed to create room: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("create room returned %d", resp.StatusCode)
	}

	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("failed to decode create response: %v", err)
	}
	return out["room_id"]
}

func submit(serverURL, roomID string, chunk []byte, isUtterance bool) {
	url := fmt.Sprintf("%s/rooms/%s?is_utterance=%t", serverURL, roomID, isUtterance)
	resp, err := http.Post(url, "application/octet-stream", bytes.NewReader(chunk))
	if err != nil {
		log.Fatalf("failed to submit chunk: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		log.Fatalf("submit returned %d", resp.StatusCode)
	}
}
