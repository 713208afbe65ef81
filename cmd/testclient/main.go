// Command testclient spawns the sidecar and exercises the JSON stdio
// protocol end to end: health check, the meeting lifecycle, speaker
// identification and fusion.
package main

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
)

func main() {
	binary := flag.String("binary", "./meeting-assistant-sidecar", "path to the sidecar binary")
	flag.Parse()

	cmd := exec.Command(*binary)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Fatalf("stdin pipe: %v", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Fatalf("stdout pipe: %v", err)
	}
	if err := cmd.Start(); err != nil {
		log.Fatalf("failed to start sidecar: %v", err)
	}

	reader := bufio.NewReader(stdout)
	send := func(msg string) string {
		log.Printf("-> %s", msg)
		if _, err := fmt.Fprintln(stdin, msg); err != nil {
			log.Fatalf("write: %v", err)
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("read response: %v", err)
		}
		log.Printf("<- %s", line)
		return line
	}

	send(`{"type":"health"}`)

	started := send(`{"type":"start_meeting","title":"testclient run"}`)
	var meeting struct {
		MeetingID string `json:"meeting_id"`
	}
	if err := json.Unmarshal([]byte(started), &meeting); err != nil || meeting.MeetingID == "" {
		log.Fatalf("no meeting_id in start_meeting response: %v", err)
	}

	audio := base64.StdEncoding.EncodeToString([]byte("fake-audio-bytes"))
	send(fmt.Sprintf(`{"type":"transcribe_chunk","audio_base64":%q}`, audio))

	send(`{"type":"diarize","audio_path":"/tmp/meeting.wav"}`)

	send(fmt.Sprintf(`{"type":"identify_speakers","embeddings":{"SPEAKER_00":[1,0,0,0,0,0,0,0]},"meeting_id":%q}`, meeting.MeetingID))

	send(fmt.Sprintf(`{"type":"fuse_transcript",`+
		`"turns":[{"speaker":"SPEAKER_00","start":0,"end":5}],`+
		`"segments":[{"text":"hello world","start":1,"end":2}],`+
		`"meeting_id":%q}`, meeting.MeetingID))

	send(fmt.Sprintf(`{"type":"end_meeting","meeting_id":%q}`, meeting.MeetingID))

	stdin.Close()
	if err := cmd.Wait(); err != nil {
		log.Fatalf("sidecar exited with error: %v", err)
	}
	log.Println("Sidecar exited cleanly")
}
