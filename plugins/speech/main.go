// Package main provides the speech plugin.
// It transcribes one utterance with a configured recognizer command and
// speaks feedback with the platform text-to-speech tool.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is shared by all actions.
type Config struct {
	Transcriber []string `json:"transcriber"`
	Voice       string   `json:"voice"`
}

// ListenParams bounds a single listen.
type ListenParams struct {
	TimeoutSeconds float64 `json:"timeout_seconds"`
}

// SpeakParams carries the text to say.
type SpeakParams struct {
	Text string `json:"text"`
}

// Error codes understood by the host.
const (
	errUnknownValue = "unknown_value"
	errRequest      = "request_error"
	errTimeout      = "timeout"
)

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("failed to parse config: %v", err))
			return
		}
	}

	switch req.Action {
	case "listen":
		text, code := listen(cfg, req.Params)
		if code != "" {
			writeErrorResponse(code)
			return
		}
		data, _ := json.Marshal(map[string]string{"text": text})
		writeResponse(Response{Success: true, Data: data})
	case "speak":
		if err := speak(cfg, req.Params); err != nil {
			writeErrorResponse(fmt.Sprintf("speak failed: %v", err))
			return
		}
		writeResponse(Response{Success: true})
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
	}
}

// listen runs the transcriber and returns its trimmed output, or an error code.
func listen(cfg Config, params json.RawMessage) (string, string) {
	if len(cfg.Transcriber) == 0 {
		fmt.Fprintln(os.Stderr, "no transcriber configured")
		return "", errRequest
	}

	p := ListenParams{TimeoutSeconds: 5}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return "", errRequest
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.TimeoutSeconds*float64(time.Second)))
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.Transcriber[0], cfg.Transcriber[1:]...)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", errTimeout
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "transcriber failed: %v\n", err)
		return "", errRequest
	}

	text := strings.ToLower(strings.TrimSpace(string(out)))
	if text == "" {
		return "", errUnknownValue
	}
	return text, ""
}

// speak says the text with espeak, or say on macOS.
func speak(cfg Config, params json.RawMessage) error {
	var p SpeakParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if p.Text == "" {
		return fmt.Errorf("text is required")
	}

	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		args := []string{p.Text}
		if cfg.Voice != "" {
			args = []string{"-v", cfg.Voice, p.Text}
		}
		cmd = exec.Command("say", args...)
	} else {
		args := []string{p.Text}
		if cfg.Voice != "" {
			args = []string{"-v", cfg.Voice, p.Text}
		}
		cmd = exec.Command("espeak", args...)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	writeResponse(Response{
		Success: false,
		Error:   errMsg,
	})
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
