package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/airmarker/internal/plugin"
)

// Error codes reported by speech plugins.
const (
	codeUnknownValue = "unknown_value"
	codeRequestError = "request_error"
	codeTimeout      = "timeout"
)

// ServiceConfig is passed to the speech plugin as its request config.
type ServiceConfig struct {
	// Transcriber is the argv of a command that records one utterance and
	// prints its transcription.
	Transcriber []string `json:"transcriber,omitempty"`
	// ListenTimeout bounds how long the plugin waits for speech to start.
	ListenTimeout time.Duration `json:"-"`
	Voice         string        `json:"voice,omitempty"`
}

// Service is a Recognizer and Speaker backed by a speech plugin.
type Service struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
	config   json.RawMessage
	timeout  time.Duration
}

// NewService wraps p. The executor timeout bounds each call, including
// speech playback.
func NewService(p *plugin.Plugin, executor *plugin.Executor, cfg ServiceConfig) (*Service, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode speech config: %w", err)
	}
	timeout := cfg.ListenTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		plugin:   p,
		executor: executor,
		config:   raw,
		timeout:  timeout,
	}, nil
}

type listenParams struct {
	TimeoutSeconds float64 `json:"timeout_seconds"`
}

type listenResult struct {
	Text string `json:"text"`
}

type speakParams struct {
	Text string `json:"text"`
}

// Listen asks the plugin for one transcription.
func (s *Service) Listen(ctx context.Context) (string, error) {
	params, _ := json.Marshal(listenParams{TimeoutSeconds: s.timeout.Seconds()})
	resp, err := s.call(ctx, "listen", params)
	if err != nil {
		return "", err
	}

	var out listenResult
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return "", fmt.Errorf("decode listen result: %w", err)
	}
	text := Normalize(out.Text)
	if text == "" {
		return "", ErrNotUnderstood
	}
	return text, nil
}

// Speak asks the plugin to say text.
func (s *Service) Speak(ctx context.Context, text string) error {
	params, _ := json.Marshal(speakParams{Text: text})
	_, err := s.call(ctx, "speak", params)
	return err
}

func (s *Service) call(ctx context.Context, action string, params json.RawMessage) (*plugin.Response, error) {
	resp, err := s.executor.Execute(ctx, s.plugin, &plugin.Request{
		Action: action,
		Config: s.config,
		Params: params,
	})
	if err != nil {
		if errors.Is(err, plugin.ErrTimeout) {
			return nil, fmt.Errorf("%s: %w", action, ErrListenTimeout)
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w: %v", action, ErrServiceUnavailable, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%s: %w", action, codeError(resp.Error))
	}
	return resp, nil
}

func codeError(code string) error {
	switch code {
	case codeUnknownValue:
		return ErrNotUnderstood
	case codeTimeout:
		return ErrListenTimeout
	case codeRequestError:
		return ErrServiceUnavailable
	default:
		return fmt.Errorf("%w: %s", ErrServiceUnavailable, code)
	}
}
