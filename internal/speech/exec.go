// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// ExecRecognizer runs an external transcriber. The command must print one
// JSON object per line on stdout:
//
//	{"text": "hello wor", "final": false}
//	{"text": "hello world", "final": true}
//
// Lines that are not JSON are treated as final text. The session ends when
// the process exits.
type ExecRecognizer struct {
	Command []string
}

// NewExecRecognizer returns a recognizer for command, or nil when command is
// empty so that NewCapture reports speech as unavailable.
func NewExecRecognizer(command []string) Recognizer {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil
	}
	return &ExecRecognizer{Command: command}
}

type transcriptLine struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
	Error string `json:"error"`
}

// Start launches the command.
func (r *ExecRecognizer) Start(ctx context.Context) (<-chan Event, error) {
	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("speech command stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start speech command: %w", err)
	}

	events := make(chan Event)
	go func() {
		defer close(events)

		send := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			ev, ok := parseLine(scanner.Text())
			if !ok {
				continue
			}
			if !send(ev) {
				break
			}
		}

		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			send(Event{Kind: EventError, Err: fmt.Errorf("speech command: %w", err)})
		}
	}()
	return events, nil
}

func parseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, false
	}
	var tl transcriptLine
	if err := json.Unmarshal([]byte(line), &tl); err != nil {
		return Event{Kind: EventResult, Text: line, Final: true}, true
	}
	if tl.Error != "" {
		return Event{Kind: EventError, Err: fmt.Errorf("speech command: %s", tl.Error)}, true
	}
	if strings.TrimSpace(tl.Text) == "" {
		return Event{}, false
	}
	return Event{Kind: EventResult, Text: tl.Text, Final: tl.Final}, true
}
