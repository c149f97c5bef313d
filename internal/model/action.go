// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
	"strings"
)

// ActionKind is a backend text transform applied to an AI message.
type ActionKind string

const (
	ActionShorten ActionKind = "shorten"
	ActionExpand  ActionKind = "expand"
)

// actionConcise is the name older clients send for ActionShorten.
const actionConcise = "concise"

// ErrUnknownAction is returned for action kinds outside the known set.
var ErrUnknownAction = errors.New("unknown action kind")

// ActionKinds lists the supported transforms.
func ActionKinds() []ActionKind {
	return []ActionKind{ActionShorten, ActionExpand}
}

// ParseActionKind normalizes s into a known ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ActionShorten), actionConcise:
		return ActionShorten, nil
	case string(ActionExpand):
		return ActionExpand, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// Valid reports whether k is one of the supported transforms.
func (k ActionKind) Valid() bool {
	return k == ActionShorten || k == ActionExpand
}

// LegacyName returns the name older backends expect for the action.
func (k ActionKind) LegacyName() string {
	if k == ActionShorten {
		return actionConcise
	}
	return string(k)
}

// Label returns the button text for the action.
func (k ActionKind) Label() string {
	switch k {
	case ActionShorten:
		return "Concise it"
	case ActionExpand:
		return "Expand it"
	default:
		return string(k)
	}
}
