// Package util provides the argument parsing shared by the command handlers.
package util

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jamiegrech/RSBot-API/pkg/client"
)

var (
	// ErrInvalidRef is returned for a kind/index pair that names no slot.
	ErrInvalidRef = errors.New("invalid character reference")
	// ErrMissingArgs is returned when a command has too few arguments.
	ErrMissingArgs = errors.New("missing arguments")
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// ParseRef parses a ["npc"|"player", index] pair. An index written with a
// 0x prefix is read as hex, so raw interacting values can be pasted in.
func ParseRef(kind, index string) (client.Ref, error) {
	i, err := strconv.ParseInt(TrimQuotes(strings.TrimSpace(index)), 0, 32)
	if err != nil || i < 0 {
		return client.Ref{}, fmt.Errorf("%w: index %q", ErrInvalidRef, index)
	}

	switch strings.ToLower(TrimQuotes(strings.TrimSpace(kind))) {
	case "npc", "n":
		return client.NPCRef(int(i)), nil
	case "player", "p":
		return client.PlayerRef(int(i)), nil
	case "interacting", "i":
		ref, ok := client.RefFromInteracting(int(i))
		if !ok {
			return client.Ref{}, fmt.Errorf("%w: interacting index %d", ErrInvalidRef, i)
		}
		return ref, nil
	default:
		return client.Ref{}, fmt.Errorf("%w: kind %q", ErrInvalidRef, kind)
	}
}

// RefArgs parses the leading [kind, index] of args and returns the rest.
func RefArgs(args []string) (client.Ref, []string, error) {
	if len(args) < 2 {
		return client.Ref{}, nil, fmt.Errorf("%w: want kind and index, got %d", ErrMissingArgs, len(args))
	}
	ref, err := ParseRef(args[0], args[1])
	if err != nil {
		return client.Ref{}, nil, err
	}
	return ref, args[2:], nil
}

// ParseButton maps "left"/"right" (or a bool string) to the left flag.
// An empty string means left.
func ParseButton(s string) (bool, error) {
	switch strings.ToLower(TrimQuotes(strings.TrimSpace(s))) {
	case "", "left", "l":
		return true, nil
	case "right", "r":
		return false, nil
	}
	left, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid mouse button %q", s)
	}
	return left, nil
}
