package ui

import (
	"errors"
	"fmt"
	"strings"
)

// InputKind is what a submitted line asks for
type InputKind int

const (
	InputNone InputKind = iota
	InputSay
	InputCommand
	InputClick
	InputGoto
	InputHelp
	InputQuit
)

var ErrUnknownInput = errors.New("unknown client command, type :help")

// Input is a parsed input line
type Input struct {
	Kind    InputKind
	Text    string            // say
	Name    string            // slash command name or component ID
	Options map[string]string // slash command options
	Args    []string          // click values or channel reference
}

// ParseInput parses one line typed by the user:
//
//	/play                  run a slash command, options as key=value
//	:click join            press a button of the newest message having it
//	:click vote 2          pick an option of a menu
//	:go 2 | :go general    switch channel
//	:help, :quit
//	anything else          say it in the current channel
func ParseInput(line string) (Input, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Input{Kind: InputNone}, nil
	case strings.HasPrefix(line, "/"):
		return parseCommand(line[1:])
	case strings.HasPrefix(line, ":"):
		return parseClientCommand(line[1:])
	default:
		return Input{Kind: InputSay, Text: line}, nil
	}
}

func parseCommand(s string) (Input, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Input{}, fmt.Errorf("%w: /", ErrUnknownInput)
	}
	in := Input{Kind: InputCommand, Name: fields[0], Options: map[string]string{}}
	for _, f := range fields[1:] {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return Input{}, fmt.Errorf("option %q must look like key=value", f)
		}
		in.Options[key] = value
	}
	return in, nil
}

func parseClientCommand(s string) (Input, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Input{}, fmt.Errorf("%w: :", ErrUnknownInput)
	}
	switch fields[0] {
	case "click", "c":
		if len(fields) < 2 {
			return Input{}, errors.New("usage: :click <id> [option...]")
		}
		return Input{Kind: InputClick, Name: fields[1], Args: fields[2:]}, nil
	case "go", "g":
		if len(fields) != 2 {
			return Input{}, errors.New("usage: :go <channel>")
		}
		return Input{Kind: InputGoto, Args: fields[1:]}, nil
	case "help", "h":
		return Input{Kind: InputHelp}, nil
	case "quit", "q":
		return Input{Kind: InputQuit}, nil
	default:
		return Input{}, fmt.Errorf("%w: :%s", ErrUnknownInput, fields[0])
	}
}

const helpText = "/cmd key=value · :click <id> [option] · :go <channel> · tab switch channel · pgup/pgdn scroll · :quit"
