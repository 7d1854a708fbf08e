// Package ui implements the terminal client for the sandbox server.
package ui

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/palemoky/werewolf/internal/protocol"
)

const (
	maxChannelMessages = 200
	maxNotices         = 5
)

var (
	ErrUnknownChannel   = errors.New("unknown channel")
	ErrNoSuchComponent  = errors.New("no message with this button or menu")
	ErrMissingValue     = errors.New("pick an option from the menu")
	ErrUnknownOption    = errors.New("no such option in the menu")
	ErrChannelReadOnly  = errors.New("you cannot write in this channel")
	ErrNoChannelVisible = errors.New("no channel is visible")
)

// State is everything the client knows about the sandbox guild
type State struct {
	UserID   string
	UserName string
	GuildID  string
	Commands []protocol.CommandInfo

	Channels []protocol.ChannelInfo
	Current  string

	messages map[string][]*protocol.ChatMessagePayload
	Notices  []string
}

// NewState creates an empty state
func NewState() *State {
	return &State{messages: make(map[string][]*protocol.ChatMessagePayload)}
}

type stateHandler func(s *State, msg *protocol.Message) error

var stateHandlers = map[protocol.MessageType]stateHandler{
	protocol.MsgConnected:     handleConnected,
	protocol.MsgChannels:      handleChannels,
	protocol.MsgChatMessage:   handleChatMessage,
	protocol.MsgMessageEdited: handleChatMessage,
	protocol.MsgNotice:        handleNotice,
	protocol.MsgDirect:        handleDirect,
	protocol.MsgError:         handleError,
}

// Apply updates the state with a server message. Unknown types are ignored.
func (s *State) Apply(msg *protocol.Message) error {
	if h, ok := stateHandlers[msg.Type]; ok {
		return h(s, msg)
	}
	return nil
}

func handleConnected(s *State, msg *protocol.Message) error {
	p, err := protocol.ParsePayload[protocol.ConnectedPayload](msg)
	if err != nil {
		return err
	}
	s.UserID, s.UserName, s.GuildID = p.UserID, p.UserName, p.GuildID
	s.Commands = p.Commands
	return nil
}

func handleChannels(s *State, msg *protocol.Message) error {
	p, err := protocol.ParsePayload[protocol.ChannelsPayload](msg)
	if err != nil {
		return err
	}
	s.Channels = p.Channels

	visible := make(map[string]bool, len(p.Channels))
	for _, ch := range p.Channels {
		visible[ch.ID] = true
	}
	// history is replayed when a channel becomes visible again
	for id := range s.messages {
		if !visible[id] {
			delete(s.messages, id)
		}
	}
	if _, ok := s.Channel(s.Current); !ok || s.Current == "" {
		s.Current = ""
		if text := s.TextChannels(); len(text) > 0 {
			s.Current = text[0].ID
		}
	}
	return nil
}

func handleChatMessage(s *State, msg *protocol.Message) error {
	p, err := protocol.ParsePayload[protocol.ChatMessagePayload](msg)
	if err != nil {
		return err
	}
	s.addMessage(p)
	return nil
}

func handleNotice(s *State, msg *protocol.Message) error {
	p, err := protocol.ParsePayload[protocol.NoticePayload](msg)
	if err != nil {
		return err
	}
	s.Notify(p.Text)
	return nil
}

func handleDirect(s *State, msg *protocol.Message) error {
	p, err := protocol.ParsePayload[protocol.DirectPayload](msg)
	if err != nil {
		return err
	}
	s.Notify("✉️ " + p.Text)
	return nil
}

func handleError(s *State, msg *protocol.Message) error {
	p, err := protocol.ParsePayload[protocol.ErrorPayload](msg)
	if err != nil {
		return err
	}
	s.Notify(fmt.Sprintf("⚠️ %s (%d)", p.Message, p.Code))
	return nil
}

// addMessage appends a message, or replaces it when the ID is already known
func (s *State) addMessage(p *protocol.ChatMessagePayload) {
	list := s.messages[p.ChannelID]
	if i := slices.IndexFunc(list, func(m *protocol.ChatMessagePayload) bool { return m.MessageID == p.MessageID }); i >= 0 {
		list[i] = p
		return
	}
	list = append(list, p)
	if len(list) > maxChannelMessages {
		list = list[len(list)-maxChannelMessages:]
	}
	s.messages[p.ChannelID] = list
}

// Notify keeps the latest notices
func (s *State) Notify(text string) {
	s.Notices = append(s.Notices, text)
	if len(s.Notices) > maxNotices {
		s.Notices = s.Notices[len(s.Notices)-maxNotices:]
	}
}

// Messages returns the messages of a channel, oldest first
func (s *State) Messages(channelID string) []*protocol.ChatMessagePayload {
	return s.messages[channelID]
}

// Channel looks up a visible channel
func (s *State) Channel(id string) (protocol.ChannelInfo, bool) {
	for _, ch := range s.Channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return protocol.ChannelInfo{}, false
}

// TextChannels returns the visible channels that can hold messages
func (s *State) TextChannels() []protocol.ChannelInfo {
	var out []protocol.ChannelInfo
	for _, ch := range s.Channels {
		if !ch.Category {
			out = append(out, ch)
		}
	}
	return out
}

// SelectChannel switches to a channel given by ID, name or 1-based position
func (s *State) SelectChannel(ref string) error {
	text := s.TextChannels()
	for _, ch := range text {
		if ch.ID == ref || strings.EqualFold(ch.Name, strings.TrimPrefix(ref, "#")) {
			s.Current = ch.ID
			return nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(text) {
		s.Current = text[n-1].ID
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownChannel, ref)
}

// CycleChannel moves the selection by delta, wrapping around
func (s *State) CycleChannel(delta int) {
	text := s.TextChannels()
	if len(text) == 0 {
		return
	}
	i := slices.IndexFunc(text, func(ch protocol.ChannelInfo) bool { return ch.ID == s.Current })
	i = ((i+delta)%len(text) + len(text)) % len(text)
	s.Current = text[i].ID
}

// CanSend reports whether the user may write in the current channel
func (s *State) CanSend() bool {
	ch, ok := s.Channel(s.Current)
	return ok && ch.CanSend
}

// ResolveClick finds the newest message in the current channel carrying the
// component and turns the arguments into menu values. A menu value may be
// given as the value, the label or the 1-based option number.
func (s *State) ResolveClick(customID string, args []string) (messageID string, values []string, err error) {
	if s.Current == "" {
		return "", nil, ErrNoChannelVisible
	}
	list := s.messages[s.Current]
	for i := len(list) - 1; i >= 0; i-- {
		m := list[i]
		for _, b := range m.Content.Buttons {
			if b.ID == customID {
				return m.MessageID, nil, nil
			}
		}
		for _, sel := range m.Content.Selects {
			if sel.ID != customID {
				continue
			}
			if len(args) == 0 {
				return "", nil, ErrMissingValue
			}
			for _, arg := range args {
				v, err := resolveOption(sel, arg)
				if err != nil {
					return "", nil, err
				}
				values = append(values, v)
			}
			return m.MessageID, values, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s", ErrNoSuchComponent, customID)
}

func resolveOption(sel protocol.SelectInfo, arg string) (string, error) {
	for _, o := range sel.Options {
		if o.Value == arg {
			return o.Value, nil
		}
	}
	for _, o := range sel.Options {
		if strings.EqualFold(o.Label, arg) {
			return o.Value, nil
		}
	}
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(sel.Options) {
		return sel.Options[n-1].Value, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownOption, arg)
}
