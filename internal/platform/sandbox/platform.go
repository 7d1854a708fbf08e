package sandbox

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/palemoky/werewolf/internal/apperrors"
	"github.com/palemoky/werewolf/internal/platform"
	"github.com/palemoky/werewolf/internal/protocol"
)

func (s *Server) SendMessage(_ context.Context, channelID string, c platform.Content) (platform.MessageRef, error) {
	id, err := s.post(channelID, botUserID, c)
	if err != nil {
		return platform.MessageRef{}, err
	}
	if c.HasComponents() {
		s.inboxes.Open(id)
	}
	return platform.MessageRef{ChannelID: channelID, MessageID: id}, nil
}

func (s *Server) EditMessage(_ context.Context, ref platform.MessageRef, c platform.Content) error {
	s.mu.Lock()
	m, ok := s.messages[ref.MessageID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("sandbox: unknown message %s", ref.MessageID)
	}
	m.content = c
	s.broadcastLocked(m.channelID, s.chatMessageLocked(protocol.MsgMessageEdited, m, false))
	s.mu.Unlock()

	if c.HasComponents() {
		s.inboxes.Open(ref.MessageID)
		return nil
	}
	for _, pending := range s.inboxes.Close(ref.MessageID) {
		s.notice(pending.UserID, apperrors.ErrNoActiveVote.Error())
	}
	return nil
}

func (s *Server) AwaitAction(ctx context.Context, ref platform.MessageRef, actionIDs []string, timeout time.Duration) (platform.Await, error) {
	return s.inboxes.Await(ctx, ref.MessageID, actionIDs, timeout, func(stale platform.Action) {
		s.notice(stale.UserID, apperrors.ErrNoActiveVote.Error())
	})
}

func (s *Server) Reply(_ context.Context, action platform.Action, text string) error {
	s.notice(action.UserID, text)
	return nil
}

// Acknowledge 沙盒中无需确认
func (s *Server) Acknowledge(context.Context, platform.Action) error {
	return nil
}

func (s *Server) SetChannelPermissions(_ context.Context, channelID string, ows []platform.Overwrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.channels[channelID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, channelID)
	}
	ch.overwrites = slices.Clone(ows)
	s.syncAllLocked()
	return nil
}

func (s *Server) CreateCategory(_ context.Context, _ string, name string, ows []platform.Overwrite) (string, error) {
	return s.createChannel("", name, true, ows)
}

func (s *Server) CreateChannel(_ context.Context, _ string, parentID, name string, ows []platform.Overwrite) (string, error) {
	return s.createChannel(parentID, name, false, ows)
}

func (s *Server) createChannel(parentID, name string, category bool, ows []platform.Overwrite) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parentID != "" {
		if parent, ok := s.channels[parentID]; !ok || !parent.Category {
			return "", fmt.Errorf("%w: %s", ErrUnknownChannel, parentID)
		}
	}
	id := s.nextID("ch")
	s.channels[id] = &channel{
		Channel:    platform.Channel{ID: id, Name: name, ParentID: parentID, Category: category},
		overwrites: slices.Clone(ows),
	}
	s.order = append(s.order, id)
	s.syncAllLocked()
	return id, nil
}

// DeleteChannel 删除频道及其消息。子频道不会随分类删除。
func (s *Server) DeleteChannel(_ context.Context, channelID string) error {
	s.mu.Lock()
	ch, ok := s.channels[channelID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownChannel, channelID)
	}
	delete(s.channels, channelID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == channelID })
	for _, msgID := range ch.history {
		delete(s.messages, msgID)
	}
	s.syncAllLocked()
	s.mu.Unlock()

	for _, msgID := range ch.history {
		s.inboxes.Close(msgID)
	}
	return nil
}

func (s *Server) ListChannels(context.Context, string) ([]platform.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]platform.Channel, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.channels[id].Channel)
	}
	return out, nil
}

func (s *Server) Member(_ context.Context, _ string, userID string) (platform.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return platform.Member{
		ID:          userID,
		DisplayName: s.nameLocked(userID),
		Privileged:  s.admins[userID],
	}, nil
}

func (s *Server) SendDirect(_ context.Context, userID, text string) error {
	if !s.sendTo(userID, protocol.MustNewMessage(protocol.MsgDirect, protocol.DirectPayload{Text: text})) {
		return fmt.Errorf("sandbox: user %s is not connected", userID)
	}
	return nil
}
