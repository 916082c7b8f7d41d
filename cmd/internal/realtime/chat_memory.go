package realtime

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryChatStore is an in-memory ChatStore for tests and dev mode.
type MemoryChatStore struct {
	mu       sync.RWMutex
	messages map[string]Message
	groups   map[string]Group
	members  map[string][]string // groupID -> member user ids
}

// NewMemoryChatStore constructs an empty store.
func NewMemoryChatStore() *MemoryChatStore {
	return &MemoryChatStore{
		messages: make(map[string]Message),
		groups:   make(map[string]Group),
		members:  make(map[string][]string),
	}
}

// PutGroup seeds a group and its membership. Intended for tests and dev mode.
func (s *MemoryChatStore) PutGroup(group Group, memberIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.ID] = group
	s.members[group.ID] = append([]string(nil), memberIDs...)
}

func (s *MemoryChatStore) CreateMessage(_ context.Context, msg Message) error {
	if msg.ID == "" || msg.SenderID == "" || msg.Content == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ID] = msg
	return nil
}

func (s *MemoryChatStore) GetMessage(_ context.Context, messageID string) (Message, error) {
	if messageID == "" {
		return Message{}, ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[messageID]
	if !ok {
		return Message{}, ErrNotFound
	}
	return msg, nil
}

func (s *MemoryChatStore) UpdateMessageContent(_ context.Context, messageID, content string, updatedAt time.Time) error {
	if messageID == "" || content == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[messageID]
	if !ok {
		return ErrNotFound
	}
	msg.Content = content
	msg.UpdatedAt = updatedAt
	s.messages[messageID] = msg
	return nil
}

func (s *MemoryChatStore) DeleteMessage(_ context.Context, messageID string) error {
	if messageID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[messageID]; !ok {
		return ErrNotFound
	}
	delete(s.messages, messageID)
	return nil
}

func (s *MemoryChatStore) TouchGroupActivity(_ context.Context, groupID string, at time.Time) error {
	if groupID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupID]
	if !ok {
		return ErrNotFound
	}
	group.LastActivityAt = at
	s.groups[groupID] = group
	return nil
}

func (s *MemoryChatStore) GroupMemberIDs(_ context.Context, groupID string) ([]string, error) {
	if groupID == "" {
		return nil, ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	members, ok := s.members[groupID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]string(nil), members...), nil
}

func (s *MemoryChatStore) ListMessages(_ context.Context, chatID string, limit int) ([]Message, error) {
	if chatID == "" {
		return nil, ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Message
	for _, msg := range s.messages {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *MemoryChatStore) MarkRead(_ context.Context, chatID, userID string) error {
	if chatID == "" || userID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, msg := range s.messages {
		if msg.ChatID == chatID && msg.SenderID != userID && !msg.IsRead {
			msg.IsRead = true
			s.messages[id] = msg
		}
	}
	return nil
}
