package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"studyhive/internal/app/db"
	"studyhive/internal/app/notification"
	"studyhive/internal/app/studyjam"
	"studyhive/internal/app/user"
	"studyhive/internal/pkg/errs"
	"studyhive/internal/pkg/logx"
	"studyhive/internal/pkg/randx"
)

// Notifier stores message notifications.
type Notifier interface {
	Notify(ctx context.Context, in notification.Input) (*notification.Notification, *errs.CustomError)
}

// Pusher delivers live events to connected users.
type Pusher interface {
	Push(userID, event string, payload any)
}

// UserLookup resolves chat partners and sender names.
type UserLookup interface {
	Get(ctx context.Context, id string) (*user.User, *errs.CustomError)
}

type Service struct {
	chats    db.Collection[Chat]
	messages db.Collection[Message]
	jams     db.Collection[studyjam.StudyJam]
	users    UserLookup
	notifier Notifier
	pusher   Pusher

	Now func() time.Time
}

// NewService wires the chat service. notifier and pusher may be nil.
func NewService(
	chats db.Collection[Chat],
	messages db.Collection[Message],
	jams db.Collection[studyjam.StudyJam],
	users UserLookup,
	notifier Notifier,
	pusher Pusher,
) *Service {
	return &Service{
		chats:    chats,
		messages: messages,
		jams:     jams,
		users:    users,
		notifier: notifier,
		pusher:   pusher,
		Now:      time.Now,
	}
}

// GroupChat returns the group chat of a study jam, creating it on first use.
// Only participants of the jam may open it.
func (s *Service) GroupChat(ctx context.Context, userID, jamID string) (*Chat, *errs.CustomError) {
	jam, err := s.jams.Get(ctx, jamID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, errs.NewError(errs.ErrStudyJamNotFound)
		}
		return nil, errs.Internal(err)
	}
	if !jam.IsParticipant(userID) {
		return nil, errs.NewError(errs.ErrChatNotFound)
	}

	id := GroupChatID(jamID)
	c, err := s.chats.Update(ctx, id, func(c *Chat) error {
		c.Participants = slices.Clone(jam.Participants)
		return nil
	})
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, errs.Internal(err)
	}

	return s.create(ctx, Chat{
		ID:           id,
		Type:         KindGroup,
		StudyJamID:   jamID,
		Participants: slices.Clone(jam.Participants),
		CreatedAt:    s.Now().UTC(),
	})
}

// DirectChat returns the direct chat between userID and otherID, creating it
// on first use.
func (s *Service) DirectChat(ctx context.Context, userID, otherID string) (*Chat, *errs.CustomError) {
	otherID = strings.TrimSpace(otherID)
	if otherID == "" {
		return nil, errs.NewError(errs.ErrMissingFields)
	}
	if otherID == userID {
		return nil, errs.NewError(errs.ErrChatWithSelf)
	}
	if _, cErr := s.users.Get(ctx, otherID); cErr != nil {
		return nil, cErr
	}

	id := DirectChatID(userID, otherID)
	c, err := s.chats.Get(ctx, id)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, errs.Internal(err)
	}

	participants := []string{userID, otherID}
	sort.Strings(participants)
	return s.create(ctx, Chat{
		ID:           id,
		Type:         KindDirect,
		Participants: participants,
		CreatedAt:    s.Now().UTC(),
	})
}

// create inserts c, or returns the stored chat if a concurrent request won.
func (s *Service) create(ctx context.Context, c Chat) (*Chat, *errs.CustomError) {
	err := s.chats.Insert(ctx, c)
	if errors.Is(err, db.ErrDuplicate) {
		existing, gErr := s.chats.Get(ctx, c.ID)
		if gErr != nil {
			return nil, errs.Internal(gErr)
		}
		return &existing, nil
	}
	if err != nil {
		return nil, errs.Internal(err)
	}

	logx.Info("Chat created", "chat_id", c.ID, "type", string(c.Type))
	return &c, nil
}

// SyncGroupRoster replaces the participants of a jam's group chat. A chat that
// was never opened is left to be created with the current roster.
func (s *Service) SyncGroupRoster(ctx context.Context, jamID string, participants []string) *errs.CustomError {
	_, err := s.chats.Update(ctx, GroupChatID(jamID), func(c *Chat) error {
		c.Participants = slices.Clone(participants)
		return nil
	})
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return errs.Internal(err)
	}
	return nil
}

// ListForUser returns the chats userID takes part in, most recent activity first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Chat, *errs.CustomError) {
	chats, err := s.chats.Filter(ctx, func(c Chat) bool {
		return c.HasParticipant(userID)
	})
	if err != nil {
		return nil, errs.Internal(err)
	}

	sort.SliceStable(chats, func(a, b int) bool {
		return chats[a].lastActivity().After(chats[b].lastActivity())
	})
	return chats, nil
}

// Get returns a chat if userID participates in it.
func (s *Service) Get(ctx context.Context, userID, chatID string) (*Chat, *errs.CustomError) {
	c, err := s.chats.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, errs.NewError(errs.ErrChatNotFound)
		}
		return nil, errs.Internal(err)
	}
	if !c.HasParticipant(userID) {
		return nil, errs.NewError(errs.ErrChatNotFound)
	}
	return &c, nil
}

// Messages returns the history of a chat in send order and marks every
// message as read by userID.
func (s *Service) Messages(ctx context.Context, userID, chatID string) ([]Message, *errs.CustomError) {
	if _, cErr := s.Get(ctx, userID, chatID); cErr != nil {
		return nil, cErr
	}

	unread := db.FieldEquals("chatId", chatID, func(m Message) bool {
		return !slices.Contains(m.ReadBy, userID)
	})
	if _, err := s.messages.UpdateWhere(ctx, unread, func(m *Message) error {
		m.ReadBy = append(m.ReadBy, userID)
		return nil
	}); err != nil {
		return nil, errs.Internal(err)
	}

	msgs, err := s.messages.Filter(ctx, func(m Message) bool { return m.ChatID == chatID })
	if err != nil {
		return nil, errs.Internal(err)
	}
	sort.SliceStable(msgs, func(a, b int) bool {
		return msgs[a].CreatedAt.Before(msgs[b].CreatedAt)
	})
	return msgs, nil
}

type SendInput struct {
	Content  string      `json:"content"`
	Type     MessageType `json:"type"`
	FileKey  string      `json:"fileKey"`
	FileName string      `json:"fileName"`
	FileSize int64       `json:"fileSize"`
}

func (s *Service) validate(chatID string, in *SendInput) *errs.CustomError {
	if in.Type == "" {
		in.Type = TypeText
	}
	if !in.Type.valid() {
		return errs.NewError(errs.ErrInvalidMessageType)
	}
	if len(in.Content) > MaxContentBytes {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	if in.Type == TypeText {
		in.Content = strings.TrimSpace(in.Content)
		if in.Content == "" {
			return errs.NewError(errs.ErrMissingFields)
		}
		in.FileKey, in.FileName, in.FileSize = "", "", 0
		return nil
	}

	if in.FileKey == "" {
		return errs.NewError(errs.ErrMissingFields)
	}
	if id, ok := chatIDFromKey(in.FileKey); !ok || id != chatID {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}
	if in.FileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}
	return nil
}

// Send appends a message to a chat, updates the chat's last message and
// notifies every other participant.
func (s *Service) Send(ctx context.Context, senderID, chatID string, in SendInput) (*Message, *errs.CustomError) {
	if cErr := s.validate(chatID, &in); cErr != nil {
		return nil, cErr
	}
	c, cErr := s.Get(ctx, senderID, chatID)
	if cErr != nil {
		return nil, cErr
	}

	now := s.Now().UTC()
	msg := Message{
		ID:        randx.ID(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   in.Content,
		Type:      in.Type,
		FileKey:   in.FileKey,
		FileName:  in.FileName,
		FileSize:  in.FileSize,
		CreatedAt: now,
		ReadBy:    []string{senderID},
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, errs.Internal(err)
	}

	if _, err := s.chats.Update(ctx, chatID, func(c *Chat) error {
		last := msg
		c.LastMessage = &last
		c.LastMessageAt = &now
		return nil
	}); err != nil {
		logx.Error(err, "Failed to update last message", "chat_id", chatID)
	}

	s.fanOut(ctx, c, &msg)
	return &msg, nil
}

func (s *Service) fanOut(ctx context.Context, c *Chat, msg *Message) {
	sender := "Someone"
	if u, cErr := s.users.Get(ctx, msg.SenderID); cErr == nil && u.Name != "" {
		sender = u.Name
	}

	body := Preview(msg.Content)
	if msg.Type != TypeText {
		name := msg.FileName
		if name == "" {
			name = string(msg.Type)
		}
		body = "Sent " + name
	}

	for _, p := range c.Participants {
		if p == msg.SenderID {
			continue
		}
		if s.pusher != nil {
			s.pusher.Push(p, EventMessage, msg)
		}
		if s.notifier == nil {
			continue
		}
		if _, cErr := s.notifier.Notify(ctx, notification.Input{
			UserID:  p,
			Type:    notification.TypeMessage,
			Title:   fmt.Sprintf("New message from %s", sender),
			Message: body,
			Link:    "/chat/" + c.ID,
		}); cErr != nil {
			logx.Error(cErr, "Failed to store message notification", "chat_id", c.ID, "user_id", p)
		}
	}
}

// CanReadAttachment reports whether userID may download the object at key.
// Chat attachments are limited to chat participants; avatars are public to
// signed-in users.
func (s *Service) CanReadAttachment(ctx context.Context, userID, key string) *errs.CustomError {
	if strings.HasPrefix(key, avatarKeyPrefix) && !strings.Contains(key, "..") {
		return nil
	}
	chatID, ok := chatIDFromKey(key)
	if !ok {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}
	_, cErr := s.Get(ctx, userID, chatID)
	return cErr
}
