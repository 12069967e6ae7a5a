/*
Package chat stores group and direct conversations and their messages.

A group chat belongs to one study jam and mirrors its roster; a direct chat is keyed by the
sorted pair of its two participants. Messages are append-only and carry a read-by set.
*/
package chat

import (
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

type Kind string

const (
	KindGroup  Kind = "group"
	KindDirect Kind = "direct"
)

type MessageType string

const (
	TypeText  MessageType = "text"
	TypeFile  MessageType = "file"
	TypeImage MessageType = "image"
)

func (t MessageType) valid() bool {
	switch t {
	case TypeText, TypeFile, TypeImage:
		return true
	}
	return false
}

const (
	// MaxContentBytes is the maximum allowed size of message content.
	MaxContentBytes = 5000

	// PreviewLength is how many characters of a message a notification shows.
	PreviewLength = 50

	// EventMessage is the live push event type for a new message.
	EventMessage = "message"
)

type Chat struct {
	ID            string     `json:"id"`
	Type          Kind       `json:"type"`
	StudyJamID    string     `json:"studyJamId,omitempty"`
	Participants  []string   `json:"participants"`
	LastMessage   *Message   `json:"lastMessage,omitempty"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func (c Chat) GetID() string { return c.ID }

func (c *Chat) HasParticipant(userID string) bool {
	return slices.Contains(c.Participants, userID)
}

func (c *Chat) lastActivity() time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}

type Message struct {
	ID        string      `json:"id"`
	ChatID    string      `json:"chatId"`
	SenderID  string      `json:"senderId"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	FileKey   string      `json:"fileKey,omitempty"`
	FileName  string      `json:"fileName,omitempty"`
	FileSize  int64       `json:"fileSize,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	ReadBy    []string    `json:"readBy"`
}

func (m Message) GetID() string { return m.ID }

// GroupChatID is the chat id of a study jam's group chat.
func GroupChatID(jamID string) string {
	return "group-" + jamID
}

// DirectChatID is the chat id shared by two users, independent of order.
func DirectChatID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return "dm-" + strings.Join(ids, "-")
}

// Preview shortens content to PreviewLength characters, adding "..." when cut.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:PreviewLength]) + "..."
}
