package chat

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/cache"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

type Session struct {
	Messages     []Message `json:"messages"`
	LastActivity time.Time `json:"lastActivity"`
}

const lockStripes = 64

// ConversationStore keeps bounded per-session history. A session idle past
// the cache TTL reads as empty under the same key.
type ConversationStore struct {
	cache       *cache.Cache[Session]
	maxMessages int
	now         func() time.Time
	locks       [lockStripes]sync.Mutex
}

func NewConversationStore(sessions *cache.Cache[Session], maxMessages int) *ConversationStore {
	return &ConversationStore{cache: sessions, maxMessages: maxMessages, now: time.Now}
}

// SessionKey joins a conversation id and page URL. Turns without a URL share
// the "default" page.
func SessionKey(conversationID, url string) string {
	if url == "" {
		url = "default"
	}
	return conversationID + "_" + url
}

// History returns a copy of the stored messages for key.
func (s *ConversationStore) History(key string) []Message {
	sess, _ := s.cache.Get(key)
	return append([]Message(nil), sess.Messages...)
}

// Update runs one turn on key while holding its lock. fn receives a copy of
// the current history and returns the messages to append; the result is
// trimmed to the newest maxMessages and stored.
func (s *ConversationStore) Update(key string, fn func(history []Message) []Message) Session {
	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	sess, _ := s.cache.Get(key)
	history := append([]Message(nil), sess.Messages...)

	messages := append(history, fn(history)...)
	if len(messages) > s.maxMessages {
		messages = append([]Message(nil), messages[len(messages)-s.maxMessages:]...)
	}

	updated := Session{Messages: messages, LastActivity: s.now()}
	s.cache.Set(key, updated)
	return updated
}

// Len reports stored sessions, including idle ones not yet swept.
func (s *ConversationStore) Len() int { return s.cache.Len() }

func (s *ConversationStore) lockFor(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%lockStripes]
}
