package chat

import (
	"context"
	"time"

	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/extract"
	"github.com/porramano/linkmagico-v6-prod-final-v2/internal/fetch"
	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/logging"
)

// Extractor is the part of extract.Engine a chat turn needs.
type Extractor interface {
	Extract(ctx context.Context, rawURL string, method fetch.Method) extract.Result
}

type Turn struct {
	Message        string
	URL            string
	ConversationID string
	InstructionsID string
	AssistantName  string
}

type Service struct {
	extractor     Extractor
	instructions  InstructionStore
	conversations *ConversationStore
	composer      *Composer
	logger        logging.Logger
	assistantName string
}

type ServiceOption func(*Service)

func WithServiceLogger(logger logging.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithAssistantName sets the name used when a turn does not carry one.
func WithAssistantName(name string) ServiceOption {
	return func(s *Service) { s.assistantName = name }
}

func NewService(extractor Extractor, instructions InstructionStore, conversations *ConversationStore, composer *Composer, opts ...ServiceOption) *Service {
	s := &Service{
		extractor:     extractor,
		instructions:  instructions,
		conversations: conversations,
		composer:      composer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewLogger()
	}
	return s
}

// HandleTurn answers one visitor message and records it in the session.
func (s *Service) HandleTurn(ctx context.Context, t Turn) Reply {
	if t.ConversationID == "" {
		t.ConversationID = "default"
	}
	if t.AssistantName == "" {
		t.AssistantName = s.assistantName
	}
	log := s.logger.WithFields(logging.Fields{
		"conversation_id": t.ConversationID,
		"url":             t.URL,
	})

	page := extract.DefaultResult("")
	if t.URL != "" {
		page = s.extractor.Extract(ctx, t.URL, fetch.MethodAuto)
	}

	var instructions string
	if t.InstructionsID != "" {
		text, ok, err := s.instructions.Get(ctx, t.InstructionsID)
		switch {
		case err != nil:
			log.WithError(err).WithField("instructions_id", t.InstructionsID).Warn("Instruction lookup failed, continuing without")
		case ok:
			instructions = text
			log.WithField("instructions_id", t.InstructionsID).Info("Applying custom instructions")
		}
	}

	var reply Reply
	s.conversations.Update(SessionKey(t.ConversationID, t.URL), func(history []Message) []Message {
		reply = s.composer.Compose(t.Message, page, history, instructions, t.AssistantName)
		now := time.Now()
		return []Message{
			{Role: RoleUser, Content: t.Message, At: now},
			{Role: RoleAssistant, Content: reply.Response, At: now},
		}
	})

	turnsTotal.WithLabelValues(string(reply.Intent)).Inc()
	return reply
}

// ConversationCount reports stored sessions.
func (s *Service) ConversationCount() int { return s.conversations.Len() }

// IntentCount reports cached classifications.
func (s *Service) IntentCount() int { return s.composer.classifier.CachedCount() }
