package services

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codyseavey/berit/internal/commands"
	"github.com/codyseavey/berit/internal/metrics"
)

// TokenHandler turns query tokens into reply lines.
type TokenHandler interface {
	Handle(tokens []string) []string
}

// IncomingMessage is the part of a chat message the bot looks at.
type IncomingMessage struct {
	AuthorID    string
	ChannelID   string
	ChannelName string
	Content     string
}

// ChatBot answers bracketed card queries in Discord channels.
type ChatBot struct {
	session  *discordgo.Session
	handler  TokenHandler
	channels map[string]bool // empty means every channel
	limit    int
	logger   *zap.Logger
}

// NewChatBot creates a bot for the given token. channels restricts which
// channel names are answered; messageLimit is the longest message the
// platform accepts.
func NewChatBot(token string, handler TokenHandler, channels []string, messageLimit int, logger *zap.Logger) (*ChatBot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	bot := newChatBot(handler, channels, messageLimit, logger)
	bot.session = session
	return bot, nil
}

func newChatBot(handler TokenHandler, channels []string, messageLimit int, logger *zap.Logger) *ChatBot {
	if logger == nil {
		logger = zap.NewNop()
	}
	subscribed := make(map[string]bool, len(channels))
	for _, c := range channels {
		subscribed[strings.ToLower(strings.TrimPrefix(c, "#"))] = true
	}
	return &ChatBot{
		handler:  handler,
		channels: subscribed,
		limit:    messageLimit,
		logger:   logger,
	}
}

// Open registers the event handlers and connects.
func (b *ChatBot) Open() error {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("Logged in", zap.String("user", r.User.String()))
	})
	b.session.AddHandler(b.onMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to connect to discord: %w", err)
	}
	return nil
}

// Close disconnects from Discord.
func (b *ChatBot) Close() error {
	return b.session.Close()
}

func (b *ChatBot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}

	msg := IncomingMessage{
		AuthorID:    m.Author.ID,
		ChannelID:   m.ChannelID,
		ChannelName: b.channelName(s, m.ChannelID),
		Content:     m.Content,
	}

	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}

	requestID := uuid.New().String()
	for _, chunk := range b.Reply(requestID, selfID, msg) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			metrics.MessagesTotal.WithLabelValues("send_failed").Inc()
			b.logger.Error("Failed to send reply",
				zap.String("request_id", requestID),
				zap.String("channel", msg.ChannelName),
				zap.Error(err))
			return
		}
	}
}

func (b *ChatBot) channelName(s *discordgo.Session, channelID string) string {
	ch, err := s.State.Channel(channelID)
	if err != nil {
		ch, err = s.Channel(channelID)
		if err != nil {
			b.logger.Debug("Could not resolve channel", zap.String("channel_id", channelID), zap.Error(err))
			return ""
		}
	}
	return ch.Name
}

// Reply works out what to send back for one message. It returns nothing when
// the message is the bot's own, comes from an unsubscribed channel, has no
// bracketed tokens, or none of its tokens produced a result.
func (b *ChatBot) Reply(requestID, selfID string, msg IncomingMessage) []string {
	log := b.logger.With(zap.String("request_id", requestID))

	if selfID != "" && msg.AuthorID == selfID {
		log.Debug("Ignoring message sent by myself")
		metrics.MessagesTotal.WithLabelValues("ignored").Inc()
		return nil
	}

	if !b.subscribed(msg.ChannelName) {
		log.Debug("Ignoring message sent in unsubscribed channel", zap.String("channel", msg.ChannelName))
		metrics.MessagesTotal.WithLabelValues("ignored").Inc()
		return nil
	}

	tokens := commands.ExtractTokens(msg.Content)
	if len(tokens) == 0 {
		metrics.MessagesTotal.WithLabelValues("no_tokens").Inc()
		return nil
	}

	text, ok := commands.Format(b.handler.Handle(tokens))
	if !ok {
		log.Debug("No results for message", zap.Strings("tokens", tokens))
		metrics.MessagesTotal.WithLabelValues("silent").Inc()
		return nil
	}

	metrics.MessagesTotal.WithLabelValues("replied").Inc()
	log.Info("Replying to message",
		zap.String("channel", msg.ChannelName),
		zap.Int("tokens", len(tokens)))
	return commands.Split(text, b.limit)
}

func (b *ChatBot) subscribed(channelName string) bool {
	if len(b.channels) == 0 {
		return true
	}
	return b.channels[strings.ToLower(channelName)]
}
