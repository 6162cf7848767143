package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
)

// Session wraps the gateway connection feeding behavior events into the
// watch registry.
type Session struct {
	discord *discordgo.Session
	BotID   string
}

// NewSession creates the Discord session with the intents message ingestion
// needs.
func NewSession(token string) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	return &Session{discord: dg}, nil
}

// Discord exposes the underlying session for the directory and effector.
func (s *Session) Discord() *discordgo.Session {
	return s.discord
}

func (s *Session) Connect() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("open discord connection: %w", err)
	}

	if s.discord.State.User != nil {
		s.BotID = s.discord.State.User.ID
		logging.Info("connected as bot %s", s.BotID)
	}
	return nil
}

func (s *Session) Close() error {
	if s.discord != nil {
		return s.discord.Close()
	}
	return nil
}

func (s *Session) AddHandler(handler interface{}) {
	s.discord.AddHandler(handler)
}
