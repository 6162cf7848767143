package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
	"github.com/BecasLan/BecasScore-sub005/internal/watch"
)

const evaluateTimeout = 10 * time.Second

// Ingestor turns gateway messages into behavior events for the registry.
// Evaluation runs off the gateway goroutine so classifier latency never
// stalls event delivery.
type Ingestor struct {
	registry *watch.Registry
}

func NewIngestor(registry *watch.Registry) *Ingestor {
	return &Ingestor{registry: registry}
}

func (in *Ingestor) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil {
		return
	}
	if m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	if m.Content == "" {
		return
	}

	event := models.BehaviorEvent{
		EventID:   m.ID,
		ScopeID:   m.GuildID,
		UserID:    m.Author.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Timestamp: time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), evaluateTimeout)
		defer cancel()

		triggers := in.registry.OnEvent(ctx, event)
		if len(triggers) > 0 {
			logging.Debug("message %s from %s fired %d trigger(s)", event.EventID, event.UserID, len(triggers))
		}
	}()
}
