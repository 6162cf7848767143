package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/BecasLan/BecasScore-sub005/pkg/util"
)

// DiscordDirectory reads member data through a discordgo session, preferring
// the state cache and falling back to REST.
type DiscordDirectory struct {
	session *discordgo.Session
}

func NewDiscordDirectory(session *discordgo.Session) *DiscordDirectory {
	return &DiscordDirectory{session: session}
}

func (d *DiscordDirectory) Member(ctx context.Context, scopeID, userID string) (*Member, error) {
	m, err := d.session.State.Member(scopeID, userID)
	if err != nil {
		m, err = d.session.GuildMember(scopeID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("member lookup failed for %s in %s: %w", userID, scopeID, err)
		}
	}

	joined := m.JoinedAt
	if joined.IsZero() {
		// Account creation from the snowflake when the join timestamp is
		// missing from cache.
		if id, err := util.SnowflakeToUint64(userID); err == nil {
			joined = time.UnixMilli(util.SnowflakeTime(id))
		}
	}

	return &Member{
		UserID:   userID,
		RoleIDs:  m.Roles,
		JoinedAt: joined,
		IsBot:    m.User != nil && m.User.Bot,
	}, nil
}
