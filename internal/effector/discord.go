package effector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/BecasLan/BecasScore-sub005/internal/logging"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

// DiscordEffector executes enforcement through a discordgo session. Ban and
// kick go through the pooled REST fast path when one is configured.
type DiscordEffector struct {
	session *discordgo.Session
	rest    *RESTExecutor
}

func NewDiscordEffector(session *discordgo.Session, rest *RESTExecutor) *DiscordEffector {
	return &DiscordEffector{session: session, rest: rest}
}

func (d *DiscordEffector) Execute(ctx context.Context, kind models.ActionKind, scopeID, targetUserID string, params map[string]string) Outcome {
	reason := params["reason"]
	if reason == "" {
		reason = "automated enforcement"
	}

	var err error
	switch kind {
	case models.ActionWarn:
		err = d.warn(ctx, scopeID, targetUserID, params, reason)
	case models.ActionTimeout:
		err = d.timeout(ctx, scopeID, targetUserID, params)
	case models.ActionKick:
		err = d.kick(ctx, scopeID, targetUserID, reason)
	case models.ActionBan:
		err = d.ban(ctx, scopeID, targetUserID, reason)
	case models.ActionRemoveRole:
		err = d.roleChange(ctx, scopeID, targetUserID, params, false)
	case models.ActionAddRole:
		err = d.roleChange(ctx, scopeID, targetUserID, params, true)
	case models.ActionAnnounce:
		err = d.announce(ctx, params)
	case models.ActionNone:
		return Outcome{Success: true, Message: "no-op"}
	default:
		err = fmt.Errorf("unsupported action kind %q", kind)
	}

	if err != nil {
		return Outcome{Success: false, Message: err.Error()}
	}
	return Outcome{Success: true, Message: string(kind) + " executed"}
}

func (d *DiscordEffector) warn(ctx context.Context, scopeID, userID string, params map[string]string, reason string) error {
	message := params["message"]
	if message == "" {
		message = fmt.Sprintf("You have received a warning: %s", reason)
	}

	channel, err := d.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		// DM closed; fall back to the configured channel when present.
		if fallback := params["channel_id"]; fallback != "" {
			_, err = d.session.ChannelMessageSend(fallback, fmt.Sprintf("<@%s> %s", userID, message), discordgo.WithContext(ctx))
			return err
		}
		return fmt.Errorf("warn delivery failed for %s: %w", userID, err)
	}
	_, err = d.session.ChannelMessageSend(channel.ID, message, discordgo.WithContext(ctx))
	return err
}

func (d *DiscordEffector) timeout(ctx context.Context, scopeID, userID string, params map[string]string) error {
	seconds := 600
	if raw := params["duration_seconds"]; raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			seconds = parsed
		}
	}
	until := time.Now().Add(time.Duration(seconds) * time.Second)
	return d.session.GuildMemberTimeout(scopeID, userID, &until, discordgo.WithContext(ctx))
}

func (d *DiscordEffector) kick(ctx context.Context, scopeID, userID, reason string) error {
	if d.rest != nil {
		if _, err := d.rest.Kick(scopeID, userID, reason); err == nil {
			return nil
		} else {
			logging.Warn("rest kick failed for %s, falling back to session: %v", userID, err)
		}
	}
	return d.session.GuildMemberDeleteWithReason(scopeID, userID, reason, discordgo.WithContext(ctx))
}

func (d *DiscordEffector) ban(ctx context.Context, scopeID, userID, reason string) error {
	if d.rest != nil {
		if _, err := d.rest.Ban(scopeID, userID, reason); err == nil {
			return nil
		} else {
			logging.Warn("rest ban failed for %s, falling back to session: %v", userID, err)
		}
	}
	return d.session.GuildBanCreateWithReason(scopeID, userID, reason, 0, discordgo.WithContext(ctx))
}

func (d *DiscordEffector) roleChange(ctx context.Context, scopeID, userID string, params map[string]string, add bool) error {
	roleID := params["role_id"]
	if roleID == "" {
		return fmt.Errorf("role action without role_id")
	}
	if add {
		return d.session.GuildMemberRoleAdd(scopeID, userID, roleID, discordgo.WithContext(ctx))
	}
	return d.session.GuildMemberRoleRemove(scopeID, userID, roleID, discordgo.WithContext(ctx))
}

func (d *DiscordEffector) announce(ctx context.Context, params map[string]string) error {
	channelID := params["channel_id"]
	if channelID == "" {
		return fmt.Errorf("announce action without channel_id")
	}
	message := params["message"]
	if message == "" {
		message = params["reason"]
	}
	_, err := d.session.ChannelMessageSend(channelID, message, discordgo.WithContext(ctx))
	return err
}
