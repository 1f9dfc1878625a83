package broadcast

import (
	"errors"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
)

var requiredPermissions = []struct {
	bit  int64
	name string
}{
	{discordgo.PermissionViewChannel, "View Channel"},
	{discordgo.PermissionSendMessages, "Send Messages"},
	{discordgo.PermissionEmbedLinks, "Embed Links"},
	{discordgo.PermissionAttachFiles, "Attach Files"},
}

// validChannels checks every listener's log channel independently and
// returns the ones the bot can actually deliver to. Servers dropped here
// receive neither the notification nor moderation action.
func (b *Broadcaster) validChannels(listeners []listener) []target {
	var targets []target

	for _, l := range listeners {
		guild, err := b.Gateway.Guild(l.config.ServerID)
		if err != nil {
			log.Printf("[broadcast] failed to fetch server %s, skipping this server: %v", l.config.ServerID, err)
			continue
		}

		channel, err := b.Gateway.Channel(l.config.LogChannel)
		if err != nil {
			log.Printf("[broadcast] failed to fetch channel %s for server %s, skipping this channel: %v", l.config.LogChannel, guild.ID, err)
			continue
		}

		if channel.Type != discordgo.ChannelTypeGuildText {
			log.Printf("[broadcast] log channel %s for server %s is not a text channel, skipping this channel", channel.ID, guild.ID)
			continue
		}

		missing, err := b.missingPermissions(channel.ID)
		if err != nil {
			// Best effort on purpose: an unconfirmable permission gap must
			// not starve a server of broadcasts.
			log.Printf("[broadcast] could not verify permissions in channel %s for server %s, using it anyway: %v", channel.ID, guild.ID, err)
		} else if len(missing) > 0 {
			err := errors.New("missing permissions in channel " + channel.ID + " for server " + guild.ID + ": " + strings.Join(missing, ", "))
			log.Printf("[broadcast] %v, skipping server", err)
			sentry.CaptureException(err)
			continue
		}

		targets = append(targets, target{listener: l, guild: guild, channel: channel})
	}

	return targets
}

// missingPermissions returns the names of required channel permissions the
// bot does not hold.
func (b *Broadcaster) missingPermissions(channelID string) ([]string, error) {
	botID := b.Gateway.BotUserID()
	if botID == "" {
		return nil, errors.New("bot user not known")
	}

	permissions, err := b.Gateway.ChannelPermissions(botID, channelID)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, required := range requiredPermissions {
		if permissions&required.bit == 0 {
			missing = append(missing, required.name)
		}
	}
	return missing, nil
}
