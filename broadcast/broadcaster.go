package broadcast

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"

	"janitor-bot/models"
)

// ConfigSource supplies the server configs eligible for broadcasting.
type ConfigSource interface {
	All() ([]models.ServerConfig, error)
}

// UserSource supplies the whitelisted users of a server, used for pings.
type UserSource interface {
	ByServer(serverID string) ([]models.User, error)
}

// Attachment is a rendered screenshot held as bytes so the same render can
// be sent to every recipient.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// File wraps the bytes in a fresh reader so the attachment can be sent
// more than once.
func (a *Attachment) File() *discordgo.File {
	return &discordgo.File{
		Name:        a.Name,
		ContentType: a.ContentType,
		Reader:      bytes.NewReader(a.Data),
	}
}

// Renderer builds the presentation of a bad actor entry. It runs exactly
// once per broadcast.
type Renderer func(actor *models.BadActor, kind Kind) (*discordgo.MessageEmbed, *Attachment, error)

// Broadcaster fans a bad actor mutation out to the admin server and every
// subscribed server, then takes moderation action for new reports. It is
// stateless; one instance serves all broadcasts.
type Broadcaster struct {
	Gateway Gateway
	Configs ConfigSource
	Users   UserSource
	Render  Renderer

	AdminServerID   string
	AdminLogChannel string
}

// listener is a server config that has a log channel, paired with the
// whitelisted users to ping there.
type listener struct {
	config  models.ServerConfig
	userIDs []string
}

// target is a listener whose log channel passed validation.
type target struct {
	listener
	guild   *discordgo.Guild
	channel *discordgo.Channel
}

// Broadcast delivers one mutation. It never returns an error: every stage
// below it degrades to skipping the affected server, and a broadcast is
// best effort by contract. The only fatal stage is rendering.
func (b *Broadcaster) Broadcast(actor *models.BadActor, kind Kind) {
	defer sentry.Recover()

	targets := b.validChannels(b.listeners())

	embed, attachment, err := b.Render(actor, kind)
	if err != nil {
		log.Printf("[broadcast] failed to render entry %d, aborting broadcast: %v", actor.ID, err)
		sentry.CaptureException(err)
		return
	}

	line := kind.Notification()

	// The admin server hears about every event first, even with zero
	// listeners.
	if err := b.send(b.AdminLogChannel, line, embed, attachment); err != nil {
		log.Printf("[broadcast] failed to broadcast to admin server: %v", err)
		sentry.CaptureException(err)
	}

	b.sendToServers(targets, line, embed, attachment)

	if kind == KindReport {
		b.moderate(actor, targets)
	}
}

// listeners returns every server config with a log channel, enriched with
// that server's whitelisted users. A failure for one server skips only
// that server.
func (b *Broadcaster) listeners() []listener {
	configs, err := b.Configs.All()
	if err != nil {
		log.Printf("[broadcast] failed to get server configs: %v", err)
		sentry.CaptureException(err)
		return nil
	}

	var listeners []listener
	for _, cfg := range configs {
		if cfg.LogChannel == "" {
			log.Printf("[broadcast] no log channel set for server %s, skipping it for broadcasting", cfg.ServerID)
			continue
		}

		users, err := b.Users.ByServer(cfg.ServerID)
		if err != nil {
			log.Printf("[broadcast] failed to get users for server %s, skipping their server: %v", cfg.ServerID, err)
			continue
		}

		ids := make([]string, 0, len(users))
		for _, user := range users {
			ids = append(ids, user.ID)
		}

		listeners = append(listeners, listener{config: cfg, userIDs: ids})
	}

	return listeners
}

// sendToServers delivers the notification to every validated channel
// concurrently. All sends are launched together and joined; one failing
// recipient never cancels another.
func (b *Broadcaster) sendToServers(targets []target, line string, embed *discordgo.MessageEmbed, attachment *Attachment) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)

	for _, t := range targets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			defer sentry.Recover()

			if err := b.send(t.channel.ID, b.messageFor(t, line), embed, attachment); err != nil {
				log.Printf("[broadcast] failed to send to channel %s in server %s: %v", t.channel.ID, t.guild.ID, err)
				sentry.CaptureException(err)

				mu.Lock()
				failed = append(failed, t.guild.ID)
				mu.Unlock()
			}
		}(t)
	}
	wg.Wait()

	if len(failed) > 0 {
		log.Printf("[broadcast] delivered to %d/%d servers, failed: %s", len(targets)-len(failed), len(targets), strings.Join(failed, ", "))
	}
}

// messageFor augments the shared notification line with the server's ping
// preferences.
func (b *Broadcaster) messageFor(t target, line string) string {
	var sb strings.Builder
	sb.WriteString(line)

	if t.config.PingUsers && len(t.userIDs) > 0 {
		mentions := make([]string, 0, len(t.userIDs))
		for _, id := range t.userIDs {
			mentions = append(mentions, "<@"+id+">")
		}
		sb.WriteString("\n")
		sb.WriteString(strings.Join(mentions, " "))
	}

	if t.config.PingRole != "" {
		sb.WriteString("\n<@&" + t.config.PingRole + ">")
	}

	return sb.String()
}

func (b *Broadcaster) send(channelID, content string, embed *discordgo.MessageEmbed, attachment *Attachment) error {
	message := &discordgo.MessageSend{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	}
	if attachment != nil {
		message.Files = []*discordgo.File{attachment.File()}
	}
	return b.Gateway.SendMessage(channelID, message)
}

// notify sends a plain status line to a server's log channel. Moderation
// outcomes are never silent, so a failure here is still logged.
func (b *Broadcaster) notify(t target, content string) {
	if err := b.Gateway.SendMessage(t.channel.ID, &discordgo.MessageSend{Content: content}); err != nil {
		log.Printf("[broadcast] failed to notify server %s: %v", t.guild.ID, err)
		sentry.CaptureException(err)
	}
}

func displayUser(user *discordgo.User) string {
	name := user.GlobalName
	if name == "" {
		name = user.Username
	}
	return fmt.Sprintf("%s (`%s`)", name, user.ID)
}
