package broadcast

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// Gateway is the slice of the Discord API the broadcaster needs. Tests
// substitute a fake; production wraps a *discordgo.Session.
type Gateway interface {
	Guild(guildID string) (*discordgo.Guild, error)
	Channel(channelID string) (*discordgo.Channel, error)
	GuildMember(guildID, userID string) (*discordgo.Member, error)
	User(userID string) (*discordgo.User, error)

	// BotUserID returns the bot's own user ID, or "" if it is not known
	// yet.
	BotUserID() string

	// ChannelPermissions returns the permission bits a user holds in a
	// channel.
	ChannelPermissions(userID, channelID string) (int64, error)

	SendMessage(channelID string, message *discordgo.MessageSend) error

	Ban(guildID, userID, reason string, purgeDays int) error
	Unban(guildID, userID string) error
	Kick(guildID, userID, reason string) error
	Timeout(guildID, userID string, until time.Time) error
}

type sessionGateway struct {
	session *discordgo.Session
}

// NewGateway wraps a discordgo session as a Gateway.
func NewGateway(session *discordgo.Session) Gateway {
	return &sessionGateway{session: session}
}

func (g *sessionGateway) Guild(guildID string) (*discordgo.Guild, error) {
	return g.session.Guild(guildID)
}

func (g *sessionGateway) Channel(channelID string) (*discordgo.Channel, error) {
	return g.session.Channel(channelID)
}

func (g *sessionGateway) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	return g.session.GuildMember(guildID, userID)
}

func (g *sessionGateway) User(userID string) (*discordgo.User, error) {
	return g.session.User(userID)
}

func (g *sessionGateway) BotUserID() string {
	if g.session.State != nil && g.session.State.User != nil {
		return g.session.State.User.ID
	}
	return ""
}

func (g *sessionGateway) ChannelPermissions(userID, channelID string) (int64, error) {
	return g.session.UserChannelPermissions(userID, channelID)
}

func (g *sessionGateway) SendMessage(channelID string, message *discordgo.MessageSend) error {
	_, err := g.session.ChannelMessageSendComplex(channelID, message)
	return err
}

func (g *sessionGateway) Ban(guildID, userID, reason string, purgeDays int) error {
	return g.session.GuildBanCreateWithReason(guildID, userID, reason, purgeDays)
}

func (g *sessionGateway) Unban(guildID, userID string) error {
	return g.session.GuildBanDelete(guildID, userID)
}

func (g *sessionGateway) Kick(guildID, userID, reason string) error {
	return g.session.GuildMemberDeleteWithReason(guildID, userID, reason)
}

func (g *sessionGateway) Timeout(guildID, userID string, until time.Time) error {
	return g.session.GuildMemberTimeout(guildID, userID, &until)
}
