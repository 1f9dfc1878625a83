package commands

import (
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"

	"janitor-bot/broadcast"
	"janitor-bot/config"
	"janitor-bot/models"
	"janitor-bot/storage"
)

// Command routes slash commands and button presses to their handlers. One
// instance serves the whole session.
type Command struct {
	Config      *config.Configuration
	Broadcaster *broadcast.Broadcaster
	Gateway     broadcast.Gateway
	BadActors   *models.BadActorStore
	Configs     *models.ServerConfigStore
	Users       *models.UserStore
	Admins      *models.AdminStore
	Screenshots *storage.Screenshots

	mu      sync.Mutex
	pending map[string]*pendingReport
}

// Handle is the InteractionCreate handler.
func (c *Command) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer sentry.Recover()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		c.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		c.handleComponent(s, i)
	}
}

func (c *Command) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	log.Printf("[command] %s used /%s in %s", interactionUser(i).ID, name, i.GuildID)

	if err := c.ack(s, i); err != nil {
		log.Printf("[command] failed to defer reply for /%s: %v", name, err)
		sentry.CaptureException(err)
		return
	}

	switch name {
	case "badactor":
		c.BadActor(s, i)
	case "user":
		c.User(s, i)
	case "config":
		c.ServerConfig(s, i)
	case "admin":
		c.Admin(s, i)
	case "adminconfig":
		c.AdminConfig(s, i)
	case "adminlist":
		c.AdminList(s, i)
	default:
		c.edit(s, i, "Unknown command.")
	}
}

// ack defers the reply so handlers can take their time and edit later.
func (c *Command) ack(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (c *Command) edit(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	c.editComplex(s, i, &discordgo.WebhookEdit{Content: &content})
}

func (c *Command) editComplex(s *discordgo.Session, i *discordgo.InteractionCreate, edit *discordgo.WebhookEdit) {
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		log.Printf("[command] failed to edit reply: %v", err)
		sentry.CaptureException(err)
	}
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// requireGuild rejects DM usage.
func (c *Command) requireGuild(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.GuildID == "" {
		c.edit(s, i, "This command can only be used in a server.")
		return false
	}
	return true
}

// requireWhitelisted checks that the invoking user is on the whitelist and
// returns their row.
func (c *Command) requireWhitelisted(s *discordgo.Session, i *discordgo.InteractionCreate) *models.User {
	if !c.requireGuild(s, i) {
		return nil
	}

	user := interactionUser(i)
	dbUser, err := c.Users.Get(user.ID)
	if err != nil {
		log.Printf("[command] user %s is not whitelisted: %v", user.ID, err)
		c.edit(s, i, "You do not have permission to use this command.")
		return nil
	}

	if !dbUser.Servers.Contains(i.GuildID) {
		log.Printf("[command] user %s used a command outside their allowed servers", user.ID)
		c.edit(s, i, "This command can only be used in your server(s).")
		return nil
	}

	return dbUser
}

// requireAdmin checks that the invoking user is a bot admin acting in the
// admin server.
func (c *Command) requireAdmin(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if !c.requireGuild(s, i) {
		return false
	}

	user := interactionUser(i)
	isAdmin, err := c.Admins.IsAdmin(user.ID)
	if err != nil {
		log.Printf("[command] failed to check admin status for %s: %v", user.ID, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Error fetching admin.")
		return false
	}
	if !isAdmin {
		log.Printf("[command] user %s attempted an admin command without permission", user.ID)
		c.edit(s, i, "You do not have permission to use this command.")
		return false
	}

	if i.GuildID != c.Config.AdminServerID {
		log.Printf("[command] user %s attempted an admin command outside the admin server", user.ID)
		c.edit(s, i, "This command can only be used in the admin server.")
		return false
	}

	return true
}

// requireSuperuser restricts admin management to the configured superuser
// acting in the admin server.
func (c *Command) requireSuperuser(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if !c.requireGuild(s, i) {
		return false
	}

	user := interactionUser(i)
	if user.ID != c.Config.SuperuserID {
		log.Printf("[command] user %s attempted a superuser command without permission", user.ID)
		c.edit(s, i, "You do not have permission to use this command.")
		return false
	}

	if i.GuildID != c.Config.AdminServerID {
		log.Printf("[command] user %s attempted a superuser command outside the admin server", user.ID)
		c.edit(s, i, "This command can only be used in the admin server.")
		return false
	}

	return true
}

// options flattens a subcommand's options into a name-keyed map.
func options(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func stringOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := m[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func intOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, fallback int64) int64 {
	if opt, ok := m[name]; ok {
		return opt.IntValue()
	}
	return fallback
}

func boolOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (bool, bool) {
	if opt, ok := m[name]; ok {
		return opt.BoolValue(), true
	}
	return false, false
}

func attachmentOption(i *discordgo.InteractionCreate, m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.MessageAttachment {
	opt, ok := m[name]
	if !ok {
		return nil
	}
	id, ok := opt.Value.(string)
	if !ok {
		return nil
	}
	resolved := i.ApplicationCommandData().Resolved
	if resolved == nil {
		return nil
	}
	return resolved.Attachments[id]
}
