package commands

import (
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"

	"janitor-bot/embeds"
	"janitor-bot/models"
)

// ServerConfig handles /config display and /config update for the server
// the command was used in.
func (c *Command) ServerConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if c.requireWhitelisted(s, i) == nil {
		return
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]
	opts := options(sub.Options)

	switch sub.Name {
	case "display":
		c.displayConfig(s, i)
	case "update":
		c.updateConfig(s, i, opts)
	}
}

func (c *Command) displayConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg, err := c.Configs.Get(i.GuildID)
	if err != nil {
		log.Printf("[command] failed to get server config for %s: %v", i.GuildID, err)
		c.edit(s, i, "There is no config for this server.")
		return
	}

	c.replyConfig(s, i, cfg)
}

// updateConfig merges the provided options into the server's config. Only
// options that were actually passed change anything; an explicit Notify
// (level 0) is a real update.
func (c *Command) updateConfig(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	var update models.ServerConfigUpdate

	if opt, ok := opts["log_channel"]; ok {
		channel := opt.ChannelValue(s)
		if channel == nil || channel.Type != discordgo.ChannelTypeGuildText {
			c.edit(s, i, "The log channel must be a text channel.")
			return
		}
		update.LogChannel = &channel.ID
	}
	if value, ok := boolOption(opts, "ping_users"); ok {
		update.PingUsers = &value
	}
	if opt, ok := opts["ping_role"]; ok {
		role := opt.RoleValue(s, i.GuildID)
		if role == nil {
			c.edit(s, i, "Cannot find this role.")
			return
		}
		update.PingRole = &role.ID
	}
	if opt, ok := opts["spam_action_level"]; ok {
		level := models.ActionLevel(opt.IntValue())
		update.SpamActionLevel = &level
	}
	if opt, ok := opts["impersonation_action_level"]; ok {
		level := models.ActionLevel(opt.IntValue())
		update.ImpersonationActionLevel = &level
	}
	if opt, ok := opts["bigotry_action_level"]; ok {
		level := models.ActionLevel(opt.IntValue())
		update.BigotryActionLevel = &level
	}
	if value, ok := boolOption(opts, "timeout_users_with_role"); ok {
		update.TimeoutUsersWithRole = &value
	}
	if opt, ok := opts["ignored_roles"]; ok {
		update.IgnoredRoles = splitServerIDs(opt.StringValue())
	}

	cfg, err := c.Configs.Update(i.GuildID, update)
	if err != nil {
		log.Printf("[command] failed to update server config for %s: %v", i.GuildID, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to update the server config.")
		return
	}

	log.Printf("[command] user %s updated the server config for %s", interactionUser(i).ID, i.GuildID)
	c.replyConfig(s, i, cfg)
}

func (c *Command) replyConfig(s *discordgo.Session, i *discordgo.InteractionCreate, cfg *models.ServerConfig) {
	embed, err := c.configEmbed(cfg)
	if err != nil {
		log.Printf("[command] failed to build the config embed for %s: %v", cfg.ServerID, err)
		c.edit(s, i, "Failed to display the server config.")
		return
	}
	c.editComplex(s, i, &discordgo.WebhookEdit{Embeds: &[]*discordgo.MessageEmbed{embed}})
}

// configEmbed builds the config embed for any server, not just the one a
// command was used in.
func (c *Command) configEmbed(cfg *models.ServerConfig) (*discordgo.MessageEmbed, error) {
	guild, err := c.Gateway.Guild(cfg.ServerID)
	if err != nil {
		return nil, err
	}

	users, err := c.Users.ByServer(cfg.ServerID)
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(users))
	for _, user := range users {
		userIDs = append(userIDs, user.ID)
	}

	return embeds.ServerConfig(cfg, guild, userIDs), nil
}
