package commands

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
)

// maxConfigDisplays caps how many server configs one reply renders.
const maxConfigDisplays = 5

// AdminConfig handles /adminconfig: inspecting any server's config and
// purging bad actor entries. The purge is the only way an entry ever
// leaves the database.
func (c *Command) AdminConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.requireAdmin(s, i) {
		return
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]
	opts := options(sub.Options)

	switch sub.Name {
	case "display_configs":
		c.displayConfigs(s, i, stringOption(opts, "server"))
	case "delete_bad_actor":
		c.deleteBadActor(s, i, uint(intOption(opts, "id", 0)))
	}
}

func (c *Command) displayConfigs(s *discordgo.Session, i *discordgo.InteractionCreate, raw string) {
	serverIDs := splitServerIDs(raw)
	if len(serverIDs) == 0 {
		c.edit(s, i, "You must provide at least one server ID.")
		return
	}
	if len(serverIDs) > maxConfigDisplays {
		c.edit(s, i, fmt.Sprintf("You can only display the configs for up to %d servers at a time.", maxConfigDisplays))
		return
	}

	configs, err := c.Configs.GetMany(serverIDs)
	if err != nil {
		log.Printf("[command] failed to get server configs: %v", err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to get the server configs from the database.")
		return
	}
	if len(configs) == 0 {
		c.edit(s, i, "No server configs found for the provided server IDs.")
		return
	}

	configEmbeds := make([]*discordgo.MessageEmbed, 0, len(configs))
	for idx := range configs {
		embed, err := c.configEmbed(&configs[idx])
		if err != nil {
			log.Printf("[command] failed to build the config embed for %s: %v", configs[idx].ServerID, err)
			c.edit(s, i, fmt.Sprintf("Failed to display the config for server %s.", configs[idx].ServerID))
			return
		}
		configEmbeds = append(configEmbeds, embed)
	}

	c.editComplex(s, i, &discordgo.WebhookEdit{Embeds: &configEmbeds})
}

// deleteBadActor purges an entry and its stored screenshot.
func (c *Command) deleteBadActor(s *discordgo.Session, i *discordgo.InteractionCreate, id uint) {
	actor, ok := c.getEntry(s, i, id)
	if !ok {
		return
	}

	if actor.ScreenshotProof != "" {
		if err := c.Screenshots.Delete(actor.ScreenshotProof); err != nil {
			log.Printf("[command] failed to delete screenshot %s for entry %d: %v", actor.ScreenshotProof, id, err)
		}
	}

	deleted, err := c.BadActors.Delete(id)
	if err != nil {
		log.Printf("[command] failed to delete entry %d: %v", id, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to delete the entry from the database.")
		return
	}

	log.Printf("[command] user %s deleted bad actor entry %d for user %s", interactionUser(i).ID, id, deleted.UserID)

	user, err := c.Gateway.User(deleted.UserID)
	if err != nil {
		log.Printf("[command] failed to fetch user %s: %v", deleted.UserID, err)
		c.edit(s, i, "Failed to fetch the user from Discord. They might have been deleted by Discord. The entry has been deleted from the database.")
		return
	}

	name := user.GlobalName
	if name == "" {
		name = user.Username
	}
	c.edit(s, i, fmt.Sprintf("User %s (`%s`) has been deleted from the bad actors list.", name, user.ID))
}
