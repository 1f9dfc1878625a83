package commands

import (
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"
)

// Admin handles /admin add, list and remove. Only the superuser manages
// the admin list itself.
func (c *Command) Admin(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.requireSuperuser(s, i) {
		return
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]
	opts := options(sub.Options)

	switch sub.Name {
	case "add":
		c.addAdmin(s, i, opts)
	case "remove":
		c.removeAdmin(s, i, opts)
	case "list":
		c.listAdmins(s, i)
	}
}

func (c *Command) addAdmin(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	target := userOption(s, opts)
	if target == nil {
		c.edit(s, i, "Cannot find this user.")
		return
	}

	if err := c.Admins.Add(target.ID); err != nil {
		log.Printf("[command] failed to add admin %s: %v", target.ID, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to add the admin.")
		return
	}

	log.Printf("[command] added %s as an admin", target.ID)
	c.edit(s, i, fmt.Sprintf("Added <@%s> as an admin.", target.ID))
}

func (c *Command) removeAdmin(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	target := userOption(s, opts)
	if target == nil {
		c.edit(s, i, "Cannot find this user.")
		return
	}

	if err := c.Admins.Remove(target.ID); err != nil {
		log.Printf("[command] failed to remove admin %s: %v", target.ID, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to remove the admin.")
		return
	}

	log.Printf("[command] removed %s as an admin", target.ID)
	c.edit(s, i, fmt.Sprintf("Removed <@%s> as an admin.", target.ID))
}

// AdminList is the /adminlist command, available to every admin.
func (c *Command) AdminList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.requireAdmin(s, i) {
		return
	}
	c.listAdmins(s, i)
}

func (c *Command) listAdmins(s *discordgo.Session, i *discordgo.InteractionCreate) {
	admins, err := c.Admins.All()
	if err != nil {
		log.Printf("[command] failed to get admins: %v", err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to get admins from the database.")
		return
	}
	if len(admins) == 0 {
		c.edit(s, i, "There are no admins in the database.")
		return
	}

	var sb strings.Builder
	for idx, admin := range admins {
		fmt.Fprintf(&sb, "%d. <@%s>\n", idx+1, admin.ID)
	}
	c.edit(s, i, sb.String())
}

// userOption resolves the required "user" option, or nil.
func userOption(s *discordgo.Session, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) *discordgo.User {
	opt, ok := opts["user"]
	if !ok {
		return nil
	}
	return opt.UserValue(s)
}
