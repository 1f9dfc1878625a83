package commands

import (
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"

	"janitor-bot/models"
)

// User handles every /user subcommand. The whitelist drives the server
// config lifecycle: configs appear with the first user of a server and
// disappear with the last one.
func (c *Command) User(s *discordgo.Session, i *discordgo.InteractionCreate) {
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
	case "add":
		c.addUser(s, i, opts)
	case "update":
		c.updateUser(s, i, opts)
	case "remove":
		c.removeUser(s, i, opts)
	case "info":
		c.userInfo(s, i, opts)
	case "list":
		c.listUsers(s, i)
	case "list_by_server":
		c.listUsersByServer(s, i, stringOption(opts, "server_id"))
	}
}

func (c *Command) addUser(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	target, servers, userType, ok := c.userArgs(s, i, opts)
	if !ok {
		return
	}

	user, err := c.Users.Create(models.User{
		ID:       target.ID,
		UserType: userType,
		Servers:  models.StringList(servers),
	})
	if err != nil {
		log.Printf("[command] failed to add user %s to the whitelist: %v", target.ID, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to add the user to the whitelist.")
		return
	}

	for _, serverID := range user.Servers {
		if _, err := c.Configs.CreateIfNotExists(serverID); err != nil {
			log.Printf("[command] failed to create server config for %s: %v", serverID, err)
			sentry.CaptureException(err)
		}
	}

	log.Printf("[command] added user %s to the whitelist", user.ID)
	c.edit(s, i, fmt.Sprintf("Added <@%s> to the whitelist as %s for server(s) %s.", user.ID, user.UserType, formatServers(user.Servers)))
}

func (c *Command) updateUser(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	target, servers, userType, ok := c.userArgs(s, i, opts)
	if !ok {
		return
	}

	previous, err := c.Users.Get(target.ID)
	if err != nil {
		c.edit(s, i, "This user is not on the whitelist.")
		return
	}

	user, err := c.Users.Update(models.User{
		ID:        target.ID,
		UserType:  userType,
		Servers:   models.StringList(servers),
		CreatedAt: previous.CreatedAt,
	})
	if err != nil {
		log.Printf("[command] failed to update user %s: %v", target.ID, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to update the user.")
		return
	}

	for _, serverID := range user.Servers {
		if _, err := c.Configs.CreateIfNotExists(serverID); err != nil {
			log.Printf("[command] failed to create server config for %s: %v", serverID, err)
			sentry.CaptureException(err)
		}
	}
	c.cleanupConfigs(previous.Servers, user.Servers)

	log.Printf("[command] updated user %s on the whitelist", user.ID)
	c.edit(s, i, fmt.Sprintf("Updated <@%s> on the whitelist as %s for server(s) %s.", user.ID, user.UserType, formatServers(user.Servers)))
}

func (c *Command) removeUser(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	userOpt, ok := opts["user"]
	if !ok {
		c.edit(s, i, "You must provide a user.")
		return
	}
	target := userOpt.UserValue(s)
	if target == nil {
		c.edit(s, i, "Cannot find this user.")
		return
	}

	removed, err := c.Users.Delete(target.ID)
	if err != nil {
		log.Printf("[command] failed to remove user %s from the whitelist: %v", target.ID, err)
		c.edit(s, i, "Failed to remove the user from the whitelist.")
		return
	}

	c.cleanupConfigs(removed.Servers, nil)

	log.Printf("[command] removed user %s from the whitelist", removed.ID)
	c.edit(s, i, fmt.Sprintf("Removed <@%s> from the whitelist.", removed.ID))
}

func (c *Command) userInfo(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	userOpt, ok := opts["user"]
	if !ok {
		c.edit(s, i, "You must provide a user.")
		return
	}
	target := userOpt.UserValue(s)
	if target == nil {
		c.edit(s, i, "Cannot find this user.")
		return
	}

	user, err := c.Users.Get(target.ID)
	if err != nil {
		c.edit(s, i, "This user is not on the whitelist.")
		return
	}

	c.edit(s, i, fmt.Sprintf("<@%s> is whitelisted as %s for server(s) %s.", user.ID, user.UserType, formatServers(user.Servers)))
}

func (c *Command) listUsers(s *discordgo.Session, i *discordgo.InteractionCreate) {
	users, err := c.Users.All()
	if err != nil {
		log.Printf("[command] failed to list users: %v", err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to get users from the database.")
		return
	}
	if len(users) == 0 {
		c.edit(s, i, "There are no users on the whitelist.")
		return
	}

	names := c.serverNames()
	var sb strings.Builder
	for _, user := range users {
		fmt.Fprintf(&sb, "<@%s> (%s) - %s\n", user.ID, user.UserType, formatServerNames(user.Servers, names))
	}
	c.edit(s, i, sb.String())
}

// serverNames resolves every server any whitelisted user belongs to.
// Servers the bot cannot fetch are left out and fall back to their ID.
func (c *Command) serverNames() map[string]string {
	ids, err := c.Users.UniqueServerIDs()
	if err != nil {
		log.Printf("[command] failed to get server IDs from the database: %v", err)
		sentry.CaptureException(err)
		return nil
	}

	names := make(map[string]string, len(ids))
	for _, id := range ids {
		guild, err := c.Gateway.Guild(id)
		if err != nil {
			log.Printf("[command] failed to fetch guild %s: %v", id, err)
			continue
		}
		names[id] = guild.Name
	}
	return names
}

func (c *Command) listUsersByServer(s *discordgo.Session, i *discordgo.InteractionCreate, serverID string) {
	if serverID == "" {
		c.edit(s, i, "You must provide a server ID.")
		return
	}

	users, err := c.Users.ByServer(serverID)
	if err != nil {
		log.Printf("[command] failed to list users for server %s: %v", serverID, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to get users from the database.")
		return
	}
	if len(users) == 0 {
		c.edit(s, i, "There are no whitelisted users for this server.")
		return
	}

	var sb strings.Builder
	for _, user := range users {
		fmt.Fprintf(&sb, "<@%s> (%s)\n", user.ID, user.UserType)
	}
	c.edit(s, i, sb.String())
}

// userArgs parses the shared options of /user add and /user update.
func (c *Command) userArgs(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (*discordgo.User, []string, models.UserType, bool) {
	userOpt, ok := opts["user"]
	if !ok {
		c.edit(s, i, "You must provide a user.")
		return nil, nil, "", false
	}
	target := userOpt.UserValue(s)
	if target == nil {
		c.edit(s, i, "Cannot find this user.")
		return nil, nil, "", false
	}

	servers := splitServerIDs(stringOption(opts, "server_id"))
	if len(servers) == 0 {
		c.edit(s, i, "You must provide at least one server ID.")
		return nil, nil, "", false
	}

	userType := models.UserType(stringOption(opts, "user_type"))
	if userType != models.UserTypeReporter && userType != models.UserTypeListener {
		c.edit(s, i, "You must provide a valid user type.")
		return nil, nil, "", false
	}

	return target, servers, userType, true
}

// cleanupConfigs drops configs of servers the user no longer lists, unless
// another user still lists them.
func (c *Command) cleanupConfigs(previous, current models.StringList) {
	for _, serverID := range previous {
		if current.Contains(serverID) || serverID == c.Config.AdminServerID {
			continue
		}
		deleted, err := c.Configs.DeleteIfOrphaned(serverID, c.Users)
		if err != nil {
			log.Printf("[command] failed to clean up server config for %s: %v", serverID, err)
			sentry.CaptureException(err)
			continue
		}
		if deleted {
			log.Printf("[command] deleted orphaned server config for %s", serverID)
		}
	}
}

func splitServerIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func formatServers(servers models.StringList) string {
	quoted := make([]string, 0, len(servers))
	for _, id := range servers {
		quoted = append(quoted, "`"+id+"`")
	}
	return strings.Join(quoted, ", ")
}

func formatServerNames(servers models.StringList, names map[string]string) string {
	parts := make([]string, 0, len(servers))
	for _, id := range servers {
		if name, ok := names[id]; ok {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, "`"+id+"`")
	}
	return strings.Join(parts, ", ")
}
