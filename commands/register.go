package commands

import (
	"github.com/bwmarrin/discordgo"
)

var actorTypeChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Spam", Value: "spam"},
	{Name: "Impersonation", Value: "impersonation"},
	{Name: "Bigotry", Value: "bigotry"},
}

var actionLevelChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Notify", Value: 0},
	{Name: "Timeout", Value: 1},
	{Name: "Kick", Value: 2},
	{Name: "Soft Ban", Value: 3},
	{Name: "Ban", Value: 4},
}

func idOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "id",
		Description: description,
		Required:    true,
	}
}

// Definitions returns every slash command the bot registers.
func Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "badactor",
			Description: "Report a bad actor to the community or manage a report",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "report",
					Description: "Report a user for being naughty",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user to report. You can also paste their ID here.", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "type", Description: "The type of bad act the user did", Choices: actorTypeChoices, Required: true},
						{Type: discordgo.ApplicationCommandOptionAttachment, Name: "screenshot", Description: "A screenshot of the bad act. You can upload a file here."},
						{Type: discordgo.ApplicationCommandOptionString, Name: "explanation", Description: "If you can't provide a screenshot, please explain what happened here."},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "deactivate",
					Description: "Deactivate a bad actor entry",
					Options: []*discordgo.ApplicationCommandOption{
						idOption("The database ID of the entry to deactivate"),
						{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "The reason for deactivating the report", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reactivate",
					Description: "Reactivate a bad actor entry",
					Options: []*discordgo.ApplicationCommandOption{
						idOption("The database ID of the entry to reactivate"),
						{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "The reason for reactivating the report", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add_screenshot",
					Description: "Add a screenshot to an entry that doesn't have one yet",
					Options: []*discordgo.ApplicationCommandOption{
						idOption("The database ID of the entry to add the screenshot to"),
						{Type: discordgo.ApplicationCommandOptionAttachment, Name: "screenshot", Description: "The screenshot to add to the report", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "replace_screenshot",
					Description: "Replace the screenshot of an entry, removing the old one",
					Options: []*discordgo.ApplicationCommandOption{
						idOption("The database ID of the entry to update the screenshot of"),
						{Type: discordgo.ApplicationCommandOptionAttachment, Name: "screenshot", Description: "The new screenshot to add to the report", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "update_explanation",
					Description: "Add or update the explanation of an entry",
					Options: []*discordgo.ApplicationCommandOption{
						idOption("The database ID of the entry to update the explanation of"),
						{Type: discordgo.ApplicationCommandOptionString, Name: "explanation", Description: "The explanation to add to the report", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "display_latest",
					Description: "Display the latest bad actors",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "amount", Description: "The amount of bad actors to display. Default 5. Max 10."},
						{Type: discordgo.ApplicationCommandOptionString, Name: "filter", Description: "Which entries to display. Default all.", Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "All", Value: "all"},
							{Name: "Active", Value: "active"},
							{Name: "Inactive", Value: "inactive"},
						}},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "display_by_user",
					Description: "Display all entries of a user",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user to display the entries of", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "display_by_id",
					Description: "Display an entry by its database ID",
					Options: []*discordgo.ApplicationCommandOption{
						idOption("The database ID of the entry to display"),
					},
				},
			},
		},
		{
			Name:        "user",
			Description: "Manage the user whitelist",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a user to the whitelist",
					Options:     userOptions(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "update",
					Description: "Update a user on the whitelist",
					Options:     userOptions(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a user from the whitelist",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user to remove from the whitelist", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "info",
					Description: "Get information about a user on the whitelist",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user to get information about", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List all users on the whitelist",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list_by_server",
					Description: "List all whitelisted users of a server",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "server_id", Description: "The server to get users for", Required: true},
					},
				},
			},
		},
		{
			Name:        "config",
			Description: "Display or update this server's config",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "display",
					Description: "Display this server's config",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "update",
					Description: "Update this server's config",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "log_channel", Description: "The channel broadcasts are delivered to"},
						{Type: discordgo.ApplicationCommandOptionBoolean, Name: "ping_users", Description: "Whether to ping the whitelisted users on a broadcast"},
						{Type: discordgo.ApplicationCommandOptionRole, Name: "ping_role", Description: "A role to ping on a broadcast"},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "spam_action_level", Description: "The action taken for spam reports", Choices: actionLevelChoices},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "impersonation_action_level", Description: "The action taken for impersonation reports", Choices: actionLevelChoices},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "bigotry_action_level", Description: "The action taken for bigotry reports", Choices: actionLevelChoices},
						{Type: discordgo.ApplicationCommandOptionBoolean, Name: "timeout_users_with_role", Description: "Whether users with non-ignored roles are timed out instead of skipped"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "ignored_roles", Description: "Role IDs exempt from moderation, separated by commas"},
					},
				},
			},
		},
		{
			Name:        "admin",
			Description: "Manage the bot admins",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add an admin",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user to add", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List all admins",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove an admin",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user to remove", Required: true},
					},
				},
			},
		},
		{
			Name:        "adminconfig",
			Description: "Inspect server configs and purge bad actor entries",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "display_configs",
					Description: "Display the server configs for one or multiple servers",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "server", Description: "Server ID(s) to display the config for, separated by commas. Max 5.", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete_bad_actor",
					Description: "Delete a bad actor entry from the database",
					Options: []*discordgo.ApplicationCommandOption{
						idOption("The database ID of the entry to delete"),
					},
				},
			},
		},
		{
			Name:        "adminlist",
			Description: "List the bot admins",
		},
	}
}

func userOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user on the whitelist", Required: true},
		{Type: discordgo.ApplicationCommandOptionString, Name: "server_id", Description: "Server(s) for bot usage, separated by commas. Admin server always included.", Required: true},
		{Type: discordgo.ApplicationCommandOptionString, Name: "user_type", Description: "Whether the user can only receive reports or also create them", Required: true, Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "reporter", Value: "reporter"},
			{Name: "listener", Value: "listener"},
		}},
	}
}

// Register overwrites the bot's global slash commands.
func Register(s *discordgo.Session, appID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(appID, "", Definitions())
	return err
}
