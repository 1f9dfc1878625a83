// Package embeds renders the bot's Discord embeds. The bad actor embed is
// the presentation object a broadcast sends to every recipient.
package embeds

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"janitor-bot/broadcast"
	"janitor-bot/models"
)

// NeutralColor is the embed color for plain display replies.
const NeutralColor = 0x35aa78

// NewRenderer returns the bad actor renderer the broadcaster consumes.
// User and guild lookups inside it are best effort; a missing user or
// origin server degrades the embed instead of failing the render.
func NewRenderer(gateway broadcast.Gateway, screenshotDir string) broadcast.Renderer {
	return func(actor *models.BadActor, kind broadcast.Kind) (*discordgo.MessageEmbed, *broadcast.Attachment, error) {
		embed := BadActor(gateway, actor, kind.EmbedColor())
		attachment := Screenshot(screenshotDir, actor)
		if attachment != nil {
			embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + attachment.Name}
		}
		return embed, attachment, nil
	}
}

// BadActor builds the embed describing one bad actor entry.
func BadActor(gateway broadcast.Gateway, actor *models.BadActor, color int) *discordgo.MessageEmbed {
	title := fmt.Sprintf("Bad Actor %d", actor.ID)
	description := ""
	var thumbnail *discordgo.MessageEmbedThumbnail

	user, err := gateway.User(actor.UserID)
	if err != nil {
		log.Printf("[embeds] failed to fetch user %s for embed creation: %v", actor.UserID, err)
		description = "Discord user cannot be found. They might have been deleted by Discord."
	} else {
		name := user.GlobalName
		if name == "" {
			name = user.Username
		}
		title = "Bad Actor " + name
		thumbnail = &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")}
	}

	origin := "`" + actor.OriginallyCreatedIn + "`"
	if guild, err := gateway.Guild(actor.OriginallyCreatedIn); err == nil {
		origin = fmt.Sprintf("%s (`%s`)", guild.Name, guild.ID)
	} else {
		log.Printf("[embeds] failed to fetch server %s for embed creation: %v", actor.OriginallyCreatedIn, err)
	}

	active := "No"
	if actor.IsActive {
		active = "Yes"
	}

	explanation := actor.Explanation
	if explanation == "" {
		explanation = "No explanation provided."
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Thumbnail:   thumbnail,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Janitor Broadcast"},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Database Entry ID", Value: fmt.Sprintf("`%d`", actor.ID)},
			{Name: "User ID", Value: "`" + actor.UserID + "`"},
			{Name: "Active", Value: active},
			{Name: "Type", Value: string(actor.ActorType)},
			{Name: "Explanation/Reason", Value: explanation},
			{Name: "Server of Origin", Value: origin},
			{Name: "Created At", Value: timestamp(actor.CreatedAt)},
			{Name: "Last Updated At", Value: timestamp(actor.UpdatedAt)},
			{Name: "Last Updated By", Value: fmt.Sprintf("<@%s> (`%s`)", actor.LastChangedBy, actor.LastChangedBy)},
		},
	}
}

// ServerConfig builds the embed the /config command replies with.
func ServerConfig(cfg *models.ServerConfig, guild *discordgo.Guild, userIDs []string) *discordgo.MessageEmbed {
	logChannel := "Not set"
	if cfg.LogChannel != "" {
		logChannel = "<#" + cfg.LogChannel + ">"
	}

	pingRole := "Not set"
	if cfg.PingRole != "" {
		pingRole = "<@&" + cfg.PingRole + ">"
	}

	ignored := "None"
	if len(cfg.IgnoredRoles) > 0 {
		mentions := make([]string, 0, len(cfg.IgnoredRoles))
		for _, id := range cfg.IgnoredRoles {
			mentions = append(mentions, "<@&"+id+">")
		}
		ignored = strings.Join(mentions, ", ")
	}

	admins := "None"
	if len(userIDs) > 0 {
		mentions := make([]string, 0, len(userIDs))
		for _, id := range userIDs {
			mentions = append(mentions, "<@"+id+">")
		}
		admins = strings.Join(mentions, "\n")
	}

	return &discordgo.MessageEmbed{
		Title:     "Server Config for " + guild.Name,
		Color:     NeutralColor,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Server ID", Value: "`" + cfg.ServerID + "`"},
			{Name: "Whitelisted Admins", Value: admins},
			{Name: "Log Channel", Value: logChannel},
			{Name: "Ping Admins", Value: enabled(cfg.PingUsers)},
			{Name: "Ping Role", Value: pingRole},
			{Name: "Spam Action Level", Value: cfg.SpamActionLevel.String()},
			{Name: "Impersonation Action Level", Value: cfg.ImpersonationActionLevel.String()},
			{Name: "Bigotry Action Level", Value: cfg.BigotryActionLevel.String()},
			{Name: "Timeout Users With Role", Value: enabled(cfg.TimeoutUsersWithRole)},
			{Name: "Ignored Roles", Value: ignored},
			{Name: "Created At", Value: timestamp(cfg.CreatedAt), Inline: true},
			{Name: "Updated At", Value: timestamp(cfg.UpdatedAt), Inline: true},
		},
	}
}

// UserInfo builds the small confirmation embed shown before a report is
// filed.
func UserInfo(user *discordgo.User) *discordgo.MessageEmbed {
	name := user.GlobalName
	if name == "" {
		name = user.Username
	}

	return &discordgo.MessageEmbed{
		Title:     "Info User " + name,
		Color:     NeutralColor,
		Timestamp: time.Now().Format(time.RFC3339),
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ID", Value: "`" + user.ID + "`"},
		},
	}
}

// Screenshot loads an entry's stored screenshot as a reusable attachment,
// or nil if there is none or it cannot be read.
func Screenshot(dir string, actor *models.BadActor) *broadcast.Attachment {
	if actor.ScreenshotProof == "" {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(dir, actor.ScreenshotProof))
	if err != nil {
		log.Printf("[embeds] failed to read screenshot for bad actor %d: %v", actor.ID, err)
		return nil
	}

	return &broadcast.Attachment{
		Name:        actor.ScreenshotProof,
		ContentType: contentType(actor.ScreenshotProof),
		Data:        data,
	}
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}

func enabled(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}

func timestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:D>\n(<t:%d:R>)", t.Unix(), t.Unix())
}
