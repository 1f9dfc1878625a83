package broadcast

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"

	"janitor-bot/models"
)

// Action is the moderation step a server's action level maps to.
type Action int

const (
	ActionNone Action = iota
	ActionTimeout
	ActionKick
	ActionSoftBan
	ActionBan
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionTimeout:
		return "timeout"
	case ActionKick:
		return "kick"
	case ActionSoftBan:
		return "softban"
	case ActionBan:
		return "ban"
	}
	return "none"
}

const (
	timeoutDuration = 24 * time.Hour
	banPurgeDays    = 7
)

// actionForLevel maps a configured action level to the action taken.
func actionForLevel(level models.ActionLevel) Action {
	switch level {
	case models.LevelTimeout:
		return ActionTimeout
	case models.LevelKick:
		return ActionKick
	case models.LevelSoftBan:
		return ActionSoftBan
	case models.LevelBan:
		return ActionBan
	}
	return ActionNone
}

// moderate runs the moderation step for a new report against every
// validated server concurrently. Servers fail independently.
func (b *Broadcaster) moderate(actor *models.BadActor, targets []target) {
	user, err := b.Gateway.User(actor.UserID)
	if err != nil {
		log.Printf("[moderate] failed to fetch user %s, skipping all moderation action: %v", actor.UserID, err)
		sentry.CaptureException(err)

		for _, t := range targets {
			b.notify(t, "Failed to fetch the reported user. If your server has automatic moderation actions, they will not be performed.")
		}
		return
	}

	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			defer sentry.Recover()
			b.moderateServer(actor, user, t)
		}(t)
	}
	wg.Wait()
}

// moderateServer applies the decision table for one (report, server) pair.
// Every branch reports its outcome to the server's log channel.
func (b *Broadcaster) moderateServer(actor *models.BadActor, user *discordgo.User, t target) {
	action := b.actionFor(actor, t)

	// Absence is expected here, not an error.
	member, err := b.Gateway.GuildMember(t.guild.ID, user.ID)
	if err != nil {
		member = nil
	}

	blocking := blockingRoles(member, t.guild, t.config.IgnoredRoles)

	mod := moderator{
		gateway: b.Gateway,
		guild:   t.guild,
		actor:   actor,
		user:    user,
		notify:  func(content string) { b.notify(t, content) },
	}

	switch {
	case action == ActionBan && member == nil:
		// Bans are the one action that works on non-members.
		mod.ban()

	case member == nil:
		b.notify(t, fmt.Sprintf(
			"User %s is not a member of your server. Only bans can be performed on users that are not server members, but your server does not have banning enabled. Skipping all moderation actions.",
			displayUser(user),
		))

	case len(blocking) > 0 && t.config.TimeoutUsersWithRole:
		mod.timeout(blocking)

	case len(blocking) > 0:
		b.notify(t, fmt.Sprintf(
			"User %s has roles that are not ignored. Those roles are: %s. Skipping all moderation actions.",
			displayUser(user), strings.Join(blocking, ", "),
		))

	default:
		switch action {
		case ActionTimeout:
			mod.timeout(nil)
		case ActionKick:
			mod.kick()
		case ActionSoftBan:
			mod.softban()
		case ActionBan:
			mod.ban()
		default:
			b.notify(t, fmt.Sprintf("No moderation action set for %s. No actions will be taken.", actor.ActorType))
		}
	}
}

// actionFor resolves the server's action level for the report's category.
// An unrecognized category degrades to no action.
func (b *Broadcaster) actionFor(actor *models.BadActor, t target) Action {
	level, ok := t.config.ActionLevelFor(actor.ActorType)
	if !ok || !level.Valid() {
		log.Printf("[moderate] failed to get action level for type %q in server %s, taking no action", actor.ActorType, t.guild.ID)
		return ActionNone
	}
	return actionForLevel(level)
}

// blockingRoles returns the display names of the member's roles that are
// neither ignored by the server config nor the implicit everyone role.
func blockingRoles(member *discordgo.Member, guild *discordgo.Guild, ignored models.StringList) []string {
	if member == nil {
		return nil
	}

	names := make(map[string]string, len(guild.Roles))
	for _, role := range guild.Roles {
		names[role.ID] = role.Name
	}

	var blocking []string
	for _, roleID := range member.Roles {
		if roleID == guild.ID || ignored.Contains(roleID) {
			continue
		}
		if name, ok := names[roleID]; ok {
			blocking = append(blocking, name)
		} else {
			blocking = append(blocking, roleID)
		}
	}
	return blocking
}

// moderator executes one action against one server. Execution failures are
// logged, captured and reported to the server's log channel; they never
// propagate.
type moderator struct {
	gateway Gateway
	guild   *discordgo.Guild
	actor   *models.BadActor
	user    *discordgo.User
	notify  func(content string)
}

func (m *moderator) reason() string {
	return fmt.Sprintf("Bad actor %s (%d)", m.actor.ActorType, m.actor.ID)
}

func (m *moderator) ban() {
	if err := m.gateway.Ban(m.guild.ID, m.user.ID, m.reason(), banPurgeDays); err != nil {
		m.fail("ban", err)
		return
	}
	log.Printf("[moderate] banned user %s from server %s", m.user.ID, m.guild.ID)
	m.notify(fmt.Sprintf("Banned %s from your server.", displayUser(m.user)))
}

func (m *moderator) softban() {
	if err := m.gateway.Ban(m.guild.ID, m.user.ID, m.reason(), banPurgeDays); err != nil {
		m.fail("softban", err)
		return
	}
	if err := m.gateway.Unban(m.guild.ID, m.user.ID); err != nil {
		m.fail("softban", err)
		return
	}
	log.Printf("[moderate] softbanned user %s from server %s", m.user.ID, m.guild.ID)
	m.notify(fmt.Sprintf("Softbanned %s from your server.", displayUser(m.user)))
}

func (m *moderator) kick() {
	if err := m.gateway.Kick(m.guild.ID, m.user.ID, m.reason()); err != nil {
		m.fail("kick", err)
		return
	}
	log.Printf("[moderate] kicked user %s from server %s", m.user.ID, m.guild.ID)
	m.notify(fmt.Sprintf("Kicked %s from your server.", displayUser(m.user)))
}

// timeout times the user out for 24 hours. blocking is non-empty when the
// timeout replaced a harsher action because the user holds roles.
func (m *moderator) timeout(blocking []string) {
	if err := m.gateway.Timeout(m.guild.ID, m.user.ID, time.Now().Add(timeoutDuration)); err != nil {
		m.fail("timeout", err)
		return
	}
	log.Printf("[moderate] timed out user %s in server %s", m.user.ID, m.guild.ID)

	if len(blocking) > 0 {
		m.notify(fmt.Sprintf(
			"Timed out %s for 24 hours, because they have roles that are not ignored. Those roles are: %s.",
			displayUser(m.user), strings.Join(blocking, ", "),
		))
		return
	}
	m.notify(fmt.Sprintf("Timed out %s for 24 hours.", displayUser(m.user)))
}

func (m *moderator) fail(action string, err error) {
	log.Printf("[moderate] failed to %s user %s in server %s: %v", action, m.user.ID, m.guild.ID, err)
	sentry.CaptureException(err)
	m.notify(fmt.Sprintf("Failed to %s %s.", action, displayUser(m.user)))
}
