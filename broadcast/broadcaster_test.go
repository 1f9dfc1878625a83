package broadcast

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"janitor-bot/models"
)

const allPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionEmbedLinks |
	discordgo.PermissionAttachFiles

type sentMessage struct {
	channelID string
	content   string
	embeds    int
	files     int
}

// fakeGateway is an in-memory Gateway. Sends and moderation actions are
// recorded under a mutex because broadcasts fan out concurrently.
type fakeGateway struct {
	mu sync.Mutex

	guilds   map[string]*discordgo.Guild
	channels map[string]*discordgo.Channel
	members  map[string]*discordgo.Member
	users    map[string]*discordgo.User

	botID       string
	permissions map[string]int64
	permErr     map[string]error
	sendErr     map[string]error
	banErr      error
	unbanErr    error
	kickErr     error
	timeoutErr  error

	sent     []sentMessage
	bans     []string
	unbans   []string
	kicks    []string
	timeouts []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		guilds:      make(map[string]*discordgo.Guild),
		channels:    make(map[string]*discordgo.Channel),
		members:     make(map[string]*discordgo.Member),
		users:       make(map[string]*discordgo.User),
		botID:       "bot",
		permissions: make(map[string]int64),
		permErr:     make(map[string]error),
		sendErr:     make(map[string]error),
	}
}

func (g *fakeGateway) Guild(guildID string) (*discordgo.Guild, error) {
	if guild, ok := g.guilds[guildID]; ok {
		return guild, nil
	}
	return nil, errors.New("unknown guild " + guildID)
}

func (g *fakeGateway) Channel(channelID string) (*discordgo.Channel, error) {
	if channel, ok := g.channels[channelID]; ok {
		return channel, nil
	}
	return nil, errors.New("unknown channel " + channelID)
}

func (g *fakeGateway) GuildMember(guildID, userID string) (*discordgo.Member, error) {
	if member, ok := g.members[guildID+":"+userID]; ok {
		return member, nil
	}
	return nil, errors.New("unknown member")
}

func (g *fakeGateway) User(userID string) (*discordgo.User, error) {
	if user, ok := g.users[userID]; ok {
		return user, nil
	}
	return nil, errors.New("unknown user " + userID)
}

func (g *fakeGateway) BotUserID() string { return g.botID }

func (g *fakeGateway) ChannelPermissions(userID, channelID string) (int64, error) {
	if err, ok := g.permErr[channelID]; ok {
		return 0, err
	}
	return g.permissions[channelID], nil
}

func (g *fakeGateway) SendMessage(channelID string, message *discordgo.MessageSend) error {
	if err, ok := g.sendErr[channelID]; ok {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentMessage{
		channelID: channelID,
		content:   message.Content,
		embeds:    len(message.Embeds),
		files:     len(message.Files),
	})
	return nil
}

func (g *fakeGateway) Ban(guildID, userID, reason string, purgeDays int) error {
	if g.banErr != nil {
		return g.banErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bans = append(g.bans, guildID+":"+userID)
	return nil
}

func (g *fakeGateway) Unban(guildID, userID string) error {
	if g.unbanErr != nil {
		return g.unbanErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unbans = append(g.unbans, guildID+":"+userID)
	return nil
}

func (g *fakeGateway) Kick(guildID, userID, reason string) error {
	if g.kickErr != nil {
		return g.kickErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.kicks = append(g.kicks, guildID+":"+userID)
	return nil
}

func (g *fakeGateway) Timeout(guildID, userID string, until time.Time) error {
	if g.timeoutErr != nil {
		return g.timeoutErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.timeouts = append(g.timeouts, guildID+":"+userID)
	return nil
}

// addServer registers a guild with a valid text log channel named after it.
func (g *fakeGateway) addServer(serverID string) {
	g.guilds[serverID] = &discordgo.Guild{ID: serverID, Name: "guild " + serverID}
	channelID := "log-" + serverID
	g.channels[channelID] = &discordgo.Channel{ID: channelID, Type: discordgo.ChannelTypeGuildText}
	g.permissions[channelID] = allPermissions
}

func (g *fakeGateway) sentTo(channelID string) []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []sentMessage
	for _, m := range g.sent {
		if m.channelID == channelID {
			out = append(out, m)
		}
	}
	return out
}

type fakeConfigs struct {
	configs []models.ServerConfig
	err     error
}

func (f *fakeConfigs) All() ([]models.ServerConfig, error) { return f.configs, f.err }

type fakeUsers struct {
	byServer map[string][]models.User
	err      error
}

func (f *fakeUsers) ByServer(serverID string) ([]models.User, error) {
	return f.byServer[serverID], f.err
}

func passthroughRenderer(actor *models.BadActor, kind Kind) (*discordgo.MessageEmbed, *Attachment, error) {
	return &discordgo.MessageEmbed{Title: fmt.Sprintf("entry %d", actor.ID)},
		&Attachment{Name: "proof.png", ContentType: "image/png", Data: []byte{1, 2, 3}},
		nil
}

func testActor() *models.BadActor {
	return &models.BadActor{ID: 7, UserID: "target", ActorType: models.TypeSpam, IsActive: true}
}

func testBroadcaster(gateway *fakeGateway, configs []models.ServerConfig, users map[string][]models.User) *Broadcaster {
	return &Broadcaster{
		Gateway:         gateway,
		Configs:         &fakeConfigs{configs: configs},
		Users:           &fakeUsers{byServer: users},
		Render:          passthroughRenderer,
		AdminServerID:   "admin",
		AdminLogChannel: "admin-log",
	}
}

func TestBroadcastDeliversToAdminAndListeners(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addServer("s1")
	gateway.addServer("s2")
	gateway.channels["admin-log"] = &discordgo.Channel{ID: "admin-log", Type: discordgo.ChannelTypeGuildText}

	b := testBroadcaster(gateway, []models.ServerConfig{
		{ServerID: "s1", LogChannel: "log-s1"},
		{ServerID: "s2", LogChannel: "log-s2"},
	}, nil)

	b.Broadcast(testActor(), KindDeactivate)

	for _, channelID := range []string{"admin-log", "log-s1", "log-s2"} {
		sent := gateway.sentTo(channelID)
		require.Len(t, sent, 1, "channel %s", channelID)
		assert.Contains(t, sent[0].content, "deactivated")
		assert.Equal(t, 1, sent[0].embeds)
		assert.Equal(t, 1, sent[0].files)
	}
	assert.Empty(t, gateway.bans)
	assert.Empty(t, gateway.timeouts)
}

func TestBroadcastWithNoListenersStillReachesAdmin(t *testing.T) {
	gateway := newFakeGateway()

	b := testBroadcaster(gateway, nil, nil)
	b.Broadcast(testActor(), KindReactivate)

	require.Len(t, gateway.sentTo("admin-log"), 1)
	assert.Len(t, gateway.sent, 1)
}

func TestBroadcastSkipsServersWithoutLogChannel(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addServer("s1")
	gateway.addServer("s2")

	b := testBroadcaster(gateway, []models.ServerConfig{
		{ServerID: "s1", LogChannel: "log-s1"},
		{ServerID: "s2"},
	}, nil)

	b.Broadcast(testActor(), KindUpdateExplanation)

	assert.Len(t, gateway.sentTo("log-s1"), 1)
	assert.Empty(t, gateway.sentTo("log-s2"))
}

func TestBroadcastRenderFailureAbortsAllSends(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addServer("s1")

	b := testBroadcaster(gateway, []models.ServerConfig{{ServerID: "s1", LogChannel: "log-s1"}}, nil)
	b.Render = func(actor *models.BadActor, kind Kind) (*discordgo.MessageEmbed, *Attachment, error) {
		return nil, nil, errors.New("render broke")
	}

	b.Broadcast(testActor(), KindReport)

	assert.Empty(t, gateway.sent)
	assert.Empty(t, gateway.bans)
}

func TestBroadcastSendFailureDoesNotStopOthers(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addServer("s1")
	gateway.addServer("s2")
	gateway.sendErr["log-s1"] = errors.New("channel gone")

	b := testBroadcaster(gateway, []models.ServerConfig{
		{ServerID: "s1", LogChannel: "log-s1"},
		{ServerID: "s2", LogChannel: "log-s2"},
	}, nil)

	b.Broadcast(testActor(), KindAddScreenshot)

	assert.Empty(t, gateway.sentTo("log-s1"))
	assert.Len(t, gateway.sentTo("log-s2"), 1)
	assert.Len(t, gateway.sentTo("admin-log"), 1)
}

func TestBroadcastPingAugmentation(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addServer("s1")

	b := testBroadcaster(gateway,
		[]models.ServerConfig{{ServerID: "s1", LogChannel: "log-s1", PingUsers: true, PingRole: "mods"}},
		map[string][]models.User{"s1": {{ID: "u1"}, {ID: "u2"}}},
	)

	b.Broadcast(testActor(), KindDeactivate)

	sent := gateway.sentTo("log-s1")
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].content, "<@u1> <@u2>")
	assert.Contains(t, sent[0].content, "<@&mods>")

	// The admin line stays unaugmented.
	admin := gateway.sentTo("admin-log")
	require.Len(t, admin, 1)
	assert.NotContains(t, admin[0].content, "<@")
}

func TestValidChannelsSkipsNonTextChannels(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addServer("s1")
	gateway.channels["log-s1"].Type = discordgo.ChannelTypeGuildVoice

	b := testBroadcaster(gateway, []models.ServerConfig{{ServerID: "s1", LogChannel: "log-s1"}}, nil)
	targets := b.validChannels(b.listeners())

	assert.Empty(t, targets)
}

func TestValidChannelsSkipsConfirmedPermissionGaps(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addServer("s1")
	gateway.permissions["log-s1"] = allPermissions &^ discordgo.PermissionAttachFiles

	b := testBroadcaster(gateway, []models.ServerConfig{{ServerID: "s1", LogChannel: "log-s1"}}, nil)
	targets := b.validChannels(b.listeners())

	assert.Empty(t, targets)
}

func TestValidChannelsKeepsUnverifiableChannels(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addServer("s1")
	gateway.permErr["log-s1"] = errors.New("permission lookup down")

	b := testBroadcaster(gateway, []models.ServerConfig{{ServerID: "s1", LogChannel: "log-s1"}}, nil)
	targets := b.validChannels(b.listeners())

	require.Len(t, targets, 1)
	assert.Equal(t, "s1", targets[0].guild.ID)
}

func TestValidChannelsSkipsUnfetchableGuilds(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addServer("s1")
	gateway.addServer("s2")
	delete(gateway.guilds, "s1")

	b := testBroadcaster(gateway, []models.ServerConfig{
		{ServerID: "s1", LogChannel: "log-s1"},
		{ServerID: "s2", LogChannel: "log-s2"},
	}, nil)
	targets := b.validChannels(b.listeners())

	require.Len(t, targets, 1)
	assert.Equal(t, "s2", targets[0].guild.ID)
}

func TestBroadcastModeratesOnlyReports(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addServer("s1")
	gateway.users["target"] = &discordgo.User{ID: "target", Username: "target"}

	configs := []models.ServerConfig{{ServerID: "s1", LogChannel: "log-s1", SpamActionLevel: models.LevelBan}}

	b := testBroadcaster(gateway, configs, nil)
	b.Broadcast(testActor(), KindReactivate)
	assert.Empty(t, gateway.bans)

	b.Broadcast(testActor(), KindReport)
	assert.Equal(t, []string{"s1:target"}, gateway.bans)
}

func TestMessageForWithoutPingsIsBareLine(t *testing.T) {
	b := testBroadcaster(newFakeGateway(), nil, nil)
	got := b.messageFor(target{listener: listener{config: models.ServerConfig{}}}, "hello")
	assert.Equal(t, "hello", got)
}

func TestAttachmentFileIsReusable(t *testing.T) {
	a := &Attachment{Name: "proof.png", Data: []byte("abc")}

	first := a.File()
	second := a.File()

	buf := make([]byte, 3)
	_, err := first.Reader.Read(buf)
	require.NoError(t, err)

	n, err := second.Reader.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", string(buf))
	assert.True(t, strings.HasSuffix(a.Name, ".png"))
}
