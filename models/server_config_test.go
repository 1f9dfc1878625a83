package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func levelPtr(l ActionLevel) *ActionLevel { return &l }
func strPtr(s string) *string             { return &s }
func boolPtr(b bool) *bool                { return &b }

func TestCreateIfNotExistsKeepsExistingRow(t *testing.T) {
	store := &ServerConfigStore{DB: testDB(t)}

	_, err := store.CreateIfNotExists("s1")
	require.NoError(t, err)

	_, err = store.Update("s1", ServerConfigUpdate{LogChannel: strPtr("c1")})
	require.NoError(t, err)

	cfg, err := store.CreateIfNotExists("s1")
	require.NoError(t, err)
	assert.Equal(t, "c1", cfg.LogChannel)
}

func TestUpdateMergesOnlySetFields(t *testing.T) {
	store := &ServerConfigStore{DB: testDB(t)}

	_, err := store.CreateIfNotExists("s1")
	require.NoError(t, err)

	cfg, err := store.Update("s1", ServerConfigUpdate{
		LogChannel:      strPtr("c1"),
		SpamActionLevel: levelPtr(LevelBan),
		PingUsers:       boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", cfg.LogChannel)
	assert.Equal(t, LevelBan, cfg.SpamActionLevel)
	assert.True(t, cfg.PingUsers)

	cfg, err = store.Update("s1", ServerConfigUpdate{
		BigotryActionLevel: levelPtr(LevelKick),
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", cfg.LogChannel)
	assert.Equal(t, LevelBan, cfg.SpamActionLevel)
	assert.Equal(t, LevelKick, cfg.BigotryActionLevel)
}

func TestUpdateCanResetLevelToNotify(t *testing.T) {
	store := &ServerConfigStore{DB: testDB(t)}

	_, err := store.CreateIfNotExists("s1")
	require.NoError(t, err)

	_, err = store.Update("s1", ServerConfigUpdate{SpamActionLevel: levelPtr(LevelBan)})
	require.NoError(t, err)

	cfg, err := store.Update("s1", ServerConfigUpdate{SpamActionLevel: levelPtr(LevelNotify)})
	require.NoError(t, err)
	assert.Equal(t, LevelNotify, cfg.SpamActionLevel)
}

func TestUpdateIgnoredRoles(t *testing.T) {
	store := &ServerConfigStore{DB: testDB(t)}

	_, err := store.CreateIfNotExists("s1")
	require.NoError(t, err)

	cfg, err := store.Update("s1", ServerConfigUpdate{IgnoredRoles: []string{"r1", "r2"}})
	require.NoError(t, err)
	assert.Equal(t, StringList{"r1", "r2"}, cfg.IgnoredRoles)

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.True(t, got.IgnoredRoles.Contains("r2"))
}

func TestGetManySkipsUnknownIDs(t *testing.T) {
	store := &ServerConfigStore{DB: testDB(t)}

	_, err := store.CreateIfNotExists("s1")
	require.NoError(t, err)
	_, err = store.CreateIfNotExists("s2")
	require.NoError(t, err)

	configs, err := store.GetMany([]string{"s1", "s2", "ghost"})
	require.NoError(t, err)
	require.Len(t, configs, 2)

	ids := []string{configs[0].ServerID, configs[1].ServerID}
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)

	configs, err = store.GetMany([]string{"ghost"})
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestActionLevelFor(t *testing.T) {
	cfg := ServerConfig{
		SpamActionLevel:          LevelTimeout,
		ImpersonationActionLevel: LevelKick,
		BigotryActionLevel:       LevelBan,
	}

	level, ok := cfg.ActionLevelFor(TypeSpam)
	assert.True(t, ok)
	assert.Equal(t, LevelTimeout, level)

	level, ok = cfg.ActionLevelFor(TypeImpersonation)
	assert.True(t, ok)
	assert.Equal(t, LevelKick, level)

	level, ok = cfg.ActionLevelFor(TypeBigotry)
	assert.True(t, ok)
	assert.Equal(t, LevelBan, level)

	_, ok = cfg.ActionLevelFor("gossip")
	assert.False(t, ok)
}

func TestDeleteIfOrphaned(t *testing.T) {
	db := testDB(t)
	configs := &ServerConfigStore{DB: db}
	users := &UserStore{DB: db, AdminServerID: "admin"}

	_, err := configs.CreateIfNotExists("s1")
	require.NoError(t, err)

	_, err = users.Create(User{ID: "u1", UserType: UserTypeListener, Servers: StringList{"s1"}})
	require.NoError(t, err)

	deleted, err := configs.DeleteIfOrphaned("s1", users)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = users.Delete("u1")
	require.NoError(t, err)

	deleted, err = configs.DeleteIfOrphaned("s1", users)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = configs.Get("s1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
