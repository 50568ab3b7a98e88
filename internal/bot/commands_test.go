package bot

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/charabot/internal/i18n"
)

type overwrite struct {
	appID, guildID string
	commands       []*discordgo.ApplicationCommand
}

type fakeRegistry struct {
	calls []overwrite
	err   error
}

func (f *fakeRegistry) ApplicationCommandBulkOverwrite(appID, guildID string, cmds []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.calls = append(f.calls, overwrite{appID, guildID, cmds})
	if f.err != nil {
		return nil, f.err
	}
	return cmds, nil
}

func TestDefinitionsMatchHandlers(t *testing.T) {
	f := newFixture(t, 0)
	defs := Definitions(f.catalog)

	var names []string
	for _, d := range defs {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Description, d.Name)
		require.NotNil(t, d.DescriptionLocalizations, d.Name)
		assert.Contains(t, *d.DescriptionLocalizations, discordgo.EnglishUS, d.Name)
	}
	routes := f.dispatcher.Commands()
	sort.Strings(names)
	sort.Strings(routes)
	assert.Equal(t, routes, names)
}

func TestDefinitionsOptions(t *testing.T) {
	catalog, err := i18n.Load(i18n.Japanese)
	require.NoError(t, err)

	byName := map[string]*discordgo.ApplicationCommand{}
	for _, d := range Definitions(catalog) {
		byName[d.Name] = d
	}

	reg := byName[CmdRegister]
	require.Len(t, reg.Options, 5)
	for _, o := range reg.Options {
		assert.True(t, o.Required, o.Name)
	}
	assert.Equal(t, discordgo.ApplicationCommandOptionAttachment, reg.Options[3].Type)

	edit := byName[CmdEdit]
	require.Len(t, edit.Options, 5)
	assert.True(t, edit.Options[0].Required)
	for _, o := range edit.Options[1:] {
		assert.False(t, o.Required, o.Name)
	}
	assert.Equal(t, "Name of the character", edit.Options[0].DescriptionLocalizations[discordgo.EnglishUS])
	assert.Empty(t, byName[CmdRandom].Options)
}

func TestDeploy(t *testing.T) {
	reg := &fakeRegistry{}
	catalog, err := i18n.Load(i18n.Japanese)
	require.NoError(t, err)

	n, err := Deploy(context.Background(), reg, "app", "guild", Definitions(catalog))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	require.Len(t, reg.calls, 1)
	assert.Equal(t, "guild", reg.calls[0].guildID)

	reg.err = errors.New("401 unauthorized")
	_, err = Deploy(context.Background(), reg, "app", "guild", nil)
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	reg := &fakeRegistry{}
	require.NoError(t, Reset(context.Background(), reg, "app", "guild"))
	require.Len(t, reg.calls, 2)
	assert.Equal(t, "", reg.calls[0].guildID)
	assert.Equal(t, "guild", reg.calls[1].guildID)
	assert.Empty(t, reg.calls[1].commands)

	reg = &fakeRegistry{}
	require.NoError(t, Reset(context.Background(), reg, "app", ""))
	assert.Len(t, reg.calls, 1)
}

func TestComponentRouterInvalidChoice(t *testing.T) {
	f := newFixture(t, 0)
	s := f.prompts.OpenConfirm(owner.ID)
	defer s.Abort()

	rec := f.click(s.CustomID("explode"), owner)
	_, _, notices := rec.snapshot()
	assert.Equal(t, []string{f.catalog.T(locale, "error.generic")}, notices)
}
