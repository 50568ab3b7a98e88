package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/rcliao/charabot/internal/i18n"
)

// Command names.
const (
	CmdRegister = "register"
	CmdSearch   = "search"
	CmdRandom   = "random"
	CmdEdit     = "edit"
	CmdDelete   = "delete"
	CmdCount    = "count"
)

// Definitions builds the slash command definitions. Descriptions use the
// fallback locale; the other locales go into the localization maps.
func Definitions(cat *i18n.Catalog) []*discordgo.ApplicationCommand {
	opt := func(typ discordgo.ApplicationCommandOptionType, name string, required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:                     typ,
			Name:                     name,
			Description:              cat.T(cat.Fallback(), "option."+name),
			DescriptionLocalizations: localizations(cat, "option."+name),
			Required:                 required,
		}
	}
	str := discordgo.ApplicationCommandOptionString
	att := discordgo.ApplicationCommandOptionAttachment

	cmd := func(name string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommand {
		loc := localizations(cat, "command."+name)
		return &discordgo.ApplicationCommand{
			Name:                     name,
			Description:              cat.T(cat.Fallback(), "command."+name),
			DescriptionLocalizations: &loc,
			Options:                  options,
		}
	}

	return []*discordgo.ApplicationCommand{
		cmd(CmdRegister,
			opt(str, OptName, true),
			opt(str, OptDescription, true),
			opt(str, OptURL, true),
			opt(att, OptThumbnail, true),
			opt(att, OptMain, true),
		),
		cmd(CmdSearch, opt(str, OptName, true)),
		cmd(CmdRandom),
		cmd(CmdEdit,
			opt(str, OptName, true),
			opt(str, OptDescription, false),
			opt(str, OptURL, false),
			opt(att, OptThumbnail, false),
			opt(att, OptMain, false),
		),
		cmd(CmdDelete, opt(str, OptName, true)),
		cmd(CmdCount),
	}
}

func localizations(cat *i18n.Catalog, key string) map[discordgo.Locale]string {
	out := make(map[discordgo.Locale]string)
	for l, msg := range cat.All(key) {
		out[discordgo.Locale(l)] = msg
	}
	return out
}

// CommandRegistry is the part of the Discord API that manages command
// definitions.
type CommandRegistry interface {
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Deploy replaces the guild's command definitions with defs. An empty
// guildID deploys global commands.
func Deploy(ctx context.Context, api CommandRegistry, appID, guildID string, defs []*discordgo.ApplicationCommand) (int, error) {
	out, err := api.ApplicationCommandBulkOverwrite(appID, guildID, defs, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("deploy commands: %w", err)
	}
	return len(out), nil
}

// Reset removes all global commands and, when guildID is set, the guild's
// commands too.
func Reset(ctx context.Context, api CommandRegistry, appID, guildID string) error {
	empty := []*discordgo.ApplicationCommand{}
	if _, err := api.ApplicationCommandBulkOverwrite(appID, "", empty, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("reset global commands: %w", err)
	}
	if guildID == "" {
		return nil
	}
	if _, err := api.ApplicationCommandBulkOverwrite(appID, guildID, empty, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("reset guild commands: %w", err)
	}
	return nil
}
