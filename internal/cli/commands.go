package cli

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/rcliao/charabot/internal/bot"
	"github.com/rcliao/charabot/internal/config"
	"github.com/rcliao/charabot/internal/i18n"
)

func init() {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Manage slash command definitions",
	}

	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Register the slash commands",
		Long:  "Overwrite the slash commands of $GUILD_ID, or the global commands when no guild is set.",
		Run:   runDeploy,
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove every registered slash command",
		Run:   runReset,
	}

	cmd.AddCommand(deployCmd, resetCmd)
	RootCmd.AddCommand(cmd)
}

func discordSession() (*config.Config, *discordgo.Session) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if err := cfg.RequireDiscord(); err != nil {
		exitErr("config", err)
	}
	s, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		exitErr("create discord session", err)
	}
	return cfg, s
}

func runDeploy(cmd *cobra.Command, args []string) {
	cfg, s := discordSession()

	catalog, err := i18n.Load(cfg.DefaultLocale)
	if err != nil {
		exitErr("load catalogs", err)
	}

	n, err := bot.Deploy(cmd.Context(), s, cfg.ClientID, cfg.GuildID, bot.Definitions(catalog))
	if err != nil {
		exitErr("deploy", err)
	}
	fmt.Printf(`{"ok":true,"deployed":%d,"guild":%q}`+"\n", n, cfg.GuildID)
}

func runReset(cmd *cobra.Command, args []string) {
	cfg, s := discordSession()

	if err := bot.Reset(cmd.Context(), s, cfg.ClientID, cfg.GuildID); err != nil {
		exitErr("reset", err)
	}
	fmt.Printf(`{"ok":true,"guild":%q}`+"\n", cfg.GuildID)
}
