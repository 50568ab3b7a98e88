package bot

import (
	"strconv"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/rcliao/charabot/internal/blob"
	"github.com/rcliao/charabot/internal/i18n"
	"github.com/rcliao/charabot/internal/model"
	"github.com/rcliao/charabot/internal/workflow"
)

// Embed colors.
const (
	ColorCharacter = 0x54e8e6
	ColorDanger    = 0xFF0000
)

// selectChoice is the component choice used by selection menus; the
// picked value arrives separately.
const selectChoice = "pick"

// menuTextLimit is the longest label or description a menu option takes.
const menuTextLimit = 100

func characterEmbed(cat *i18n.Catalog, loc string, c model.Character) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       c.Name,
		Description: c.Description,
		Color:       ColorCharacter,
	}
	if c.MainImage != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: blob.DisplayURL(c.MainImage)}
	}
	if c.Thumbnail != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: blob.DisplayURL(c.Thumbnail)}
	}
	if c.URL != "" {
		e.Fields = []*discordgo.MessageEmbedField{{Name: cat.T(loc, "embed.url_field"), Value: c.URL}}
	}
	return e
}

func countEmbed(cat *i18n.Catalog, loc string, n int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       cat.T(loc, "count.title"),
		Description: cat.Tf(loc, "count.body", n),
		Color:       ColorCharacter,
	}
}

func confirmDeleteEmbed(cat *i18n.Catalog, loc, name string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       cat.T(loc, "delete.title"),
		Description: cat.Tf(loc, "delete.body", name),
		Color:       ColorDanger,
	}
}

func confirmButtons[T any](cat *i18n.Catalog, loc string, s *workflow.Session[T], disabled bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    cat.T(loc, "delete.button_confirm"),
				Style:    discordgo.DangerButton,
				CustomID: s.CustomID(workflow.ChoiceConfirm),
				Disabled: disabled,
			},
			discordgo.Button{
				Label:    cat.T(loc, "delete.button_cancel"),
				Style:    discordgo.SecondaryButton,
				CustomID: s.CustomID(workflow.ChoiceCancel),
				Disabled: disabled,
			},
		}},
	}
}

// choiceValues returns the option values for n menu entries.
func choiceValues(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

func characterMenu[T any](cat *i18n.Catalog, loc string, s *workflow.Session[T], matches []model.Character) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, len(matches))
	for i, c := range matches {
		desc := c.Description
		if desc == "" {
			desc = cat.T(loc, "search.no_description")
		}
		label := c.Name
		if label == "" {
			label = "No name " + strconv.Itoa(i)
		}
		options[i] = discordgo.SelectMenuOption{
			Label:       truncate(label, menuTextLimit),
			Description: truncate(desc, menuTextLimit),
			Value:       strconv.Itoa(i),
		}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    s.CustomID(selectChoice),
				Placeholder: cat.T(loc, "search.placeholder"),
				Options:     options,
			},
		}},
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
