package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/rcliao/charabot/internal/character"
	"github.com/rcliao/charabot/internal/i18n"
	"github.com/rcliao/charabot/internal/metrics"
	"github.com/rcliao/charabot/internal/model"
	"github.com/rcliao/charabot/internal/workflow"
)

// Prompts is the session manager shared by handlers and the component
// router. Actions carry the responder of the component interaction.
type Prompts = workflow.Manager[ComponentResponder]

// Handlers implements the slash commands over a character service.
type Handlers struct {
	svc     *character.Service
	prompts *Prompts
	catalog *i18n.Catalog
	logger  *zap.Logger
}

// NewHandlers creates the command handlers.
func NewHandlers(svc *character.Service, prompts *Prompts, catalog *i18n.Catalog, logger *zap.Logger) *Handlers {
	return &Handlers{svc: svc, prompts: prompts, catalog: catalog, logger: logger}
}

// Register adds every command to d.
func (h *Handlers) Register(d *Dispatcher) {
	d.Handle(CmdRegister, true, h.register)
	d.Handle(CmdSearch, false, h.search)
	d.Handle(CmdRandom, false, h.random)
	d.Handle(CmdEdit, true, h.edit)
	d.Handle(CmdDelete, true, h.delete)
	d.Handle(CmdCount, false, h.count)
}

func (h *Handlers) register(ctx context.Context, inv *Invocation) error {
	c, err := h.svc.Register(ctx, character.RegisterParams{
		Name:        inv.Options[OptName],
		Description: inv.Options[OptDescription],
		URL:         inv.Options[OptURL],
		Thumbnail:   inv.Options[OptThumbnail],
		Main:        inv.Options[OptMain],
		Actor:       inv.User,
	})
	if err != nil {
		return err
	}
	return inv.Respond.Edit(ctx, Reply{
		Content: h.catalog.Tf(inv.Locale, "register.success", c.Name, c.Description, c.URL, c.Thumbnail, c.MainImage),
	})
}

func (h *Handlers) search(ctx context.Context, inv *Invocation) error {
	res, err := h.svc.Search(ctx, inv.Options[OptName])
	if err != nil {
		return err
	}
	if len(res.Matches) == 1 {
		return inv.Respond.Edit(ctx, h.show(inv.Locale, res.Matches[0]))
	}
	return h.choose(ctx, inv, res)
}

// choose asks the invoker to pick one of matches and shows the pick.
func (h *Handlers) choose(ctx context.Context, inv *Invocation, res *character.SearchResult) error {
	loc := inv.Locale
	matches := res.Matches
	content := h.catalog.T(loc, "search.multiple")
	if more := res.Total - len(matches); more > 0 {
		content += "\n" + h.catalog.Tf(loc, "search.more", more)
	}

	s := h.prompts.OpenSelect(inv.User.ID, choiceValues(len(matches)))
	err := inv.Respond.Edit(ctx, Reply{
		Content:    content,
		Components: characterMenu(h.catalog, loc, s, matches),
	})
	if err != nil {
		s.Abort()
		return err
	}

	out, err := s.Await(ctx)
	metrics.WorkflowOutcomes.WithLabelValues(string(s.Kind), string(out.State)).Inc()
	if err != nil {
		return err
	}

	switch out.State {
	case workflow.StateSelected:
		idx, err := strconv.Atoi(out.Choice)
		if err != nil || idx < 0 || idx >= len(matches) {
			return fmt.Errorf("%w: %q", workflow.ErrInvalidChoice, out.Choice)
		}
		return h.settle(ctx, inv, out.Action.Payload, h.show(loc, matches[idx]))
	default:
		return inv.Respond.Edit(ctx, Reply{Content: h.catalog.T(loc, "search.timeout")})
	}
}

func (h *Handlers) random(ctx context.Context, inv *Invocation) error {
	c, err := h.svc.Random(ctx)
	if err != nil {
		return err
	}
	return inv.Respond.Edit(ctx, h.show(inv.Locale, *c))
}

func (h *Handlers) edit(ctx context.Context, inv *Invocation) error {
	p := character.EditParams{
		Name:      inv.Options[OptName],
		Thumbnail: inv.Options[OptThumbnail],
		Main:      inv.Options[OptMain],
		Actor:     inv.User,
	}
	if v, ok := inv.Option(OptDescription); ok {
		p.Description = &v
	}
	if v, ok := inv.Option(OptURL); ok {
		p.URL = &v
	}

	c, err := h.svc.Edit(ctx, p)
	if err != nil {
		return err
	}
	return inv.Respond.Edit(ctx, Reply{
		Content: h.catalog.T(inv.Locale, "edit.success"),
		Embeds:  []*discordgo.MessageEmbed{characterEmbed(h.catalog, inv.Locale, *c)},
	})
}

func (h *Handlers) delete(ctx context.Context, inv *Invocation) error {
	loc := inv.Locale
	pending, err := h.svc.PrepareDelete(ctx, inv.Options[OptName])
	if err != nil {
		return err
	}

	s := h.prompts.OpenConfirm(inv.User.ID)
	prompt := []*discordgo.MessageEmbed{confirmDeleteEmbed(h.catalog, loc, pending.Character.Name)}
	err = inv.Respond.Edit(ctx, Reply{
		Embeds:     prompt,
		Components: confirmButtons(h.catalog, loc, s, false),
	})
	if err != nil {
		s.Abort()
		return err
	}

	out, err := s.Await(ctx)
	metrics.WorkflowOutcomes.WithLabelValues(string(s.Kind), string(out.State)).Inc()
	if err != nil {
		return err
	}

	switch out.State {
	case workflow.StateConfirmed:
		// Committing can outlast the component response window. Ack now
		// and report through the command's reply.
		if err := out.Action.Payload.Ack(ctx); err != nil {
			h.logger.Warn("acknowledge delete confirmation", zap.Error(err))
		}
		if err := h.svc.CommitDelete(ctx, pending); err != nil {
			key := "delete.failed"
			if errors.Is(err, character.ErrStaleTarget) {
				key = "error.stale_target"
			}
			if uerr := inv.Respond.Edit(ctx, Reply{Content: h.catalog.T(loc, key)}); uerr != nil {
				h.logger.Warn("report delete failure", zap.Error(uerr))
			}
			return reported(err)
		}
		if err := inv.Respond.Edit(ctx, Reply{Content: h.catalog.T(loc, "delete.removed")}); err != nil {
			// The row is already deleted.
			return reported(fmt.Errorf("report delete success: %w", err))
		}
		return nil
	case workflow.StateCancelled:
		return h.settle(ctx, inv, out.Action.Payload, Reply{Content: h.catalog.T(loc, "delete.cancelled")})
	default:
		return inv.Respond.Edit(ctx, Reply{
			Content:    h.catalog.T(loc, "delete.timeout"),
			Components: confirmButtons(h.catalog, loc, s, true),
		})
	}
}

func (h *Handlers) count(ctx context.Context, inv *Invocation) error {
	n, err := h.svc.Count(ctx)
	if err != nil {
		return err
	}
	return inv.Respond.Edit(ctx, Reply{
		Embeds: []*discordgo.MessageEmbed{countEmbed(h.catalog, inv.Locale, n)},
	})
}

// settle replaces the prompt with r through the component response, or
// through the command's reply when that response is no longer accepted.
func (h *Handlers) settle(ctx context.Context, inv *Invocation, answer ComponentResponder, r Reply) error {
	err := answer.Update(ctx, r)
	if err == nil {
		return nil
	}
	h.logger.Warn("update prompt, editing reply instead", zap.Error(err))
	return inv.Respond.Edit(ctx, r)
}

func (h *Handlers) show(loc string, c model.Character) Reply {
	return Reply{Embeds: []*discordgo.MessageEmbed{characterEmbed(h.catalog, loc, c)}}
}
