// Package bot connects the character service to Discord: slash command
// dispatch, localized replies and the interactive prompts for search and
// delete.
package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/rcliao/charabot/internal/i18n"
	"github.com/rcliao/charabot/internal/model"
	"github.com/rcliao/charabot/internal/workflow"
)

// Bot owns the gateway session and routes interactions.
type Bot struct {
	session    *discordgo.Session
	dispatcher *Dispatcher
	router     *ComponentRouter
	logger     *zap.Logger

	// ctx bounds handler work; it is cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a bot for token. Call Open to connect.
func New(token string, dispatcher *Dispatcher, router *ComponentRouter, logger *zap.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		session:    s,
		dispatcher: dispatcher,
		router:     router,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onInteraction)
	return b, nil
}

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close cancels running handlers and disconnects.
func (b *Bot) Close() error {
	b.cancel()
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("logged in", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
}

// onInteraction runs on its own goroutine per event.
func (b *Bot) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	resp := &interactionResponder{s: s, i: ic.Interaction}
	switch ic.Type {
	case discordgo.InteractionApplicationCommand:
		b.dispatcher.Dispatch(b.ctx, invocation(ic.Interaction, resp))
	case discordgo.InteractionMessageComponent:
		data := ic.MessageComponentData()
		b.router.Route(b.ctx, ComponentAction{
			CustomID: data.CustomID,
			Values:   data.Values,
			User:     user(ic.Interaction),
			Locale:   string(ic.Locale),
			Respond:  resp,
		})
	}
}

// invocation converts a slash command interaction. Attachment options are
// replaced by the attachment URL.
func invocation(i *discordgo.Interaction, resp Responder) *Invocation {
	data := i.ApplicationCommandData()
	opts := make(map[string]string, len(data.Options))
	for _, o := range data.Options {
		switch o.Type {
		case discordgo.ApplicationCommandOptionAttachment:
			id, _ := o.Value.(string)
			if data.Resolved != nil {
				if a, ok := data.Resolved.Attachments[id]; ok {
					opts[o.Name] = a.URL
				}
			}
		default:
			opts[o.Name] = fmt.Sprint(o.Value)
		}
	}
	return &Invocation{
		Command: data.Name,
		User:    user(i),
		Locale:  string(i.Locale),
		Options: opts,
		Respond: resp,
	}
}

func user(i *discordgo.Interaction) model.User {
	u := i.User
	if i.Member != nil && i.Member.User != nil {
		u = i.Member.User
	}
	if u == nil {
		return model.User{}
	}
	return model.User{ID: u.ID, Username: u.Username, DisplayName: u.GlobalName}
}

// ComponentAction is one button press or menu selection.
type ComponentAction struct {
	CustomID string
	Values   []string
	User     model.User
	Locale   string
	Respond  ComponentResponder
}

// ComponentRouter delivers component actions to the prompt that rendered
// them and answers the ones no prompt accepts.
type ComponentRouter struct {
	prompts *Prompts
	catalog *i18n.Catalog
	logger  *zap.Logger
}

// NewComponentRouter creates a router over prompts.
func NewComponentRouter(prompts *Prompts, catalog *i18n.Catalog, logger *zap.Logger) *ComponentRouter {
	return &ComponentRouter{prompts: prompts, catalog: catalog, logger: logger}
}

// Route delivers a. Foreign users and closed prompts get an ephemeral
// notice; the prompt itself is left untouched.
func (r *ComponentRouter) Route(ctx context.Context, a ComponentAction) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("component panicked", zap.String("custom_id", a.CustomID),
				zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
		}
	}()

	sessionID, choice, ok := workflow.ParseCustomID(a.CustomID)
	if !ok {
		r.logger.Debug("component without session", zap.String("custom_id", a.CustomID))
		return
	}
	if choice == selectChoice {
		if len(a.Values) == 0 {
			return
		}
		choice = a.Values[0]
	}

	err := r.prompts.Deliver(sessionID, workflow.Action[ComponentResponder]{
		UserID:  a.User.ID,
		Choice:  choice,
		Payload: a.Respond,
	})
	if err == nil {
		return
	}

	loc := r.catalog.Resolve(a.Locale)
	var key string
	switch {
	case errors.Is(err, workflow.ErrNotOwner):
		key = "error.unauthorized"
	case errors.Is(err, workflow.ErrSessionClosed):
		key = "error.prompt_closed"
	default:
		r.logger.Warn("component rejected", zap.String("custom_id", a.CustomID), zap.Error(err))
		key = "error.generic"
	}
	if nerr := a.Respond.Notice(ctx, r.catalog.T(loc, key)); nerr != nil {
		r.logger.Warn("send component notice", zap.String("user_id", a.User.ID), zap.Error(nerr))
	}
}
