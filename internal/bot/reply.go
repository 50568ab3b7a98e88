package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/rcliao/charabot/internal/workflow"
)

// Reply is the full visible state of a response message. Sending a Reply
// replaces content, embeds and components; empty fields clear them.
type Reply struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

// Responder answers the slash command interaction that started a handler.
type Responder interface {
	// Defer acknowledges the command; the answer follows through Edit.
	Defer(ctx context.Context, ephemeral bool) error
	// Edit replaces the deferred response.
	Edit(ctx context.Context, r Reply) error
}

// ComponentResponder answers a button press or menu selection.
type ComponentResponder interface {
	// Ack acknowledges the action without changing the message. The
	// result is then shown by editing the command's reply.
	Ack(ctx context.Context) error
	// Update replaces the message that carried the component.
	Update(ctx context.Context, r Reply) error
	// Notice sends a message only the acting user can see.
	Notice(ctx context.Context, content string) error
}

// interactionResponder implements Responder and ComponentResponder for one
// discordgo interaction.
type interactionResponder struct {
	s *discordgo.Session
	i *discordgo.Interaction
}

func (r *interactionResponder) Defer(ctx context.Context, ephemeral bool) error {
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := r.s.InteractionRespond(r.i, resp, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("defer reply: %w", promptErr(err))
	}
	return nil
}

func (r *interactionResponder) Edit(ctx context.Context, reply Reply) error {
	content := reply.Content
	embeds := nonNilEmbeds(reply.Embeds)
	components := nonNilComponents(reply.Components)
	_, err := r.s.InteractionResponseEdit(r.i, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit reply: %w", promptErr(err))
	}
	return nil
}

func (r *interactionResponder) Ack(ctx context.Context) error {
	err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("acknowledge component: %w", promptErr(err))
	}
	return nil
}

func (r *interactionResponder) Update(ctx context.Context, reply Reply) error {
	err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    reply.Content,
			Embeds:     nonNilEmbeds(reply.Embeds),
			Components: nonNilComponents(reply.Components),
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("update prompt: %w", promptErr(err))
	}
	return nil
}

func (r *interactionResponder) Notice(ctx context.Context, content string) error {
	err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send notice: %w", promptErr(err))
	}
	return nil
}

// promptErr marks errors caused by a deleted message, channel or expired
// interaction as workflow.ErrPromptGone.
func promptErr(err error) error {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}
	if rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", workflow.ErrPromptGone, err)
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return fmt.Errorf("%w: %w", workflow.ErrPromptGone, err)
		}
	}
	return err
}

func nonNilEmbeds(e []*discordgo.MessageEmbed) []*discordgo.MessageEmbed {
	if e == nil {
		return []*discordgo.MessageEmbed{}
	}
	return e
}

func nonNilComponents(c []discordgo.MessageComponent) []discordgo.MessageComponent {
	if c == nil {
		return []discordgo.MessageComponent{}
	}
	return c
}
