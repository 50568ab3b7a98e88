package bot

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/charabot/internal/character"
	"github.com/rcliao/charabot/internal/i18n"
	"github.com/rcliao/charabot/internal/metrics"
	"github.com/rcliao/charabot/internal/model"
)

// Option names shared by the slash commands.
const (
	OptName        = "name"
	OptDescription = "description"
	OptURL         = "url"
	OptThumbnail   = "thumbnail"
	OptMain        = "main"
)

// Invocation is one slash command call. Attachment options carry the
// attachment URL as their value.
type Invocation struct {
	Command string
	User    model.User
	Locale  string
	Options map[string]string
	Respond Responder
}

// Option returns the named option and whether the user supplied it.
func (inv *Invocation) Option(name string) (string, bool) {
	v, ok := inv.Options[name]
	return v, ok
}

// HandlerFunc runs one command. It is called after the reply was deferred.
type HandlerFunc func(ctx context.Context, inv *Invocation) error

type route struct {
	handler   HandlerFunc
	ephemeral bool
}

// Dispatcher maps command names to handlers and turns handler failures
// into one localized message.
type Dispatcher struct {
	routes  map[string]route
	catalog *i18n.Catalog
	logger  *zap.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(catalog *i18n.Catalog, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		routes:  make(map[string]route),
		catalog: catalog,
		logger:  logger,
	}
}

// Handle registers h for command. Ephemeral replies are visible only to
// the invoking user.
func (d *Dispatcher) Handle(command string, ephemeral bool, h HandlerFunc) {
	d.routes[command] = route{handler: h, ephemeral: ephemeral}
}

// Commands returns the registered command names.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(d.routes))
	for name := range d.routes {
		out = append(out, name)
	}
	return out
}

// reportedError is returned by handlers that already showed the user an
// error message. The dispatcher logs it without replying again.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error { return &reportedError{err: err} }

// Dispatch runs the handler for inv. Unknown commands are ignored.
// Handler errors and panics never escape.
func (d *Dispatcher) Dispatch(ctx context.Context, inv *Invocation) {
	rt, ok := d.routes[inv.Command]
	if !ok {
		d.logger.Debug("unknown command", zap.String("command", inv.Command))
		return
	}
	inv.Locale = d.catalog.Resolve(inv.Locale)
	logger := d.logger.With(zap.String("command", inv.Command), zap.String("user_id", inv.User.ID))

	start := time.Now()
	outcome := "ok"
	defer func() {
		if p := recover(); p != nil {
			outcome = "panic"
			logger.Error("command panicked", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
			d.replyError(ctx, inv, logger, d.catalog.T(inv.Locale, "error.generic"))
		}
		metrics.CommandsTotal.WithLabelValues(inv.Command, outcome).Inc()
		metrics.CommandDuration.WithLabelValues(inv.Command).Observe(time.Since(start).Seconds())
	}()

	if err := inv.Respond.Defer(ctx, rt.ephemeral); err != nil {
		outcome = "failed"
		logger.Error("acknowledge command", zap.Error(err))
		return
	}

	err := rt.handler(ctx, inv)
	if err == nil {
		return
	}

	var rep *reportedError
	if errors.As(err, &rep) {
		outcome = "failed"
		logger.Error("command failed", zap.String("name", inv.Options[OptName]), zap.Error(err))
		return
	}

	msg, userErr := d.message(inv, err)
	if userErr {
		outcome = "user_error"
		logger.Info("command rejected", zap.Error(err))
	} else {
		outcome = "failed"
		logger.Error("command failed", zap.String("name", inv.Options[OptName]), zap.Error(err))
	}
	d.replyError(ctx, inv, logger, msg)
}

func (d *Dispatcher) replyError(ctx context.Context, inv *Invocation, logger *zap.Logger, msg string) {
	if err := inv.Respond.Edit(ctx, Reply{Content: msg}); err != nil {
		logger.Warn("report error to user", zap.Error(err))
	}
}

// message picks the text shown for err. userErr is true for validation
// failures that need no operator attention.
func (d *Dispatcher) message(inv *Invocation, err error) (msg string, userErr bool) {
	loc := inv.Locale
	name := inv.Options[OptName]
	switch {
	case errors.Is(err, character.ErrNotFound):
		if inv.Command == CmdSearch {
			return d.catalog.Tf(loc, "search.not_found", name), true
		}
		return d.catalog.T(loc, "error.not_found"), true
	case errors.Is(err, character.ErrNoData):
		return d.catalog.T(loc, "error.no_data"), true
	case errors.Is(err, character.ErrMissingName):
		return d.catalog.T(loc, "error.missing_name"), true
	case errors.Is(err, character.ErrDuplicateName):
		return d.catalog.Tf(loc, "register.duplicate", name), true
	case errors.Is(err, character.ErrStaleTarget):
		return d.catalog.T(loc, "error.stale_target"), true
	}

	switch inv.Command {
	case CmdRegister:
		return d.catalog.T(loc, "register.failed"), false
	case CmdEdit:
		return d.catalog.T(loc, "edit.failed"), false
	case CmdSearch, CmdRandom:
		return d.catalog.T(loc, "error.fetch"), false
	}
	return d.catalog.T(loc, "error.generic"), false
}
