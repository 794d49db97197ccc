// Package bot binds the registration flow to the Telegram transport: it
// decodes inbound updates into typed events, dispatches them through the
// update router, and renders the returned effects.
package bot

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/karimelhady/signupbot/core/logger"
	coretelegram "github.com/karimelhady/signupbot/core/telegram"
	"github.com/karimelhady/signupbot/core/telegram/middleware"
	"github.com/karimelhady/signupbot/registration"
	"github.com/karimelhady/signupbot/stats"
)

// Callback uniques for the signup flow keyboards.
const (
	cbPlatform = "signup_platform"
	cbMethod   = "signup_method"
	cbResume   = "signup_resume"
	cbRestart  = "signup_restart"
)

// Bot wires the registration router into telebot handlers.
type Bot struct {
	router  *registration.Router
	stats   *stats.Collector
	adminID int64
}

// New builds the transport binding.
func New(router *registration.Router, collector *stats.Collector, adminID int64) *Bot {
	return &Bot{router: router, stats: collector, adminID: adminID}
}

// Commands returns the command menu shown to users.
func (b *Bot) Commands() []tele.Command {
	return []tele.Command{
		{Text: "/signup", Description: "Start or resume your registration"},
		{Text: "/cancel", Description: "Abort the current registration"},
	}
}

// Middlewares returns the global middleware chain.
func (b *Bot) Middlewares() []coretelegram.Middleware {
	return []coretelegram.Middleware{
		{Name: "recover", Use: middleware.Recover},
		{Name: "logging", Use: middleware.Logging},
	}
}

// Routes returns every handler the bot registers.
func (b *Bot) Routes() []coretelegram.Route {
	return []coretelegram.Route{
		{Endpoint: "/signup", Handler: b.dispatch(func(tele.Context) registration.Event {
			return registration.StartCommand{}
		})},
		{Endpoint: "/cancel", Handler: b.dispatch(func(tele.Context) registration.Event {
			return registration.CancelCommand{}
		})},
		{Endpoint: "/start", Handler: b.dispatch(func(c tele.Context) registration.Event {
			return registration.Text{Body: c.Text()}
		})},
		{Endpoint: tele.OnText, Handler: b.dispatch(func(c tele.Context) registration.Event {
			return registration.Text{Body: c.Text()}
		})},
		{Endpoint: &tele.Btn{Unique: cbPlatform}, Handler: b.callback(func(c tele.Context) registration.Event {
			return registration.PlatformChosen{Platform: strings.TrimSpace(c.Data())}
		})},
		{Endpoint: &tele.Btn{Unique: cbMethod}, Handler: b.callback(func(c tele.Context) registration.Event {
			return registration.PaymentMethodChosen{Method: strings.TrimSpace(c.Data())}
		})},
		{Endpoint: &tele.Btn{Unique: cbResume}, Handler: b.callback(func(tele.Context) registration.Event {
			return registration.ResumeChosen{}
		})},
		{Endpoint: &tele.Btn{Unique: cbRestart}, Handler: b.callback(func(tele.Context) registration.Event {
			return registration.RestartChosen{}
		})},
		{Endpoint: "/stats", Handler: middleware.AdminOnly(middleware.AdminOptions{AdminID: b.adminID})(b.handleStats)},
	}
}

// dispatch decodes the update, runs it through the router, and renders the
// resulting effects.
func (b *Bot) dispatch(decode func(tele.Context) registration.Event) tele.HandlerFunc {
	return func(c tele.Context) error {
		user := c.Sender()
		if user == nil {
			return nil
		}
		ctx := logger.WithUserID(context.Background(), user.ID)
		if rid, ok := c.Get("rid").(string); ok {
			ctx = logger.WithRID(ctx, rid)
		}

		effects := b.router.Dispatch(ctx, registration.Update{
			UserID: user.ID,
			Event:  decode(c),
		})
		return render(c, effects)
	}
}

// callback acknowledges the button press before dispatching.
func (b *Bot) callback(decode func(tele.Context) registration.Event) tele.HandlerFunc {
	h := b.dispatch(decode)
	return func(c tele.Context) error {
		_ = c.Respond()
		return h(c)
	}
}

func (b *Bot) handleStats(c tele.Context) error {
	snap := b.stats.Snapshot()
	if len(snap) == 0 {
		return c.Send("No activity recorded yet.")
	}
	var sb strings.Builder
	sb.WriteString("Signup statistics:\n")
	for _, name := range b.stats.Names() {
		fmt.Fprintf(&sb, "%s: %d\n", name, snap[name])
	}
	return c.Send(sb.String())
}
