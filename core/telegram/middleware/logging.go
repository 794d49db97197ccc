package middleware

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/karimelhady/signupbot/core/logger"
)

// Logging logs a single receipt line per update and stores the correlation id
// on the telebot context for downstream handlers.
func Logging(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var userID int64
		if user := c.Sender(); user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, userID)
		c.Set("rid", rid)

		start := time.Now()
		err := next(c)

		attrs := []slog.Attr{
			slog.String("rid", rid),
			slog.Int("update_id", upd.ID),
			slog.Int64("user_id", userID),
			slog.Duration("duration", time.Since(start)),
		}
		if upd.Callback != nil {
			attrs = append(attrs, slog.String("kind", "callback"))
		} else if upd.Message != nil {
			attrs = append(attrs,
				slog.String("kind", "message"),
				slog.String("payload", logger.Sanitize(c.Text(), 128)),
			)
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
			logger.TG.LogAttrs(context.Background(), slog.LevelError, "update.handled", attrs...)
			return err
		}
		logger.TG.LogAttrs(context.Background(), slog.LevelDebug, "update.handled", attrs...)
		return nil
	}
}
