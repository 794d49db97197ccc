package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/karimelhady/signupbot/core/telegram/keyboard"
	"github.com/karimelhady/signupbot/registration"
)

// platforms lists the selectable platforms in display order.
var platforms = []string{"1xBet", "Melbet", "Linebet"}

var methodTitles = map[string]string{
	registration.MethodVodafoneCash: "Vodafone Cash",
	registration.MethodEtisalatCash: "Etisalat Cash",
	registration.MethodOrangeCash:   "Orange Cash",
	registration.MethodInstaPay:     "InstaPay",
}

func methodTitle(method string) string {
	if t, ok := methodTitles[method]; ok {
		return t
	}
	return method
}

func platformKeyboard() *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(platforms))
	for _, p := range platforms {
		btns = append(btns, keyboard.InlineBtn{Text: p, Unique: cbPlatform, Data: p})
	}
	return keyboard.InlineButtons(btns)
}

func methodKeyboard() *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(registration.Methods))
	for _, m := range registration.Methods {
		btns = append(btns, keyboard.InlineBtn{Text: methodTitle(m), Unique: cbMethod, Data: m})
	}
	return keyboard.InlineButtons(btns)
}

func resumeKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "▶️ Continue", Unique: cbResume},
		{Text: "🔄 Start over", Unique: cbRestart},
	})
}

// render sends one message per effect, in order.
func render(c tele.Context, effects []registration.Effect) error {
	for _, eff := range effects {
		if err := renderOne(c, eff); err != nil {
			return err
		}
	}
	return nil
}

func renderOne(c tele.Context, eff registration.Effect) error {
	switch eff.Kind {
	case registration.EffectPromptPlatform:
		return c.Send("Choose the platform you want to register on:", platformKeyboard())
	case registration.EffectPromptWhatsApp:
		if eff.Resume.Platform != "" {
			return c.Send(fmt.Sprintf(
				"Resuming your %s registration. Send your WhatsApp number (like 01012345678):",
				eff.Resume.Platform))
		}
		return c.Send("Send your WhatsApp number (like 01012345678):")
	case registration.EffectPromptPayment:
		if eff.Resume.WhatsApp != "" {
			return c.Send(fmt.Sprintf(
				"Resuming your %s registration (WhatsApp: %s). Choose your payment method:",
				eff.Resume.Platform, eff.Resume.WhatsApp), methodKeyboard())
		}
		return c.Send("Choose your payment method:", methodKeyboard())
	case registration.EffectPaymentInstructions:
		return c.Send(fmt.Sprintf(
			"You picked %s. Now send your %s account details.",
			methodTitle(eff.Method), methodTitle(eff.Method)))
	case registration.EffectAskResume:
		return c.Send(fmt.Sprintf(
			"You have an unfinished registration%s. Continue where you left off, or start over?",
			resumeSummary(eff.Resume)), resumeKeyboard())
	case registration.EffectCompletedMenu:
		return c.Send("You are already registered ✅. Contact support if you need to change your details.")
	case registration.EffectDone:
		return c.Send("Registration complete ✅. We will contact you on WhatsApp shortly.")
	case registration.EffectCancelled:
		return c.Send("Registration cancelled. Send /signup whenever you want to try again.")
	case registration.EffectValidationError:
		return c.Send(eff.Text)
	case registration.EffectDetailsBeforeMethod:
		return c.Send("Pick a payment method first, then send your account details.", methodKeyboard())
	case registration.EffectNudge:
		return c.Send("I did not understand that. Use the buttons above, or send /signup to start.")
	case registration.EffectDataLost:
		return c.Send("Sorry, part of your saved progress was lost, so we need to start from the beginning.")
	case registration.EffectGenericError:
		return c.Send("Something went wrong on our side. Please try that again.")
	case registration.EffectRateLimited:
		return c.Send("You are doing that too often. Please wait a bit and try again.")
	case registration.EffectGreeting:
		return c.Send("Welcome! 👋 Send /signup to register on one of our platforms.")
	case registration.EffectResumeHint:
		return c.Send("You have an unfinished registration. Send /signup to continue it.")
	case registration.EffectAlreadyRegistered:
		return c.Send("You are already registered ✅. Send /signup to see your options.")
	default:
		return nil
	}
}

func resumeSummary(r registration.ResumeInfo) string {
	switch {
	case r.Platform != "" && r.WhatsApp != "":
		return fmt.Sprintf(" on %s (WhatsApp: %s)", r.Platform, r.WhatsApp)
	case r.Platform != "":
		return fmt.Sprintf(" on %s", r.Platform)
	default:
		return ""
	}
}
