package telegramimpl

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/hashtag-harvester/internal/domain"
	"github.com/orgball2608/hashtag-harvester/internal/notifier"
	"github.com/orgball2608/hashtag-harvester/pkg/config"
	"github.com/orgball2608/hashtag-harvester/pkg/formatter"
	"github.com/orgball2608/hashtag-harvester/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

// TelegramImpl delivers run reports to the configured Telegram user. When no
// bot token is configured, reports are only logged.
type TelegramImpl struct {
	TgBot  *tgbotapi.BotAPI
	Logger logger.Logger
	Config *config.Config
}

func New(opts Opts) (*TelegramImpl, error) {
	impl := &TelegramImpl{
		Logger: opts.Logger.WithComponent("Notifier"),
		Config: opts.Config,
	}

	if opts.Config.Telegram.Token == "" {
		opts.Logger.Info("No Telegram token configured, run reports will only be logged")
		return impl, nil
	}

	tgBot, err := tgbotapi.NewBotAPI(opts.Config.Telegram.Token)
	if err != nil {
		opts.Logger.Error("Error creating bot", "error", err)
		return nil, err
	}
	impl.TgBot = tgBot

	return impl, nil
}

var _ notifier.Client = (*TelegramImpl)(nil)

// SendRunReport sends the end-of-run summary to the configured user.
func (tg *TelegramImpl) SendRunReport(ctx context.Context, report notifier.RunReport) error {
	text := formatReport(report)

	if tg.TgBot == nil {
		tg.Logger.Info("Run report", "tag", report.Stats.Tag, "report", text)
		return nil
	}

	msg := tgbotapi.NewMessage(tg.Config.Telegram.User, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := tg.TgBot.Send(msg); err != nil {
		tg.Logger.Error("Error sending run report",
			"userID", tg.Config.Telegram.User,
			"error", err)
		return fmt.Errorf("failed to send run report: %w", err)
	}

	tg.Logger.Info("Run report sent", "userID", tg.Config.Telegram.User, "tag", report.Stats.Tag)
	return nil
}

func formatReport(report notifier.RunReport) string {
	stats := report.Stats

	outcome := "completed"
	if stats.Outcome == domain.RunFailed {
		outcome = "ended on fetch failure"
	}

	text := fmt.Sprintf(
		"🏷 *Harvest %s for \\#%s*\n\nNew posts: %d\nDuplicate posts: %d\nSkipped: %d\nExcluded: %d\nPages: %d\nElapsed: %s\nTotal stored: %d",
		outcome,
		formatter.EscapeMarkdownV2(stats.Tag),
		stats.New,
		stats.Duplicate,
		stats.Skipped,
		stats.Excluded,
		stats.Pages,
		formatter.EscapeMarkdownV2(stats.Elapsed.Round(time.Millisecond).String()),
		report.TotalStored,
	)

	if report.LatestCode != "" {
		text += fmt.Sprintf("\n\n🔗 [Latest post](https://www.instagram.com/p/%s/)", report.LatestCode)
	}

	return text
}
