package notify

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/alexandernicoud/we-convolve/internal/logger"
	"github.com/alexandernicoud/we-convolve/internal/services/report"
)

// Notifier pushes run lifecycle messages to a Telegram chat. A nil
// Notifier is valid and sends nothing, so callers never have to
// branch on whether Telegram is configured.
type Notifier struct {
	bot    *tele.Bot
	chatID int64
	log    logger.Logger
}

// NewNotifier connects the bot when both token and chat id are set
// and returns nil otherwise.
func NewNotifier(token string, chatID int64, log logger.Logger) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("notify: connect telegram: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID, log: log}, nil
}

// RunStarted announces a new sweep.
func (n *Notifier) RunStarted(symbol, runID string, gridSize int) {
	if n == nil {
		return
	}
	msg := fmt.Sprintf(`▶️ *Sweep started: %s*

Run: %s
Grid: %d combinations`, symbol, runID, gridSize)
	n.send(msg)
}

// RunCompleted sends the headline card of a finished sweep.
func (n *Notifier) RunCompleted(m report.SummaryMetrics, elapsed time.Duration) {
	if n == nil {
		return
	}
	msg := fmt.Sprintf(`✅ *Sweep completed: %s*

Period: %s to %s
Best system: tp=%.2f%% sl=%.2f%% h=%d
CAGR: %.2f%%
Max drawdown: %.2f%%
Trades: %d
Win rate: %.1f%%

⏱ %s`,
		m.Symbol,
		m.Start, m.End,
		m.BestTP*100, m.BestSL*100, m.BestH,
		m.BestCAGR,
		m.MaxDrawdown,
		m.Trades,
		m.WinRate*100,
		elapsed.Round(time.Second),
	)
	n.send(msg)
}

// RunFailed reports a sweep that did not finish.
func (n *Notifier) RunFailed(symbol, runID string, err error) {
	if n == nil {
		return
	}
	msg := fmt.Sprintf(`❌ *Sweep failed: %s*

Run: %s
Error: %v`, symbol, runID, err)
	n.send(msg)
}

func (n *Notifier) send(msg string) {
	if _, err := n.bot.Send(&tele.User{ID: n.chatID}, msg, tele.ModeMarkdown); err != nil {
		n.log.Warn("telegram send failed", zap.Error(err))
	}
}
