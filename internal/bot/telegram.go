package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"stock-advisor/internal/chart"
	"stock-advisor/internal/domain"
	"stock-advisor/internal/markethours"
	"stock-advisor/internal/service"
)

const (
	commandTimeout = 30 * time.Second
	maxMessageLen  = 4000
)

type Analyst interface {
	Analyze(ctx context.Context, req service.AnalyzeRequest) (*service.Report, error)
	ChartSeries(ctx context.Context, symbol, timeframe string) (domain.PriceSeries, domain.IndicatorBundle, error)
	Quote(ctx context.Context, symbol string) (domain.Quote, error)
	Watchlist(ctx context.Context) ([]service.WatchlistEntry, error)
	Symbols() []domain.Stock
}

// StartTelegramBot starts long polling in the background and returns the
// dispatcher used for watchlist digests. It returns nil when token is empty.
func StartTelegramBot(token string, analyst Analyst, renderer *chart.Renderer) (*AlertDispatcher, error) {
	if token == "" {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	if analyst == nil {
		return nil, errors.New("telegram bot needs an analysis service")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("telegram handler failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	alerts := NewAlertDispatcher(b)
	cmds := &commands{analyst: analyst, renderer: renderer, alerts: alerts}

	b.Handle("/start", cmds.help)
	b.Handle("/help", cmds.help)
	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	b.Handle("/analyze", cmds.analyze)
	b.Handle("/quote", cmds.quote)
	b.Handle("/symbols", cmds.symbols)
	b.Handle("/watchlist", cmds.watchlist)
	b.Handle("/alerts", cmds.alertsMode)

	log.Info().Str("bot", b.Me.Username).Msg("Telegram bot started")
	go b.Start()
	return alerts, nil
}

type commands struct {
	analyst  Analyst
	renderer *chart.Renderer
	alerts   *AlertDispatcher
}

const helpText = `Indian stock advisor
/analyze SYMBOL [TIMEFRAME] - indicators, prediction and recommendation
/quote SYMBOL - realtime NSE quote
/symbols - supported symbols
/watchlist - verdicts for the watchlist
/alerts on|off|status - daily watchlist digest after the close

Timeframes: ` + "1d, 1w, 1m, 3m, 6m, 1y, 2y, 5y" + `
Informational only, not financial advice.`

func (cmds *commands) help(c tele.Context) error {
	return c.Send(helpText)
}

func (cmds *commands) analyze(c tele.Context) error {
	symbol, timeframe, err := parseAnalyzeArgs(c.Args())
	if err != nil {
		return c.Send("Usage: /analyze TCS [1y]")
	}
	_ = c.Notify(tele.Typing)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	report, err := cmds.analyst.Analyze(ctx, service.AnalyzeRequest{
		Symbol:      symbol,
		Timeframe:   timeframe,
		UseRealtime: true,
		UseAI:       true,
	})
	if err != nil {
		return c.Send(userError(symbol, err))
	}
	text := truncate(formatReport(report))

	if cmds.renderer == nil {
		return c.Send(text)
	}
	series, bundle, err := cmds.analyst.ChartSeries(ctx, report.Symbol, report.Timeframe)
	if err != nil {
		return c.Send(text)
	}
	img, err := cmds.renderer.Render(series, bundle, chart.PanelRSI)
	if err != nil {
		log.Warn().Err(err).Str("symbol", report.Symbol).Msg("chart render failed")
		return c.Send(text)
	}
	if err := c.Send(&tele.Photo{File: tele.FromReader(bytes.NewReader(img.Bytes)), Caption: report.Symbol + " " + report.Timeframe}); err != nil {
		log.Warn().Err(err).Msg("send chart failed")
	}
	return c.Send(text)
}

func (cmds *commands) quote(c tele.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return c.Send("Usage: /quote RELIANCE")
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	q, err := cmds.analyst.Quote(ctx, args[0])
	if err != nil {
		return c.Send(userError(args[0], err))
	}
	return c.Send(formatQuote(q))
}

func (cmds *commands) symbols(c tele.Context) error {
	lines := []string{"Supported symbols:"}
	for _, s := range cmds.analyst.Symbols() {
		lines = append(lines, fmt.Sprintf("%s - %s", s.Symbol, s.Name))
	}
	return c.Send(strings.Join(lines, "\n"))
}

func (cmds *commands) watchlist(c tele.Context) error {
	_ = c.Notify(tele.Typing)
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	entries, err := cmds.analyst.Watchlist(ctx)
	if err != nil {
		return c.Send(fmt.Sprintf("Error building watchlist: %v", err))
	}
	return c.Send(truncate(formatWatchlist("Watchlist", entries)))
}

func (cmds *commands) alertsMode(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return c.Send("Unable to detect chat")
	}
	mode, err := parseAlertMode(c.Args())
	if err != nil {
		return c.Send("Usage: /alerts on | /alerts off | /alerts status")
	}

	switch mode {
	case alertOn:
		if cmds.alerts.Subscribe(chat.ID) {
			return c.Send("Daily watchlist digest enabled for this chat.")
		}
		return c.Send("Daily watchlist digest is already enabled for this chat.")
	case alertOff:
		if cmds.alerts.Unsubscribe(chat.ID) {
			return c.Send("Daily watchlist digest disabled for this chat.")
		}
		return c.Send("Daily watchlist digest is already disabled for this chat.")
	}
	if since, ok := cmds.alerts.Subscription(chat.ID); ok {
		return c.Send("Alerts status: ON since " + since.In(markethours.IST).Format("02 Jan 2006"))
	}
	return c.Send("Alerts status: OFF")
}

func parseAnalyzeArgs(args []string) (string, string, error) {
	if len(args) == 0 || len(args) > 2 {
		return "", "", errors.New("expected SYMBOL [TIMEFRAME]")
	}
	symbol := strings.TrimSpace(args[0])
	if symbol == "" {
		return "", "", errors.New("missing symbol")
	}
	timeframe := domain.DefaultTimeframe
	if len(args) == 2 {
		raw := strings.ToLower(strings.TrimSpace(args[1]))
		timeframe = domain.NormalizeTimeframe(raw)
		if timeframe == domain.DefaultTimeframe && raw != domain.DefaultTimeframe {
			return "", "", fmt.Errorf("unsupported timeframe %q", args[1])
		}
	}
	return symbol, timeframe, nil
}

func userError(symbol string, err error) string {
	switch {
	case domain.IsInvalidSymbol(err):
		return fmt.Sprintf("%v\nSee /symbols for supported tickers.", err)
	case errors.Is(err, domain.ErrCollaboratorDisabled):
		return "Realtime quotes are not configured on this server."
	case domain.IsUpstream(err):
		return fmt.Sprintf("Market data for %s is unavailable right now, try again later.", strings.ToUpper(symbol))
	}
	log.Error().Err(err).Str("symbol", symbol).Msg("telegram command failed")
	return "Something went wrong, try again later."
}

func formatReport(r *service.Report) string {
	var b strings.Builder
	title := r.Symbol
	if r.Name != "" {
		title = fmt.Sprintf("%s (%s)", r.Name, r.Symbol)
	}
	fmt.Fprintf(&b, "%s\nPrice: ₹%.2f [%s, %s, %d bars]\n", title, r.CurrentPrice, r.DataSource, r.Timeframe, r.Bars)
	fmt.Fprintf(&b, "\nRecommendation: %s (%d%% confidence)\n", r.Recommendation.Verdict, r.Recommendation.Confidence)
	for _, reason := range r.Recommendation.Reasons {
		fmt.Fprintf(&b, "• %s\n", reason)
	}

	s := r.Analysis
	b.WriteString("\nIndicators:\n")
	fmt.Fprintf(&b, "SMA20 %s | SMA50 %s | SMA200 %s\n", num(s.SMA20), num(s.SMA50), num(s.SMA200))
	fmt.Fprintf(&b, "RSI %s | MACD %s / %s\n", num(s.RSI), num(s.MACD), num(s.MACDSignal))
	fmt.Fprintf(&b, "Stoch %%K %s %%D %s\n", num(s.StochK), num(s.StochD))
	if s.BBPosition != "" {
		fmt.Fprintf(&b, "Bollinger: %s\n", s.BBPosition)
	}

	if p := r.Prediction; p != nil {
		fmt.Fprintf(&b, "\nPrediction (%s): %s %.0f%%, expected %+.2f%%\n", p.Source, strings.ToUpper(string(p.Direction)), p.Confidence*100, p.PredictedReturn)
	}
	if a := r.Anomaly; a != nil && a.UnusualActivity {
		fmt.Fprintf(&b, "\nUnusual activity detected (score %.2f)\n", a.Score)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "⚠ %s\n", w)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatQuote(q domain.Quote) string {
	return fmt.Sprintf(
		"%s\nPrice: ₹%.2f (%+.2f, %+.2f%%)\nOpen ₹%.2f  High ₹%.2f  Low ₹%.2f\nPrev close ₹%.2f  Volume %.0f\nMarket %s",
		q.Symbol, q.LastPrice, q.Change, q.PercentChange,
		q.Open, q.DayHigh, q.DayLow,
		q.PreviousClose, q.Volume,
		q.MarketStatus,
	)
}

func formatWatchlist(title string, entries []service.WatchlistEntry) string {
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, title+":")
	for _, e := range entries {
		if e.Error != "" {
			lines = append(lines, fmt.Sprintf("%s: unavailable (%s)", e.Symbol, e.Error))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s ₹%.2f (%+.2f%%) %s %d%%", e.Symbol, e.CurrentPrice, e.PriceChangePct, e.Verdict, e.Confidence))
	}
	return strings.Join(lines, "\n")
}

func num(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func truncate(msg string) string {
	r := []rune(msg)
	if len(r) <= maxMessageLen {
		return msg
	}
	return string(r[:maxMessageLen]) + "\n\n[truncated]"
}
