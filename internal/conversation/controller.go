package conversation

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/csheth/studybot/internal/chat"
	"github.com/csheth/studybot/internal/metrics"
	"github.com/csheth/studybot/internal/suggest"
)

// ApologyText replaces the assistant reply when an exchange fails.
const ApologyText = "Sorry, I couldn't reach the server."

type SessionSource interface {
	GetOrCreate(ctx context.Context) (string, error)
	Adopt(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type Sender interface {
	Send(ctx context.Context, sessionID, message string) (chat.Payload, error)
}

type MetricSink interface {
	SaveLatest(ctx context.Context, set metrics.Set) error
}

// Controller runs exchanges against a Store. It is not safe for concurrent
// use: Begin and Apply belong to the UI goroutine, only Exchange.Run may run
// elsewhere.
type Controller struct {
	store    *Store
	sessions SessionSource
	sender   Sender
	sink     MetricSink
	log      *zap.Logger
	options  []suggest.Option
	busy     bool
}

func NewController(store *Store, sessions SessionSource, sender Sender, sink MetricSink, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		store:    store,
		sessions: sessions,
		sender:   sender,
		sink:     sink,
		log:      log,
		options:  suggest.Defaults(),
	}
}

// Exchange is one in-flight user message.
type Exchange struct {
	Generation uint64
	Prompt     string
	UserID     string
	TypingID   string

	sessions SessionSource
	sender   Sender
}

// Result is the outcome of Exchange.Run.
type Result struct {
	Exchange *Exchange
	Payload  chat.Payload
	Err      error
}

// Run acquires a session and sends the prompt. It does not touch the store.
func (e *Exchange) Run(ctx context.Context) Result {
	sessionID, err := e.sessions.GetOrCreate(ctx)
	if err != nil {
		return Result{Exchange: e, Err: err}
	}
	payload, err := e.sender.Send(ctx, sessionID, e.Prompt)
	return Result{Exchange: e, Payload: payload, Err: err}
}

// Begin appends the user message and a typing placeholder, then marks the
// controller busy. It refuses while another exchange is in flight or when
// text is blank.
func (c *Controller) Begin(text string) (*Exchange, bool) {
	prompt := strings.TrimSpace(text)
	if prompt == "" || c.busy {
		return nil, false
	}
	c.busy = true
	userID := c.store.AppendUser(prompt)
	typingID := c.store.ShowTyping()
	return &Exchange{
		Generation: c.store.Generation(),
		Prompt:     prompt,
		UserID:     userID,
		TypingID:   typingID,
		sessions:   c.sessions,
		sender:     c.sender,
	}, true
}

// Choose sends a quick-reply option.
func (c *Controller) Choose(option suggest.Option) (*Exchange, bool) {
	return c.Begin(option.Label)
}

// Apply folds a result into the transcript. Results from an older generation
// are dropped and Apply reports false.
func (c *Controller) Apply(ctx context.Context, res Result) bool {
	ex := res.Exchange
	if ex == nil || ex.Generation != c.store.Generation() {
		c.log.Debug("dropping stale exchange result")
		return false
	}
	c.busy = false

	if res.Err != nil {
		c.store.RemoveTyping(ex.TypingID)
		c.store.AppendBotText(ApologyText)
		c.store.SetStatus(ex.UserID, StatusFailed)
		c.log.Warn("chat exchange failed", zap.Error(res.Err))
		return true
	}

	payload := res.Payload
	c.store.ReplaceTyping(ex.TypingID, strings.TrimSpace(payload.Reply))
	c.store.SetStatus(ex.UserID, StatusConfirmed)

	set := metrics.Extract(payload.Metrics)
	if set.Pie != nil {
		if chart, ok := metrics.PieToChartData(*set.Pie); ok {
			c.store.AppendPie(chart)
		}
	}
	if c.sink != nil {
		if err := c.sink.SaveLatest(ctx, set); err != nil {
			c.log.Warn("persisting metrics failed", zap.Error(err))
		}
	}
	if err := c.sessions.Adopt(ctx, payload.SessionID); err != nil {
		c.log.Warn("adopting session id failed", zap.Error(err))
	}
	c.options = suggest.FromSuggestions(payload.Suggestions)
	return true
}

// NewChat forgets the session and restores the greeting and default options.
// Any exchange still in flight is orphaned.
func (c *Controller) NewChat(ctx context.Context) error {
	err := c.sessions.Clear(ctx)
	if err != nil {
		c.log.Warn("clearing session failed", zap.Error(err))
	}
	c.store.Reset()
	c.options = suggest.Defaults()
	c.busy = false
	return err
}

// Close orphans any exchange still in flight.
func (c *Controller) Close() {
	c.store.Invalidate()
	c.busy = false
}

func (c *Controller) Busy() bool {
	return c.busy
}

// Options returns the current quick replies.
func (c *Controller) Options() []suggest.Option {
	return append([]suggest.Option(nil), c.options...)
}

func (c *Controller) Store() *Store {
	return c.store
}
