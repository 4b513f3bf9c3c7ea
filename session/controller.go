// Package session drives playback of one title: it loads the title, switches episodes,
// retries failures and counts down to the next episode.
//
// A Controller owns an episode cache and a player sink. Backend calls run outside the
// state lock and are matched back to the state by generation counters, so a late answer
// for a request the user has moved past never retargets the player.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shortplay/shortplay/countdown"
	"github.com/shortplay/shortplay/log"
	"github.com/shortplay/shortplay/player"
	"github.com/shortplay/shortplay/playlist"
	"github.com/shortplay/shortplay/retry"
	"github.com/shortplay/shortplay/source"
	"github.com/sourcegraph/conc"
)

// Backend is what the controller needs from the catalogue service.
type Backend interface {
	GetTitle(ctx context.Context, id string, maxEpisodes int) (*source.Title, error)
	ResolveEpisode(ctx context.Context, episodeURL string) (string, error)
}

var errNoEpisodes = errors.New("title has no episodes")

// operation prepares a retryable step. It is called with the state lock held and returns
// the part that runs after the lock is released.
type operation func(ctx context.Context, retrying bool) (func() error, error)

// Controller is the playback session state machine. It is safe for concurrent use.
type Controller struct {
	id      string
	backend Backend
	sink    player.Sink
	opts    Options
	policy  retry.Policy
	timer   *countdown.Timer
	cache   *playlist.Cache
	log     *log.Entry

	// ctx lives until Dispose and parents every backend call.
	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	// sinkMu serialises calls into the sink so an older retarget cannot land after a newer one.
	sinkMu sync.Mutex

	mu             sync.Mutex
	state          State
	titleID        string
	title          *source.Title
	currentIndex   int
	loading        bool
	buffering      bool
	retryCount     int
	lastError      *Error
	lastOp         operation
	advance        *AdvanceState
	titleGen       uint64
	switchGen      uint64
	advanceGen     uint64
	backfillCancel context.CancelFunc
	backfillDone   chan struct{}
	backfilling    bool
	endedAtTail    bool
	unsubscribe    func()

	subsMu  sync.Mutex
	subs    map[int]func(Notification)
	nextSub int
}

// New creates an idle controller that plays through sink.
func New(backend Backend, sink player.Sink, opts Options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		id:      uuid.NewString(),
		backend: backend,
		sink:    sink,
		opts:    opts,
		timer:   lo.Ternary(opts.Timer != nil, opts.Timer, countdown.New()),
		cache:   playlist.New(),
		ctx:     ctx,
		cancel:  cancel,
		state:   Idle,
		subs:    make(map[int]func(Notification)),
	}

	c.log = log.WithField("session", c.id)
	c.policy = opts.Policy
	c.policy.OnRetry = func(attempt int, err error) {
		c.log.Warnf("attempt %d failed: %v", attempt, err)
	}
	c.unsubscribe = sink.Subscribe(c.onSinkEvent)

	return c
}

// ID returns the session identifier used in logs.
func (c *Controller) ID() string {
	return c.id
}

// Subscribe registers fn for notifications and returns a function that removes it.
// fn runs on whichever goroutine caused the change. It must not block and must not call
// operations that load media.
func (c *Controller) Subscribe(fn func(Notification)) func() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subsMu.Lock()
			defer c.subsMu.Unlock()
			delete(c.subs, id)
		})
	}
}

func (c *Controller) publish(n Notification) {
	c.subsMu.Lock()
	ids := lo.Keys(c.subs)
	slices.Sort(ids)
	fns := lo.Map(ids, func(id int, _ int) func(Notification) { return c.subs[id] })
	c.subsMu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

func (c *Controller) notify(kind NotificationKind) {
	c.publish(Notification{Kind: kind, Snapshot: c.Snapshot()})
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		SessionID:    c.id,
		State:        c.state,
		TitleID:      c.titleID,
		Episodes:     c.cache.Snapshot(),
		CurrentIndex: c.currentIndex,
		IsLoading:    c.loading,
		Buffering:    c.buffering,
		RetryCount:   c.retryCount,
		MaxRetry:     c.opts.MaxRetry,
		LastError:    c.lastError,
		Complete:     c.cache.IsComplete(),
	}
	if c.title != nil {
		s.DisplayTitle = c.title.String()
	}
	if c.advance != nil {
		advance := *c.advance
		s.Advance = &advance
	}
	return s
}

// opContext derives a context that ends with either ctx or the session.
func (c *Controller) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

// Bootstrap loads a title and starts its first episode.
//
// The first fetch asks for few resolved episodes so playback starts quickly; the rest of the
// list is fetched in the background unless the first answer already looks complete. On
// failure the session enters Failed with a LoadFailed error that Retry can act on.
func (c *Controller) Bootstrap(ctx context.Context, titleID string) error {
	c.mu.Lock()
	run, err := c.prepareBootstrapLocked(ctx, titleID, false)
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return run()
}

func (c *Controller) bootstrapOp(titleID string) operation {
	return func(ctx context.Context, retrying bool) (func() error, error) {
		return c.prepareBootstrapLocked(ctx, titleID, retrying)
	}
}

func (c *Controller) prepareBootstrapLocked(ctx context.Context, titleID string, retrying bool) (func() error, error) {
	switch {
	case c.state == Disposed:
		return nil, ErrDisposed
	case c.loading:
		return nil, ErrBusy
	}

	c.cancelAdvanceLocked()
	if c.backfillCancel != nil {
		c.backfillCancel()
		c.backfillCancel = nil
	}
	c.backfilling, c.endedAtTail = false, false
	if !retrying {
		// a reload starts over with the full retry budget
		c.retryCount = 0
	}

	c.titleGen++
	c.switchGen++
	titleGen, switchGen := c.titleGen, c.switchGen

	c.state = Bootstrapping
	c.loading = true
	c.buffering = false
	c.titleID = titleID
	c.title = nil
	c.currentIndex = 0
	c.cache.Replace(nil)
	c.lastError, c.lastOp = nil, nil

	opCtx, cancel := c.opContext(ctx)
	c.log.Infof("loading title %s", titleID)

	return func() error {
		c.notify(StateChanged)

		title, err := retry.Do(opCtx, c.policy, func(ctx context.Context) (*source.Title, error) {
			return c.backend.GetTitle(ctx, titleID, c.opts.FastEpisodes)
		})
		cancel()

		return c.finishBootstrap(ctx, titleGen, switchGen, titleID, title, err, retrying)
	}, nil
}

func (c *Controller) finishBootstrap(ctx context.Context, titleGen, switchGen uint64, titleID string, title *source.Title, err error, retrying bool) error {
	c.mu.Lock()
	if c.state == Disposed {
		c.mu.Unlock()
		return ErrDisposed
	}

	c.loading = false
	if err == nil && len(title.Episodes) == 0 && !title.HasDirectURL() {
		err = retry.Permanent(errNoEpisodes)
	}

	if err != nil {
		c.state = Failed
		serr := c.failLocked(LoadFailed, "bootstrap", 0, err, retrying, c.bootstrapOp(titleID))
		c.mu.Unlock()

		c.log.Warnf("load %s: %v", titleID, err)
		c.notify(StateChanged)
		return serr
	}

	episodes := slices.Clone(title.Episodes)
	if title.HasDirectURL() {
		if len(episodes) == 0 {
			episodes = []source.Episode{{Number: 1}}
		}
		// the title-level URL is the first episode's media
		episodes[0].ResolvedURL = lo.CoalesceOrEmpty(episodes[0].ResolvedURL, title.PrimaryPlayURL)
	}
	target := lo.CoalesceOrEmpty(title.PrimaryPlayURL, episodes[0].ResolvedURL)

	c.title = title
	c.cache.Replace(episodes)
	c.currentIndex = 0
	c.retryCount = 0
	c.state = Ready
	if !c.cache.IsComplete() {
		c.startBackfillLocked(titleGen, titleID)
	}
	c.mu.Unlock()

	c.log.Infof("loaded %q with %d episodes", title.String(), len(episodes))
	c.notify(StateChanged)

	if target == "" {
		return c.SwitchEpisode(ctx, 0)
	}
	return c.retarget(switchGen, target, retrying)
}

// startBackfillLocked fetches the full episode list in the background and merges it.
// Failures are logged and leave the cache as it is. An episode that ended at the tail of
// the list while the fetch ran is handled again once it finishes.
func (c *Controller) startBackfillLocked(titleGen uint64, titleID string) {
	ctx, cancel := context.WithCancel(c.ctx)
	done := make(chan struct{})
	c.backfillCancel = cancel
	c.backfillDone = done
	c.backfilling = true

	c.wg.Go(func() {
		defer close(done)
		defer cancel()

		title, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*source.Title, error) {
			return c.backend.GetTitle(ctx, titleID, c.opts.FullEpisodes)
		})

		c.mu.Lock()
		if c.state == Disposed || titleGen != c.titleGen {
			c.mu.Unlock()
			return
		}
		c.backfilling = false
		ended := c.endedAtTail
		c.endedAtTail = false

		if err == nil {
			c.cache.Merge(title.Episodes)
			c.cache.MarkComplete()
			if c.title != nil && c.title.DisplayTitle == "" {
				c.title.DisplayTitle = title.DisplayTitle
			}
		}
		total := c.cache.Len()
		c.mu.Unlock()

		if err != nil {
			c.log.Warnf("fetch full episode list of %s: %v", titleID, err)
		} else {
			c.log.Debugf("episode list of %s complete with %d episodes", titleID, total)
			c.notify(EpisodesUpdated)
		}

		if ended {
			c.OnPlaybackEnded()
		}
	})
}

// SwitchEpisode makes the episode at index current.
//
// A resolved episode is played at once. Otherwise its play URL is resolved first; the index
// only changes when that succeeds. When switches overlap the most recent one wins and the
// others return ErrSuperseded, though a URL they resolve is still kept in the cache.
func (c *Controller) SwitchEpisode(ctx context.Context, index int) error {
	c.mu.Lock()
	run, err := c.prepareSwitchLocked(ctx, index, false)
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return run()
}

// Next switches to the following episode.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	run, err := c.prepareSwitchLocked(ctx, c.currentIndex+1, false)
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return run()
}

// Previous switches to the preceding episode.
func (c *Controller) Previous(ctx context.Context) error {
	c.mu.Lock()
	run, err := c.prepareSwitchLocked(ctx, c.currentIndex-1, false)
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return run()
}

func (c *Controller) switchOp(index int) operation {
	return func(ctx context.Context, retrying bool) (func() error, error) {
		return c.prepareSwitchLocked(ctx, index, retrying)
	}
}

func (c *Controller) prepareSwitchLocked(ctx context.Context, index int, retrying bool) (func() error, error) {
	switch c.state {
	case Disposed:
		return nil, ErrDisposed
	case Bootstrapping:
		return nil, ErrBusy
	case Idle, Failed:
		return nil, ErrNotReady
	}

	episode, ok := c.cache.Get(index).Get()
	if !ok {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, c.cache.Len())
	}

	c.cancelAdvanceLocked()
	c.switchGen++
	gen, titleGen := c.switchGen, c.titleGen
	c.lastError, c.lastOp = nil, nil
	c.endedAtTail = false
	if !retrying {
		c.retryCount = 0
	}

	switch {
	case episode.Resolved():
		c.currentIndex = index
		c.state = Ready
		c.loading = false

		return func() error {
			c.notify(StateChanged)
			return c.retarget(gen, episode.ResolvedURL, retrying)
		}, nil

	case episode.ResolutionSource != "":
		c.state = Switching
		c.loading = true
		opCtx, cancel := c.opContext(ctx)
		c.log.Debugf("resolving episode %d", episode.Number)

		return func() error {
			c.notify(StateChanged)

			url, err := retry.Do(opCtx, c.policy, func(ctx context.Context) (string, error) {
				return c.backend.ResolveEpisode(ctx, episode.ResolutionSource)
			})
			cancel()

			return c.finishSwitch(titleGen, gen, index, episode.Number, url, err, retrying)
		}, nil

	default:
		c.state = Ready
		c.loading = false
		serr := &Error{Kind: EpisodeUnplayable, Op: "switch", Episode: episode.Number}
		c.lastError = serr

		return func() error {
			c.notify(StateChanged)
			return serr
		}, nil
	}
}

func (c *Controller) finishSwitch(titleGen, gen uint64, index, number int, url string, err error, retrying bool) error {
	c.mu.Lock()
	switch {
	case c.state == Disposed:
		c.mu.Unlock()
		return ErrDisposed
	case titleGen != c.titleGen:
		c.mu.Unlock()
		return ErrSuperseded
	}

	if err == nil {
		c.cache.SetResolvedURL(index, url)
	}

	if gen != c.switchGen {
		c.mu.Unlock()
		c.log.Debugf("switch to episode %d superseded", number)
		return ErrSuperseded
	}

	c.loading = false
	c.state = Ready

	if err != nil {
		serr := c.failLocked(EpisodeUnresolvable, "switch", number, err, retrying, c.switchOp(index))
		c.mu.Unlock()

		c.log.Warnf("resolve episode %d: %v", number, err)
		c.notify(StateChanged)
		return serr
	}

	c.currentIndex = index
	c.mu.Unlock()

	c.notify(StateChanged)
	return c.retarget(gen, url, retrying)
}

// retarget hands url to the sink if gen is still the latest switch.
func (c *Controller) retarget(gen uint64, url string, retrying bool) error {
	c.sinkMu.Lock()

	c.mu.Lock()
	disposed, stale := c.state == Disposed, gen != c.switchGen
	c.buffering = !disposed && !stale
	c.mu.Unlock()

	switch {
	case disposed:
		c.sinkMu.Unlock()
		return ErrDisposed
	case stale:
		c.sinkMu.Unlock()
		return ErrSuperseded
	}

	err := c.sink.SetSource(url, player.MimeTypeOf(url))
	if err == nil && c.opts.Autoplay {
		err = c.sink.Play()
	}
	c.sinkMu.Unlock()

	c.mu.Lock()
	if gen != c.switchGen || c.state == Disposed {
		c.mu.Unlock()
		return ErrSuperseded
	}

	if err != nil {
		c.buffering = false
		serr := c.failLocked(PlaybackError, "playback", c.currentNumberLocked(), err, retrying, c.switchOp(c.currentIndex))
		c.mu.Unlock()

		c.log.Errorf("play %s: %v", url, err)
		c.notify(StateChanged)
		return serr
	}

	c.retryCount = 0
	number := c.currentNumberLocked()
	c.mu.Unlock()

	c.log.Infof("playing episode %d", number)
	c.notify(EpisodeChanged)
	return nil
}

// failLocked records a failure. A failure of the last allowed retry becomes RetryExhausted,
// which moves the session to Failed and drops the retryable operation.
func (c *Controller) failLocked(kind ErrorKind, op string, number int, err error, retrying bool, next operation) *Error {
	if retrying && c.retryCount >= c.opts.MaxRetry {
		kind = RetryExhausted
		next = nil
		c.state = Failed
	}

	serr := &Error{Kind: kind, Op: op, Episode: number, Err: err}
	c.lastError = serr
	c.lastOp = next
	return serr
}

func (c *Controller) currentNumberLocked() int {
	if e, ok := c.cache.Get(c.currentIndex).Get(); ok {
		return e.Number
	}
	return 0
}

// Retry repeats the last failed load.
//
// Each call counts against MaxRetry. A success resets the count; when the last allowed retry
// fails the error becomes RetryExhausted and every further call returns it unchanged.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()

	switch {
	case c.state == Disposed:
		c.mu.Unlock()
		return ErrDisposed
	case c.loading:
		c.mu.Unlock()
		return ErrBusy
	case c.lastError != nil && c.lastError.Kind == RetryExhausted:
		serr := c.lastError
		c.mu.Unlock()
		return serr
	case c.lastOp == nil:
		c.mu.Unlock()
		return ErrNothingToRetry
	case c.retryCount >= c.opts.MaxRetry:
		serr := c.lastError
		c.mu.Unlock()
		return serr
	}

	c.retryCount++
	attempt, op := c.retryCount, c.lastOp

	run, err := op(ctx, true)
	if err != nil {
		c.retryCount--
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.log.Infof("retry %d of %d", attempt, c.opts.MaxRetry)
	return run()
}

// OnPlaybackEnded reacts to the current episode finishing. With a next episode and
// auto-advance enabled it starts the countdown. After the last episode it publishes
// AllEpisodesComplete, once any running list fetch has finished without adding a successor.
func (c *Controller) OnPlaybackEnded() {
	c.mu.Lock()
	if c.state != Ready {
		c.mu.Unlock()
		return
	}
	c.buffering = false

	next := c.currentIndex + 1
	if next >= c.cache.Len() {
		if c.backfilling {
			// the rest of the list may still arrive
			c.endedAtTail = true
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		c.log.Infof("all episodes watched")
		c.notify(AllEpisodesComplete)
		return
	}

	if !c.opts.AutoAdvance {
		c.mu.Unlock()
		return
	}

	c.advanceGen++
	gen := c.advanceGen
	c.state = AwaitingAdvance
	c.advance = &AdvanceState{TargetIndex: next, CountdownSeconds: c.opts.AdvanceSeconds}
	c.timer.Start(
		c.opts.AdvanceSeconds,
		func(remaining int) { c.onTick(gen, remaining) },
		func() { c.onExpire(gen) },
	)
	c.mu.Unlock()

	c.notify(StateChanged)
}

func (c *Controller) onTick(gen uint64, remaining int) {
	c.mu.Lock()
	if gen != c.advanceGen || c.state != AwaitingAdvance {
		c.mu.Unlock()
		return
	}
	c.advance.CountdownSeconds = remaining
	c.mu.Unlock()

	c.notify(CountdownTick)
}

func (c *Controller) onExpire(gen uint64) {
	c.mu.Lock()
	if gen != c.advanceGen || c.state != AwaitingAdvance {
		c.mu.Unlock()
		return
	}
	run, err := c.prepareSwitchLocked(c.ctx, c.advance.TargetIndex, false)
	c.mu.Unlock()

	if err == nil {
		err = run()
	}
	if err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, ErrDisposed) {
		c.log.Warnf("auto-advance: %v", err)
	}
}

// CancelAdvance stops a pending auto-advance and stays on the current episode.
func (c *Controller) CancelAdvance() error {
	c.mu.Lock()
	if c.state != AwaitingAdvance {
		c.mu.Unlock()
		return ErrNotAwaiting
	}

	cancelled := *c.advance
	cancelled.Cancelled = true
	c.cancelAdvanceLocked()

	snapshot := c.snapshotLocked()
	snapshot.Advance = &cancelled
	c.mu.Unlock()

	c.publish(Notification{Kind: StateChanged, Snapshot: snapshot})
	return nil
}

// AdvanceNow skips the rest of the countdown.
func (c *Controller) AdvanceNow(ctx context.Context) error {
	c.mu.Lock()
	if c.state != AwaitingAdvance {
		c.mu.Unlock()
		return ErrNotAwaiting
	}
	run, err := c.prepareSwitchLocked(ctx, c.advance.TargetIndex, false)
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return run()
}

// cancelAdvanceLocked drops a pending countdown. Ticks still in flight see the bumped
// generation and do nothing.
func (c *Controller) cancelAdvanceLocked() {
	if c.state != AwaitingAdvance {
		return
	}
	c.advanceGen++
	c.timer.Cancel()
	c.advance = nil
	c.state = Ready
}

func (c *Controller) onSinkEvent(e player.Event) {
	switch e.Kind {
	case player.Ready:
		c.mu.Lock()
		c.buffering = false
		c.mu.Unlock()
		c.notify(StateChanged)

	case player.Waiting:
		c.mu.Lock()
		c.buffering = true
		c.mu.Unlock()
		c.notify(StateChanged)

	case player.Ended:
		c.OnPlaybackEnded()

	case player.Error:
		c.mu.Lock()
		if c.state != Ready && c.state != AwaitingAdvance {
			c.mu.Unlock()
			return
		}
		c.cancelAdvanceLocked()
		c.buffering = false
		c.failLocked(PlaybackError, "playback", c.currentNumberLocked(), errors.New(e.Detail), false, c.switchOp(c.currentIndex))
		c.mu.Unlock()

		c.log.Errorf("player: %s", e.Detail)
		c.notify(StateChanged)

	case player.Closed:
		c.notify(PlayerClosed)
	}
}

// Settle blocks until the latest background episode-list fetch finishes or ctx is done.
// It returns at once when no fetch was started.
func (c *Controller) Settle(ctx context.Context) error {
	c.mu.Lock()
	done := c.backfillDone
	c.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispose tears the session down: pending countdowns and backend calls are cancelled,
// background work is awaited and the sink is released. It is idempotent.
func (c *Controller) Dispose() error {
	c.mu.Lock()
	if c.state == Disposed {
		c.mu.Unlock()
		return nil
	}
	c.cancelAdvanceLocked()
	c.state = Disposed
	c.loading = false
	c.buffering = false
	c.cancel()
	unsubscribe := c.unsubscribe
	c.mu.Unlock()

	unsubscribe()
	c.wg.Wait()
	c.timer.Cancel()

	c.sinkMu.Lock()
	err := c.sink.Dispose()
	c.sinkMu.Unlock()

	c.notify(StateChanged)

	c.subsMu.Lock()
	c.subs = make(map[int]func(Notification))
	c.subsMu.Unlock()

	c.log.Infof("session closed")
	if err != nil {
		return fmt.Errorf("dispose player: %w", err)
	}
	return nil
}
