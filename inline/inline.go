// Package inline runs a playback session without a screen, for scripts and diagnostics.
package inline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/shortplay/shortplay/log"
	"github.com/shortplay/shortplay/player"
	"github.com/shortplay/shortplay/session"
	"github.com/shortplay/shortplay/util"
)

// Run loads a title through a session backed by a silent player, optionally resolves the
// selected episodes and prints them.
func Run(ctx context.Context, options *Options) (*Output, error) {
	if options.Out == nil {
		options.Out = os.Stdout
	}

	opts := options.Session
	opts.AutoAdvance = false
	opts.Autoplay = false

	controller := session.New(options.Backend, player.NewNull(), opts)
	defer util.Ignore(controller.Dispose)

	if err := controller.Bootstrap(ctx, options.TitleID); err != nil {
		return nil, err
	}

	if err := controller.Settle(ctx); err != nil {
		return nil, err
	}

	snapshot := controller.Snapshot()
	indices := lo.Range(len(snapshot.Episodes))
	if options.EpisodesFilter.IsPresent() {
		indices = options.EpisodesFilter.MustGet()(snapshot.Episodes)
	}

	var failures []*session.Error
	if options.Resolve {
		var err error
		failures, err = resolve(ctx, controller, snapshot, indices)
		if err != nil {
			return nil, err
		}
		snapshot = controller.Snapshot()
	}

	output := newOutput(snapshot, indices, failures)
	if options.Json {
		return output, writeJson(options.Out, output)
	}

	for _, e := range output.Episodes {
		if _, err := fmt.Fprintf(options.Out, "%d\t%s\n", e.Number, lo.CoalesceOrEmpty(e.ResolvedURL, e.ResolutionSource)); err != nil {
			return output, err
		}
	}

	return output, nil
}

// resolve switches through the selected episodes so each one gets a play URL.
// Episode failures are collected; anything else aborts.
func resolve(ctx context.Context, controller *session.Controller, snapshot session.Snapshot, indices []int) ([]*session.Error, error) {
	var failures []*session.Error

	for _, i := range indices {
		if snapshot.Episodes[i].Resolved() {
			continue
		}

		err := controller.SwitchEpisode(ctx, i)

		var serr *session.Error
		switch {
		case err == nil:
		case errors.As(err, &serr):
			log.Warnf("episode %d: %v", snapshot.Episodes[i].Number, err)
			failures = append(failures, serr)
		default:
			return failures, err
		}
	}

	return failures, nil
}
