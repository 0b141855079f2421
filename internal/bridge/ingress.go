// Package bridge implements the task board's bridge-ingress component: a
// dedicated goroutine that demultiplexes inbound wire commands from the
// messaging fabric, resolves them against the pending remote-task table
// or enqueues new local work, and replies over the same fabric.
package bridge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/brightfield/tboard/internal/task"
)

// LocalEnqueuer is the task board's local-scheduling surface: a place to
// push a task.Task built from an inbound REXEC-ASY/REXEC-SYN request that
// has cleared its condition check.
type LocalEnqueuer interface {
	EnqueueRemote(t *task.Task) error
}

// PendingResolver is the task board's pending remote-task table,
// consulted whenever a reply arrives.
type PendingResolver interface {
	ResolveByCallID(callID string) (*task.RemoteTask, bool)
	ResolveByActArg(actarg string) (*task.RemoteTask, bool)
	Ack(callID string) error
	Nak(callID, reason string) error
	Complete(callID string, result any) error
	Fail(callID, reason string) error
}

// PublishPolicy decides which tiers an outbound command is fanned out
// to. The default, FanOutAll, matches the reference implementation's
// unconditional broadcast to every enabled tier; callers with efficiency
// concerns about that fan-out (see design notes) may install a narrower
// policy.
type PublishPolicy func(cmd *Command, enabled []Tier) []Tier

// FanOutAll is the default PublishPolicy: every enabled tier receives
// every outbound command.
func FanOutAll(_ *Command, enabled []Tier) []Tier { return enabled }

// Bridge is the ingress/egress endpoint wiring a task board to its
// messaging fabric.
type Bridge struct {
	broker   *Broker
	tiers    []Tier
	cond     ConditionEvaluator
	sync     *SyncTable
	resolver PendingResolver
	enqueuer LocalEnqueuer
	publish  PublishPolicy
	log      zerolog.Logger
}

// Config bundles the collaborators a Bridge needs.
type Config struct {
	Broker     *Broker
	Tiers      []Tier
	Cond       ConditionEvaluator
	Resolver   PendingResolver
	Enqueuer   LocalEnqueuer
	Publish    PublishPolicy
	Log        zerolog.Logger
}

// New constructs a Bridge from cfg, defaulting Cond to AlwaysTrue and
// Publish to FanOutAll when unset.
func New(cfg Config) *Bridge {
	if cfg.Cond == nil {
		cfg.Cond = AlwaysTrue{}
	}
	if cfg.Publish == nil {
		cfg.Publish = FanOutAll
	}
	return &Bridge{
		broker:   cfg.Broker,
		tiers:    cfg.Tiers,
		cond:     cfg.Cond,
		sync:     NewSyncTable(),
		resolver: cfg.Resolver,
		enqueuer: cfg.Enqueuer,
		publish:  cfg.Publish,
		log:      cfg.Log,
	}
}

// Run subscribes to every consumed topic and processes inbound commands
// until ctx is cancelled. It is meant to run on the board's single
// dedicated bridge-ingress goroutine.
func (b *Bridge) Run(ctx context.Context) {
	requests, _ := b.broker.SubscribeReplies(ctx, TopicMachRequest)
	go b.consumeRequests(ctx, requests)

	for _, tier := range b.tiers {
		replies, _ := b.broker.SubscribeReplies(ctx, fmt.Sprintf("%s/%s", TopicLevelReply, tier))
		go b.consumeReplies(ctx, tier, replies)
	}

	// admin/announce/all is consumed and ignored: subscribe so the
	// channel doesn't dead-letter on the fabric side, but drop everything
	// that arrives on it.
	announce, _ := b.broker.SubscribeReplies(ctx, TopicAnnounce)
	go func() {
		for range announce {
		}
	}()

	<-ctx.Done()
}

func (b *Bridge) consumeRequests(ctx context.Context, ch <-chan *Command) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-ch:
			if !ok {
				return
			}
			b.handleRequest(cmd)
		}
	}
}

func (b *Bridge) consumeReplies(ctx context.Context, tier Tier, ch <-chan *Command) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-ch:
			if !ok {
				return
			}
			b.handleReply(tier, cmd)
		}
	}
}

// handleRequest dispatches an inbound execution request (REXEC-ASY,
// REXEC-SYN, REXEC-ASY-CBK), the device-only half of the dispatch table.
func (b *Bridge) handleRequest(cmd *Command) {
	switch cmd.Cmd {
	case CmdRexecAsy:
		b.handleAsy(cmd)
	case CmdRexecSyn:
		b.handleSyn(cmd)
	case CmdRexecAsyCbk:
		b.handleAsyCbk(cmd)
	default:
		b.log.Warn().Str("cmd", string(cmd.Cmd)).Msg("bridge: unknown request command, dropping")
	}
}

func (b *Bridge) checkArgs(cmd *Command) bool {
	return cmd.ActName != ""
}

func (b *Bridge) handleAsy(cmd *Command) {
	if !b.checkArgs(cmd) {
		b.SendError(cmd, "ARGUMENT ERROR")
		return
	}
	ok, _ := b.cond.Evaluate(cmd)
	if !ok {
		b.SendNak(cmd, "CONDITION FALSE")
		return
	}
	b.enqueueFromCommand(cmd)
}

func (b *Bridge) handleSyn(cmd *Command) {
	if !b.checkArgs(cmd) {
		b.SendError(cmd, "ARGUMENT ERROR")
		return
	}
	ok, quorum := b.cond.Evaluate(cmd)
	if !ok {
		b.SendNak(cmd, "CONDITION FALSE")
		return
	}
	if quorum > 1 {
		count := b.sync.Insert(cmd.ActArg)
		if count < quorum {
			return
		}
		b.sync.Clear(cmd.ActArg)
	}
	b.enqueueFromCommand(cmd)
}

func (b *Bridge) handleAsyCbk(cmd *Command) {
	rt, found := b.resolver.ResolveByActArg(cmd.ActArg)
	if !found {
		b.log.Debug().Str("actarg", cmd.ActArg).Msg("bridge: REXEC-ASY-CBK for unknown actarg, dropping")
		return
	}
	ok, _ := b.cond.Evaluate(cmd)
	if !ok {
		return
	}
	_ = rt
	b.enqueueFromCommand(cmd)
}

func (b *Bridge) enqueueFromCommand(cmd *Command) {
	t := task.New(0, cmd.ActName, cmd.Payload, task.PrioritySecondary)
	if err := b.enqueuer.EnqueueRemote(t); err != nil {
		b.log.Error().Err(err).Str("actname", cmd.ActName).Msg("bridge: failed to enqueue request")
	}
}

// handleReply dispatches an inbound ACK/NAK/ERR/RES. Device handles all
// four; fog and cloud only ever originate ACK/NAK/ERR in the reference
// design, so a RES arriving from those tiers is logged and dropped
// rather than silently accepted.
func (b *Bridge) handleReply(tier Tier, cmd *Command) {
	switch cmd.Cmd {
	case CmdRexecAck:
		b.handleAck(cmd)
	case CmdRexecNak:
		b.handleNak(cmd)
	case CmdRexecErr:
		b.handleErr(cmd)
	case CmdRexecRes:
		if tier != TierDevice {
			b.log.Warn().Str("tier", tier.String()).Msg("bridge: unexpected RES from non-device tier, dropping")
			return
		}
		b.handleRes(cmd)
	default:
		b.log.Warn().Str("cmd", string(cmd.Cmd)).Msg("bridge: unknown reply command, dropping")
	}
}

func (b *Bridge) handleAck(cmd *Command) {
	if err := b.resolver.Ack(cmd.ActID); err != nil {
		b.log.Debug().Str("actid", cmd.ActID).Err(err).Msg("bridge: ack for unresolvable/terminal call")
	}
}

func (b *Bridge) handleNak(cmd *Command) {
	reason, _ := cmd.Payload.(string)
	if err := b.resolver.Nak(cmd.ActID, reason); err != nil {
		b.log.Debug().Str("actid", cmd.ActID).Err(err).Msg("bridge: nak for unresolvable/terminal call")
	}
}

func (b *Bridge) handleErr(cmd *Command) {
	reason, _ := cmd.Payload.(string)
	if err := b.resolver.Fail(cmd.ActID, reason); err != nil {
		b.log.Debug().Str("actid", cmd.ActID).Err(err).Msg("bridge: err for unresolvable/terminal call")
	}
}

func (b *Bridge) handleRes(cmd *Command) {
	if err := b.resolver.Complete(cmd.ActID, cmd.Payload); err != nil {
		b.log.Debug().Str("actid", cmd.ActID).Err(err).Msg("bridge: result for unresolvable/terminal call")
	}
}

// SendNak publishes a NAK reply carrying reason for the originating
// command; it does not touch the pending table. All reply helpers take the Bridge
// receiver uniformly, resolving the reference implementation's
// inconsistent first-argument-type call sites.
func (b *Bridge) SendNak(origin *Command, reason string) {
	b.reply(origin, CmdRexecNak, reason)
}

// SendError publishes an ERR reply carrying an argument/validation error.
func (b *Bridge) SendError(origin *Command, reason string) {
	b.reply(origin, CmdRexecErr, reason)
}

// SendResults publishes a RES reply carrying a successful result.
func (b *Bridge) SendResults(origin *Command, result any) {
	reply := &Command{Cmd: CmdRexecRes, ActID: origin.ActID, ActArg: origin.ActArg, ActName: origin.ActName, Payload: result}
	if err := b.broker.PublishReply(context.Background(), TopicMachReply, reply); err != nil {
		b.log.Error().Err(err).Msg("bridge: failed to publish result")
	}
}

func (b *Bridge) reply(origin *Command, cmd Cmd, reason string) {
	reply := &Command{Cmd: cmd, ActID: origin.ActID, ActArg: origin.ActArg, ActName: origin.ActName, Payload: reason}
	if err := b.broker.PublishReply(context.Background(), TopicMachReply, reply); err != nil {
		b.log.Error().Err(err).Msg("bridge: failed to publish reply")
	}
}

// Dispatch publishes an outbound command to every tier selected by the
// bridge's PublishPolicy, via each tier's request stream.
func (b *Bridge) Dispatch(ctx context.Context, cmd *Command) error {
	for _, tier := range b.publish(cmd, b.tiers) {
		if err := b.broker.PublishRequest(ctx, tier, TopicLevelReq, cmd); err != nil {
			return fmt.Errorf("bridge: publish to %s: %w", tier, err)
		}
	}
	return nil
}
