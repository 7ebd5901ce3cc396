// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking is the reward-accounting engine: users stake an underlying
// asset, accrue shares of linearly vesting reward streams, and carry a
// time-weighted voting power signal consumed by governance.
package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/fpmath"
	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/log"
	"github.com/levrprotocol/levr/params"
	"github.com/levrprotocol/levr/solidity"
	"github.com/levrprotocol/levr/staking/position"
	"github.com/levrprotocol/levr/staking/registry"
	"github.com/levrprotocol/levr/staking/stream"
	"github.com/levrprotocol/levr/state"
	"github.com/levrprotocol/levr/token"
)

var logger = log.WithContext("pkg", "staking")

// SetLogger overrides the package logger.
func SetLogger(l log.Logger) {
	logger = l
}

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrZeroAddress        = errors.New("zero address")
	ErrNotAdmin           = errors.New("caller is not the admin")
	ErrAlreadyInitialized = errors.New("engine is already initialized")
	ErrReentrantCall      = errors.New("operation already in flight")
	ErrUnknownToken       = errors.New("token is not resolvable")
	ErrDustFunding        = errors.New("funding amount below minimum for untracked token")
	ErrStreamActive       = errors.New("stream is not finished")
)

// Staking wires the stream, position and registry services into the engine's
// externally reachable operations. All mutating entry points are atomic:
// a failed operation leaves no partial effects behind.
type Staking struct {
	addr   levr.Address
	state  *state.State
	params *params.Params

	streams   *stream.Service
	positions *position.Service
	registry  *registry.Service

	underlying token.Token
	tokens     *token.Registry
	feeSources map[levr.Address]token.FeeSource

	sink EventSink

	inFlight bool
	events   []*Event
}

// Option customizes an engine instance.
type Option func(*Staking)

// WithEventSink routes events of completed operations to the given sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Staking) { s.sink = sink }
}

// WithFeeSource registers an external fee-collection contract to be pulled,
// best-effort, whenever rewards of the given token are accrued.
func WithFeeSource(tk levr.Address, src token.FeeSource) Option {
	return func(s *Staking) { s.feeSources[tk] = src }
}

// New creates an engine instance at addr over the given state. The
// underlying token is the staked asset; reward tokens are resolved through
// the token registry.
func New(addr levr.Address, st *state.State, underlying token.Token, tokens *token.Registry, opts ...Option) *Staking {
	sctx := solidity.NewContext(addr, st)

	s := &Staking{
		addr:   addr,
		state:  st,
		params: params.New(addr, st),

		streams:   stream.New(sctx),
		positions: position.New(sctx),
		registry:  registry.New(sctx),

		underlying: underlying,
		tokens:     tokens,
		feeSources: make(map[levr.Address]token.FeeSource),

		sink: noopSink{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Address returns the engine's ledger address, which also escrows the staked
// asset and all reward reserves.
func (s *Staking) Address() levr.Address {
	return s.addr
}

// Initialize sets the admin. It fails on an already initialized engine, so
// double-initialization cannot slip through.
func (s *Staking) Initialize(admin levr.Address) error {
	if admin.IsZero() {
		return ErrZeroAddress
	}
	existing, err := s.params.GetAddress(levr.KeyAdmin)
	if err != nil {
		return err
	}
	if !existing.IsZero() {
		return ErrAlreadyInitialized
	}
	s.params.SetAddress(levr.KeyAdmin, admin)
	return nil
}

//
// config, native defaults overridable via params
//

func (s *Staking) Admin() (levr.Address, error) {
	return s.params.GetAddress(levr.KeyAdmin)
}

func (s *Staking) streamWindow() (uint64, error) {
	v, err := s.params.GetOr(levr.KeyStreamWindow, new(big.Int).SetUint64(levr.DefaultStreamWindow))
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func (s *Staking) maxRewardTokens() (uint64, error) {
	v, err := s.params.GetOr(levr.KeyMaxRewardTokens, new(big.Int).SetUint64(levr.InitialMaxRewardTokens))
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func (s *Staking) minFunding() (*big.Int, error) {
	return s.params.GetOr(levr.KeyMinFunding, levr.InitialMinFunding)
}

//
// Getters - no state change
//

// TotalStaked returns the sum of all staked balances.
func (s *Staking) TotalStaked() (*big.Int, error) {
	return s.positions.TotalStaked()
}

// GetPosition returns the user's stake position.
func (s *Staking) GetPosition(user levr.Address) (*position.Position, error) {
	return s.positions.Get(user)
}

// GetStream returns the reward stream state of the given token.
func (s *Staking) GetStream(tk levr.Address) (*stream.Stream, error) {
	return s.streams.Get(tk)
}

// TrackedTokens lists the registered reward tokens in insertion order.
func (s *Staking) TrackedTokens() ([]levr.Address, error) {
	return s.registry.Tokens()
}

// IsWhitelisted reports whether the token sits in the whitelisted tier.
func (s *Staking) IsWhitelisted(tk levr.Address) (bool, error) {
	return s.registry.IsWhitelisted(tk)
}

// VotingPower returns the user's time-weighted voting power at time now, in
// token-days. Pure read, safe for governance to call at vote-cast time.
func (s *Staking) VotingPower(user levr.Address, now uint64) (*big.Int, error) {
	return s.positions.VotingPower(user, now)
}

// Claimable projects the amount of tk the user could claim at time now,
// without settling anything.
func (s *Staking) Claimable(user, tk levr.Address, now uint64) (*big.Int, error) {
	st, err := s.streams.Get(tk)
	if err != nil {
		return nil, err
	}
	totalStaked, err := s.positions.TotalStaked()
	if err != nil {
		return nil, err
	}
	acc, err := st.AccumulatedAt(totalStaked, now)
	if err != nil {
		return nil, err
	}
	pos, err := s.positions.Get(user)
	if err != nil {
		return nil, err
	}
	debt, err := s.positions.Debt(user, tk)
	if err != nil {
		return nil, err
	}
	pending, err := s.positions.Pending(user, tk)
	if err != nil {
		return nil, err
	}
	implied := fpmath.ScaleDown(new(big.Int).Mul(pos.Balance, acc))
	return implied.Sub(implied, debt).Add(implied, pending), nil
}

//
// operation plumbing
//

// exclusive guards a mutating entry point: one operation in flight at a
// time, full rollback on error, buffered events delivered only on success.
func (s *Staking) exclusive(fn func() error) error {
	if s.inFlight {
		return ErrReentrantCall
	}
	s.inFlight = true
	s.events = s.events[:0]
	defer func() { s.inFlight = false }()

	checkpoint := s.state.NewCheckpoint()
	if err := fn(); err != nil {
		s.state.RevertTo(checkpoint)
		return err
	}
	if len(s.events) > 0 {
		if err := s.sink.Append(s.events); err != nil {
			// the ledger is the source of truth; a lagging sink is not
			// worth aborting a completed operation for
			logger.Warn("failed to append events", "err", err)
		}
	}
	return nil
}

func (s *Staking) emit(ev *Event) {
	s.events = append(s.events, ev)
}

// settleAll settles every tracked stream against the current pool size.
// Returns the tracked tokens and the pool size it settled with.
func (s *Staking) settleAll(now uint64) ([]levr.Address, *big.Int, error) {
	totalStaked, err := s.positions.TotalStaked()
	if err != nil {
		return nil, nil, err
	}
	tokens, err := s.registry.Tokens()
	if err != nil {
		return nil, nil, err
	}
	for _, tk := range tokens {
		if _, err := s.streams.Settle(tk, totalStaked, now); err != nil {
			return nil, nil, err
		}
	}
	return tokens, totalStaked, nil
}

// refreshDebts preserves the user's accrued-but-unclaimed rewards across a
// balance change: the accrual against the old balance moves into pending,
// and debt is re-anchored to the new balance.
func (s *Staking) refreshDebts(user levr.Address, tokens []levr.Address, oldBalance, newBalance *big.Int, now uint64) error {
	for _, tk := range tokens {
		st, err := s.streams.Get(tk)
		if err != nil {
			return err
		}
		acc := st.AccumulatedPerShare
		debt, err := s.positions.Debt(user, tk)
		if err != nil {
			return err
		}
		accrued := fpmath.ScaleDown(new(big.Int).Mul(oldBalance, acc))
		accrued.Sub(accrued, debt)
		if accrued.Sign() > 0 {
			if err := s.positions.AddPending(user, tk, accrued); err != nil {
				return err
			}
			s.emit(&Event{Kind: EventDebtUpdate, User: user, Token: tk, Amount: accrued, Time: now})
		}
		newDebt := fpmath.ScaleDown(new(big.Int).Mul(newBalance, acc))
		if err := s.positions.SetDebt(user, tk, newDebt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Staking) gaugeTotalStaked() {
	total, err := s.positions.TotalStaked()
	if err != nil {
		return
	}
	metricTotalStakedGauge().Set(fpmath.ScaleDown(total).Int64())
}
