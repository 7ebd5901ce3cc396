// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrprotocol/levr/kv"
	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/state"
	"github.com/levrprotocol/levr/token"
)

const day = levr.SecondsPerDay

var (
	engineAddr = levr.BytesToAddress([]byte("staking-engine"))
	adminAddr  = levr.BytesToAddress([]byte("admin"))
	alice      = levr.BytesToAddress([]byte("alice"))
	bob        = levr.BytesToAddress([]byte("bob"))
	stakeAddr  = levr.BytesToAddress([]byte("stake-token"))
	rewardAddr = levr.BytesToAddress([]byte("reward-token"))
)

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), levr.RewardScale)
}

// memorySink collects delivered events for assertions.
type memorySink struct {
	events []*Event
}

func (m *memorySink) Append(events []*Event) error {
	m.events = append(m.events, events...)
	return nil
}

func (m *memorySink) ofKind(kind string) []*Event {
	var out []*Event
	for _, ev := range m.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	t      *testing.T
	state  *state.State
	engine *Staking
	stake  *token.Ledger
	reward *token.Ledger
	sink   *memorySink
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	db, err := kv.NewMem()
	require.NoError(t, err)
	st := state.New(db)

	stakeToken := token.NewLedger(stakeAddr, st)
	rewardToken := token.NewLedger(rewardAddr, st)
	sink := &memorySink{}

	opts = append([]Option{WithEventSink(sink)}, opts...)
	engine := New(engineAddr, st, stakeToken, token.NewRegistry(stakeToken, rewardToken), opts...)
	require.NoError(t, engine.Initialize(adminAddr))

	return &testEnv{
		t:      t,
		state:  st,
		engine: engine,
		stake:  stakeToken,
		reward: rewardToken,
		sink:   sink,
	}
}

func (env *testEnv) mintStake(user levr.Address, amount *big.Int) {
	require.NoError(env.t, env.stake.Mint(user, amount))
}

// fundReward simulates an external reward transfer into the engine and
// triggers detection.
func (env *testEnv) fundReward(amount *big.Int, now uint64) {
	require.NoError(env.t, env.reward.Mint(engineAddr, amount))
	require.NoError(env.t, env.engine.AccrueRewards(rewardAddr, now))
}

func TestStakeUnstake(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(1000))

	require.NoError(t, env.engine.Stake(alice, units(1000), 0))

	total, err := env.engine.TotalStaked()
	require.NoError(t, err)
	assert.Equal(t, units(1000), total)

	// the stake is escrowed at the engine address
	escrow, err := env.stake.BalanceOf(engineAddr)
	require.NoError(t, err)
	assert.Equal(t, units(1000), escrow)

	require.NoError(t, env.engine.Unstake(alice, units(400), alice, day))
	total, err = env.engine.TotalStaked()
	require.NoError(t, err)
	assert.Equal(t, units(600), total)

	balance, err := env.stake.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, units(400), balance)

	assert.Len(t, env.sink.ofKind(EventStake), 1)
	assert.Len(t, env.sink.ofKind(EventUnstake), 1)
}

func TestStakeValidation(t *testing.T) {
	env := newTestEnv(t)

	assert.ErrorIs(t, env.engine.Stake(levr.Address{}, units(1), 0), ErrZeroAddress)
	assert.ErrorIs(t, env.engine.Stake(alice, new(big.Int), 0), ErrInvalidAmount)
	assert.ErrorIs(t, env.engine.Stake(alice, big.NewInt(-1), 0), ErrInvalidAmount)
	assert.ErrorIs(t, env.engine.Unstake(alice, units(1), levr.Address{}, 0), ErrZeroAddress)
}

func TestFailedStakeLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	// alice owns nothing, the escrow transfer must fail
	err := env.engine.Stake(alice, units(5), 0)
	require.Error(t, err)

	total, err := env.engine.TotalStaked()
	require.NoError(t, err)
	assert.Zero(t, total.Sign())

	pos, err := env.engine.GetPosition(alice)
	require.NoError(t, err)
	assert.True(t, pos.IsEmpty())
	assert.Empty(t, env.sink.events)
}

func TestDoubleInitialize(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.engine.Initialize(adminAddr), ErrAlreadyInitialized)
}

func TestClaimFullFlow(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(100))

	require.NoError(t, env.engine.Stake(alice, units(100), 0))
	env.fundReward(units(900), 0)

	// mid-window the claim pays the vested share only
	claimable, err := env.engine.Claimable(alice, rewardAddr, day)
	require.NoError(t, err)
	assert.Equal(t, units(300), claimable)

	require.NoError(t, env.engine.Claim(alice, []levr.Address{rewardAddr}, alice, day))
	got, err := env.reward.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, units(300), got)

	// double claim yields nothing new
	require.NoError(t, env.engine.Claim(alice, []levr.Address{rewardAddr}, alice, day))
	got, err = env.reward.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, units(300), got)

	// after the window the remainder is claimable
	require.NoError(t, env.engine.Claim(alice, []levr.Address{rewardAddr}, alice, 3*day))
	got, err = env.reward.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, units(900), got)

	st, err := env.engine.GetStream(rewardAddr)
	require.NoError(t, err)
	assert.Zero(t, st.Reserve.Sign())
}

func TestClaimProportionalSplit(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(75))
	env.mintStake(bob, units(25))

	require.NoError(t, env.engine.Stake(alice, units(75), 0))
	require.NoError(t, env.engine.Stake(bob, units(25), 0))
	env.fundReward(units(400), 0)

	require.NoError(t, env.engine.Claim(alice, []levr.Address{rewardAddr}, alice, 3*day))
	require.NoError(t, env.engine.Claim(bob, []levr.Address{rewardAddr}, bob, 3*day))

	aliceGot, err := env.reward.BalanceOf(alice)
	require.NoError(t, err)
	bobGot, err := env.reward.BalanceOf(bob)
	require.NoError(t, err)
	assert.Equal(t, units(300), aliceGot)
	assert.Equal(t, units(100), bobGot)
}

// Late stakers must not earn rewards vested before they arrived.
func TestLateStakerEarnsNothing(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(100))
	env.mintStake(bob, units(100))

	require.NoError(t, env.engine.Stake(alice, units(100), 0))
	env.fundReward(units(300), 0)

	// bob joins after the full window vested
	require.NoError(t, env.engine.Stake(bob, units(100), 3*day))

	claimable, err := env.engine.Claimable(bob, rewardAddr, 3*day)
	require.NoError(t, err)
	assert.Zero(t, claimable.Sign())

	claimable, err = env.engine.Claimable(alice, rewardAddr, 3*day)
	require.NoError(t, err)
	assert.Equal(t, units(300), claimable)
}

// Scenario: 1000 streaming over 3 days, the sole staker leaves at day one,
// a new staker arrives half a day later. Vesting pauses at the unstake, so
// 667 units fold into the restarted stream rather than 500.
func TestPauseFoldsUnvestedRemainder(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(1000))
	env.mintStake(bob, units(500))

	require.NoError(t, env.engine.Stake(alice, units(1000), 0))
	env.fundReward(units(1000), 0)

	require.NoError(t, env.engine.Unstake(alice, units(1000), alice, day))
	total, err := env.engine.TotalStaked()
	require.NoError(t, err)
	assert.Zero(t, total.Sign())

	require.NoError(t, env.engine.Stake(bob, units(500), day+day/2))

	st, err := env.engine.GetStream(rewardAddr)
	require.NoError(t, err)
	twoThirds := new(big.Int).Sub(units(1000), new(big.Int).Div(units(1000), big.NewInt(3)))
	assert.Equal(t, twoThirds, st.StreamTotal)
	assert.Equal(t, day+day/2, st.StreamStart)
	assert.Equal(t, day+day/2+3*day, st.StreamEnd)

	// alice keeps her vested third claimable, down to the per-share
	// truncation, bob gets no instant credit
	third := new(big.Int).Div(units(1000), big.NewInt(3))
	perShare := new(big.Int).Div(new(big.Int).Mul(third, levr.RewardScale), units(1000))
	expected := new(big.Int).Div(new(big.Int).Mul(units(1000), perShare), levr.RewardScale)
	claimable, err := env.engine.Claimable(alice, rewardAddr, day+day/2)
	require.NoError(t, err)
	assert.Equal(t, expected, claimable)

	claimable, err = env.engine.Claimable(bob, rewardAddr, day+day/2)
	require.NoError(t, err)
	assert.Zero(t, claimable.Sign())
}

// Scenario: funding 3000 over 3 days, then 2000 more at the 1-day mark,
// folds the 2000 unvested remainder into a fresh 4000 window.
func TestRefundFoldsRemainder(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(10))
	require.NoError(t, env.engine.Stake(alice, units(10), 0))

	env.fundReward(units(3000), 0)
	env.fundReward(units(2000), day)

	st, err := env.engine.GetStream(rewardAddr)
	require.NoError(t, err)
	assert.Equal(t, units(4000), st.StreamTotal)
	assert.Equal(t, uint64(day), st.StreamStart)
	assert.Equal(t, uint64(4*day), st.StreamEnd)
	assert.Equal(t, units(5000), st.Reserve)
}

// Scenario: stake 1000, hold 100 days, unstake 30%.
func TestVotingPowerAfterPartialUnstake(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(1000))
	require.NoError(t, env.engine.Stake(alice, units(1000), 0))

	vp, err := env.engine.VotingPower(alice, 100*day)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100_000), vp)

	require.NoError(t, env.engine.Unstake(alice, units(300), alice, 100*day))
	vp, err = env.engine.VotingPower(alice, 100*day)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(49_000), vp)
}

// Scenario: same-instant stake then vote reads exactly zero.
func TestSameInstantVotingPowerIsZero(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(1000))
	now := uint64(42 * day)
	require.NoError(t, env.engine.Stake(alice, units(1000), now))

	vp, err := env.engine.VotingPower(alice, now)
	require.NoError(t, err)
	assert.Zero(t, vp.Sign())
}

func TestTransferMovesTenureAndRewards(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(100))
	require.NoError(t, env.engine.Stake(alice, units(100), 0))
	env.fundReward(units(300), 0)

	// half the balance moves to bob after the full window vested
	require.NoError(t, env.engine.Transfer(alice, bob, units(50), 3*day))

	total, err := env.engine.TotalStaked()
	require.NoError(t, err)
	assert.Equal(t, units(100), total)

	// rewards accrued before the transfer stay with alice
	claimable, err := env.engine.Claimable(alice, rewardAddr, 3*day)
	require.NoError(t, err)
	assert.Equal(t, units(300), claimable)

	claimable, err = env.engine.Claimable(bob, rewardAddr, 3*day)
	require.NoError(t, err)
	assert.Zero(t, claimable.Sign())

	// the sender keeps half the tenure, the receiver starts from zero
	vp, err := env.engine.VotingPower(alice, 3*day)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(75), vp)
	vp, err = env.engine.VotingPower(bob, 3*day)
	require.NoError(t, err)
	assert.Zero(t, vp.Sign())
	vp, err = env.engine.VotingPower(bob, 4*day+day/2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(75), vp)
}

// Scenario: a claim of 0.0536 against a reserve of 0.0454 pays exactly
// 0.0454 and records 0.0082 pending, without reverting.
func TestClaimShortfallRecordsPending(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(1))
	require.NoError(t, env.engine.Stake(alice, units(1), 0))

	centi := big.NewInt(1e14) // 0.0001 of a unit

	// a reserve of 0.0454, fully vested by claim time
	env.fundReward(new(big.Int).Mul(big.NewInt(454), centi), 0)

	// 0.0082 owed on top of the stream, e.g. left over from an earlier
	// under-reservation, bringing the total claim to 0.0536
	require.NoError(t, env.engine.positions.SetPending(alice, rewardAddr, new(big.Int).Mul(big.NewInt(82), centi)))

	require.NoError(t, env.engine.Claim(alice, []levr.Address{rewardAddr}, alice, 3*day))

	// exactly the reserve is paid, the remainder stays a durable promise
	got, err := env.reward.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(454), centi), got)

	pending, err := env.engine.positions.Pending(alice, rewardAddr)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(82), centi), pending)

	require.Len(t, env.sink.ofKind(EventShortfall), 1)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(82), centi), env.sink.ofKind(EventShortfall)[0].Amount)
}

func TestAccrueRewardsIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(10))
	require.NoError(t, env.engine.Stake(alice, units(10), 0))
	env.fundReward(units(100), 0)

	before, err := env.engine.GetStream(rewardAddr)
	require.NoError(t, err)

	// no new funding arrived, the second call must not double-credit
	require.NoError(t, env.engine.AccrueRewards(rewardAddr, day))
	after, err := env.engine.GetStream(rewardAddr)
	require.NoError(t, err)

	assert.Equal(t, before.Reserve, after.Reserve)
	assert.Equal(t, before.StreamTotal, after.StreamTotal)
	assert.Equal(t, before.StreamStart, after.StreamStart)
	assert.Len(t, env.sink.ofKind(EventCredit), 1)
}

func TestAccrueRewardsExcludesStakeEscrow(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(10))
	require.NoError(t, env.engine.Stake(alice, units(10), 0))

	// the escrowed stake itself is not reward funding
	require.NoError(t, env.engine.AccrueRewards(stakeAddr, 0))
	st, err := env.engine.GetStream(stakeAddr)
	require.NoError(t, err)
	assert.Zero(t, st.Reserve.Sign())

	// extra underlying beyond the escrow is
	require.NoError(t, env.stake.Mint(engineAddr, units(5)))
	require.NoError(t, env.engine.AccrueRewards(stakeAddr, 0))
	st, err = env.engine.GetStream(stakeAddr)
	require.NoError(t, err)
	assert.Equal(t, units(5), st.Reserve)
}

func TestAccrueRewardsDustGuard(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(1))
	require.NoError(t, env.engine.Stake(alice, units(1), 0))

	require.NoError(t, env.reward.Mint(engineAddr, big.NewInt(10)))
	assert.ErrorIs(t, env.engine.AccrueRewards(rewardAddr, 0), ErrDustFunding)

	// the dust guard only applies to untracked tokens
	require.NoError(t, env.reward.Mint(engineAddr, units(1)))
	require.NoError(t, env.engine.AccrueRewards(rewardAddr, 0))
	require.NoError(t, env.reward.Mint(engineAddr, big.NewInt(10)))
	require.NoError(t, env.engine.AccrueRewards(rewardAddr, day))
}

func TestWhitelistAuthorization(t *testing.T) {
	env := newTestEnv(t)

	assert.ErrorIs(t, env.engine.WhitelistToken(alice, rewardAddr, 0), ErrNotAdmin)
	require.NoError(t, env.engine.WhitelistToken(adminAddr, rewardAddr, 0))

	wl, err := env.engine.IsWhitelisted(rewardAddr)
	require.NoError(t, err)
	assert.True(t, wl)
	assert.Len(t, env.sink.ofKind(EventWhitelist), 1)
}

func TestCleanupFinishedRewardToken(t *testing.T) {
	env := newTestEnv(t)
	env.mintStake(alice, units(10))
	require.NoError(t, env.engine.Stake(alice, units(10), 0))
	env.fundReward(units(100), 0)

	// active stream cannot be cleaned up
	assert.ErrorIs(t, env.engine.CleanupFinishedRewardToken(rewardAddr, day), ErrStreamActive)

	// drained and elapsed, the slot frees up
	require.NoError(t, env.engine.Claim(alice, []levr.Address{rewardAddr}, alice, 3*day))
	require.NoError(t, env.engine.CleanupFinishedRewardToken(rewardAddr, 3*day))

	tokens, err := env.engine.TrackedTokens()
	require.NoError(t, err)
	assert.Empty(t, tokens)
	assert.ErrorIs(t, env.engine.CleanupFinishedRewardToken(rewardAddr, 3*day), ErrUnknownToken)
}

// reentrantToken calls back into the engine from its transfer hook.
type reentrantToken struct {
	addr   levr.Address
	engine *Staking
	inner  error
}

func (r *reentrantToken) Address() levr.Address { return r.addr }

func (r *reentrantToken) BalanceOf(levr.Address) (*big.Int, error) {
	return new(big.Int), nil
}

func (r *reentrantToken) Transfer(_, to levr.Address, amount *big.Int) error {
	r.inner = r.engine.Unstake(to, amount, to, 0)
	return r.inner
}

func TestReentrancyGuard(t *testing.T) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	st := state.New(db)

	malicious := &reentrantToken{addr: stakeAddr}
	engine := New(engineAddr, st, malicious, token.NewRegistry(malicious))
	malicious.engine = engine

	err = engine.Stake(alice, units(1), 0)
	require.Error(t, err)
	assert.ErrorIs(t, malicious.inner, ErrReentrantCall)

	// the aborted stake left nothing behind
	total, err := engine.TotalStaked()
	require.NoError(t, err)
	assert.Zero(t, total.Sign())
}

// mintingFeeSource mints into the engine when claimed, standing in for an
// external fee-collection contract.
type mintingFeeSource struct {
	ledger *token.Ledger
	amount *big.Int
	calls  int
}

func (m *mintingFeeSource) Claim(levr.Address) error {
	m.calls++
	return m.ledger.Mint(engineAddr, m.amount)
}

func TestAccrualPullsFeeSource(t *testing.T) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	st := state.New(db)

	stakeToken := token.NewLedger(stakeAddr, st)
	rewardToken := token.NewLedger(rewardAddr, st)
	src := &mintingFeeSource{ledger: rewardToken, amount: units(300)}

	engine := New(
		engineAddr, st, stakeToken,
		token.NewRegistry(stakeToken, rewardToken),
		WithFeeSource(rewardAddr, src),
	)
	require.NoError(t, engine.Initialize(adminAddr))

	require.NoError(t, stakeToken.Mint(alice, units(100)))
	require.NoError(t, engine.Stake(alice, units(100), 0))

	// accrual pulls the source first, so its output funds the stream
	require.NoError(t, engine.AccrueRewards(rewardAddr, 0))
	assert.Equal(t, 1, src.calls)

	stream, err := engine.GetStream(rewardAddr)
	require.NoError(t, err)
	assert.Equal(t, units(300), stream.Reserve)
}
