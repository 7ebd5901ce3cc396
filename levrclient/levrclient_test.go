// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package levrclient

import (
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrprotocol/levr/api"
	"github.com/levrprotocol/levr/api/subscriptions"
	"github.com/levrprotocol/levr/eventdb"
	"github.com/levrprotocol/levr/kv"
	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/levrclient/common"
	"github.com/levrprotocol/levr/staking"
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

type testNode struct {
	server *httptest.Server
	stake  *token.Ledger
	reward *token.Ledger
}

func newTestNode(t *testing.T) *testNode {
	db, err := kv.NewMem()
	require.NoError(t, err)
	st := state.New(db)

	stakeToken := token.NewLedger(stakeAddr, st)
	rewardToken := token.NewLedger(rewardAddr, st)

	eventDB, err := eventdb.NewMem()
	require.NoError(t, err)
	broadcaster := subscriptions.NewBroadcaster(eventDB)

	engine := staking.New(
		engineAddr, st, stakeToken,
		token.NewRegistry(stakeToken, rewardToken),
		staking.WithEventSink(broadcaster),
	)
	require.NoError(t, engine.Initialize(adminAddr))

	handler, closeAPI := api.New(engine, eventDB, broadcaster, nil, api.Options{
		AllowedOrigins: "*",
		EventsLimit:    100,
		SoloMode:       true,
	})
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		closeAPI()
		eventDB.Close()
	})

	return &testNode{
		server: server,
		stake:  stakeToken,
		reward: rewardToken,
	}
}

func TestClientStakeLifecycle(t *testing.T) {
	node := newTestNode(t)
	client := New(node.server.URL)

	require.NoError(t, node.stake.Mint(alice, units(1000)))
	require.NoError(t, client.Deposit(&alice, units(1000), At(0)))

	total, err := client.TotalStaked()
	require.NoError(t, err)
	assert.Equal(t, units(1000), (*big.Int)(&total.TotalStaked))

	stake, err := client.Stake(&alice, At(100*day))
	require.NoError(t, err)
	assert.Equal(t, units(1000), (*big.Int)(&stake.Balance))
	assert.Equal(t, big.NewInt(100_000), (*big.Int)(&stake.VotingPower))

	require.NoError(t, client.Withdraw(&alice, units(400), nil, At(100*day)))

	total, err = client.TotalStaked()
	require.NoError(t, err)
	assert.Equal(t, units(600), (*big.Int)(&total.TotalStaked))
}

func TestClientRewardsAndEvents(t *testing.T) {
	node := newTestNode(t)
	client := New(node.server.URL)

	require.NoError(t, node.stake.Mint(alice, units(1000)))
	require.NoError(t, client.Deposit(&alice, units(1000), At(0)))

	require.NoError(t, node.reward.Mint(engineAddr, units(900)))
	rt, err := client.Accrue(&rewardAddr, At(0))
	require.NoError(t, err)
	assert.Equal(t, units(900), (*big.Int)(&rt.Reserve))

	tokens, err := client.RewardTokens()
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, rewardAddr, tokens[0].Token)

	claimAt := rt.StreamEnd
	claimable, err := client.Claimable(&alice, &rewardAddr, At(claimAt))
	require.NoError(t, err)
	assert.Equal(t, units(900), (*big.Int)(&claimable.Amount))

	require.NoError(t, client.Claim(&alice, nil, &bob, At(claimAt)))
	balance, err := node.reward.BalanceOf(bob)
	require.NoError(t, err)
	assert.Equal(t, units(900), balance)

	events, err := client.FilterEvents(&eventdb.Filter{
		Kinds: []string{staking.EventClaim},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, alice, events[0].User)

	// admin-only call fails for a regular user
	err = client.Whitelist(&alice, &rewardAddr, At(claimAt))
	assert.ErrorIs(t, err, common.ErrNot200Status)
}

func TestClientSubscribeEvents(t *testing.T) {
	node := newTestNode(t)
	client, err := NewWithWS(node.server.URL)
	require.NoError(t, err)

	ch, err := client.SubscribeEvents("kind=stake")
	require.NoError(t, err)

	require.NoError(t, node.stake.Mint(alice, units(5)))
	require.NoError(t, client.Deposit(&alice, units(5), At(0)))

	select {
	case wrapped := <-ch:
		require.NoError(t, wrapped.Error)
		assert.Equal(t, staking.EventStake, wrapped.Data.Kind)
		assert.Equal(t, alice, wrapped.Data.User)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestClientNotFound(t *testing.T) {
	node := newTestNode(t)
	client := New(node.server.URL)

	unknown := levr.BytesToAddress([]byte("unknown-token"))
	err := client.CleanupRewardToken(&unknown, At(0))
	assert.ErrorIs(t, err, common.ErrNotFound)
}
