// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrprotocol/levr/levr"
)

// TestOperationSequenceInvariants drives the engine through randomized
// stake/unstake/transfer/fund/claim sequences and checks the accounting
// invariants after every step.
func TestOperationSequenceInvariants(t *testing.T) {
	env := newTestEnv(t)
	users := []levr.Address{alice, bob, levr.BytesToAddress([]byte("carol"))}
	for _, u := range users {
		env.mintStake(u, units(1_000_000))
	}

	fuzzer := fuzz.NewWithSeed(42)
	now := uint64(0)
	lastAcc := new(big.Int)

	for range 400 {
		var choice struct {
			Op      uint8
			User    uint8
			Other   uint8
			Amount  uint16
			Advance uint16
		}
		fuzzer.Fuzz(&choice)

		now += uint64(choice.Advance) % day
		user := users[int(choice.User)%len(users)]
		other := users[int(choice.Other)%len(users)]
		amount := units(int64(choice.Amount%5000) + 1)

		// failures (insufficient balance, dust, reentrancy) are fine, the
		// invariants must hold either way
		switch choice.Op % 5 {
		case 0:
			_ = env.engine.Stake(user, amount, now)
		case 1:
			_ = env.engine.Unstake(user, amount, user, now)
		case 2:
			if user != other {
				_ = env.engine.Transfer(user, other, amount, now)
			}
		case 3:
			require.NoError(t, env.reward.Mint(engineAddr, amount))
			_ = env.engine.AccrueRewards(rewardAddr, now)
		case 4:
			_ = env.engine.Claim(user, []levr.Address{rewardAddr}, user, now)
		}

		// sum of balances tracks totalStaked exactly
		total, err := env.engine.TotalStaked()
		require.NoError(t, err)
		sum := new(big.Int)
		for _, u := range users {
			pos, err := env.engine.GetPosition(u)
			require.NoError(t, err)
			sum.Add(sum, pos.Balance)
		}
		require.Zero(t, total.Cmp(sum))

		// the escrowed underlying matches the pool
		escrow, err := env.stake.BalanceOf(engineAddr)
		require.NoError(t, err)
		require.Zero(t, total.Cmp(escrow))

		st, err := env.engine.GetStream(rewardAddr)
		require.NoError(t, err)

		// accumulated-per-share never decreases
		require.True(t, st.AccumulatedPerShare.Cmp(lastAcc) >= 0)
		lastAcc = new(big.Int).Set(st.AccumulatedPerShare)

		// the reserve never goes negative and never exceeds the engine's
		// actual holdings
		require.True(t, st.Reserve.Sign() >= 0)
		held, err := env.reward.BalanceOf(engineAddr)
		require.NoError(t, err)
		require.True(t, st.Reserve.Cmp(held) <= 0)
	}

	// every user can exit completely
	for _, u := range users {
		pos, err := env.engine.GetPosition(u)
		require.NoError(t, err)
		if pos.Balance.Sign() > 0 {
			require.NoError(t, env.engine.Unstake(u, pos.Balance, u, now))
		}
	}
	total, err := env.engine.TotalStaked()
	require.NoError(t, err)
	assert.Zero(t, total.Sign())
}
