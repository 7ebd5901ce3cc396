// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/levr"
)

// Stake escrows amount of the underlying asset for the user. Tenure blends
// by the weighted-average rule, so a fresh deposit carries zero voting power
// at the instant it lands.
func (s *Staking) Stake(user levr.Address, amount *big.Int, now uint64) error {
	if user.IsZero() {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	logger.Debug("stake", "user", user, "amount", amount)

	return s.exclusive(func() error {
		tokens, totalStaked, err := s.settleAll(now)
		if err != nil {
			return err
		}

		// the first staker of an empty pool restarts every paused stream
		// over a fresh window, with no instant credit
		if totalStaked.Sign() == 0 {
			window, err := s.streamWindow()
			if err != nil {
				return err
			}
			for _, tk := range tokens {
				if _, err := s.streams.Resume(tk, now, window); err != nil {
					return err
				}
			}
		}

		pos, err := s.positions.Get(user)
		if err != nil {
			return err
		}
		oldBalance := pos.Balance

		// pool size grows before any debt is computed for this user
		pos, err = s.positions.Add(user, amount, now)
		if err != nil {
			return err
		}
		if err := s.refreshDebts(user, tokens, oldBalance, pos.Balance, now); err != nil {
			return err
		}

		// interactions last
		if err := s.underlying.Transfer(user, s.addr, amount); err != nil {
			return errors.Wrap(err, "failed to escrow stake")
		}

		s.emit(&Event{Kind: EventStake, User: user, Token: s.underlying.Address(), Amount: amount, Time: now})
		metricStakeCount().Add(1)
		s.gaugeTotalStaked()
		return nil
	})
}

// Unstake releases amount of the underlying asset to the given recipient.
// Tenure scales down proportionally; accrued rewards stay claimable but are
// never claimed implicitly, so unstaking cannot be blocked by a broken
// reward token.
func (s *Staking) Unstake(user levr.Address, amount *big.Int, to levr.Address, now uint64) error {
	if user.IsZero() || to.IsZero() {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	logger.Debug("unstake", "user", user, "amount", amount, "to", to)

	return s.exclusive(func() error {
		tokens, _, err := s.settleAll(now)
		if err != nil {
			return err
		}

		pos, err := s.positions.Get(user)
		if err != nil {
			return err
		}
		oldBalance := pos.Balance

		pos, err = s.positions.Remove(user, amount, now)
		if err != nil {
			return err
		}
		if err := s.refreshDebts(user, tokens, oldBalance, pos.Balance, now); err != nil {
			return err
		}

		if err := s.underlying.Transfer(s.addr, to, amount); err != nil {
			return errors.Wrap(err, "failed to release stake")
		}

		s.emit(&Event{Kind: EventUnstake, User: user, Token: s.underlying.Address(), Recipient: to, Amount: amount, Time: now})
		metricUnstakeCount().Add(1)
		s.gaugeTotalStaked()
		return nil
	})
}

// Transfer is the claim-token transfer callback: amount of stake moved
// between holders outside the engine. The sender's tenure reduces as a
// partial unstake, the receiver's blends as a deposit, and reward accrual of
// both is cut over at the current accumulated-per-share.
func (s *Staking) Transfer(from, to levr.Address, amount *big.Int, now uint64) error {
	if from.IsZero() || to.IsZero() {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	logger.Debug("transfer", "from", from, "to", to, "amount", amount)

	return s.exclusive(func() error {
		tokens, _, err := s.settleAll(now)
		if err != nil {
			return err
		}

		fromPos, err := s.positions.Get(from)
		if err != nil {
			return err
		}
		toPos, err := s.positions.Get(to)
		if err != nil {
			return err
		}
		oldFrom, oldTo := fromPos.Balance, toPos.Balance

		fromPos, toPos, err = s.positions.Move(from, to, amount, now)
		if err != nil {
			return err
		}
		if err := s.refreshDebts(from, tokens, oldFrom, fromPos.Balance, now); err != nil {
			return err
		}
		if err := s.refreshDebts(to, tokens, oldTo, toPos.Balance, now); err != nil {
			return err
		}

		s.emit(&Event{Kind: EventTransfer, User: from, Token: s.underlying.Address(), Recipient: to, Amount: amount, Time: now})
		return nil
	})
}
