// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/fpmath"
	"github.com/levrprotocol/levr/levr"
)

type payout struct {
	token  levr.Address
	amount *big.Int
}

// Claim settles and pays out the user's claimable amount of each listed
// token to the recipient. A reserve shortfall never reverts: the user gets
// min(claimable, reserve) and the remainder is recorded as pending, durable
// until the reserve is replenished.
func (s *Staking) Claim(user levr.Address, tokens []levr.Address, to levr.Address, now uint64) error {
	if user.IsZero() || to.IsZero() {
		return ErrZeroAddress
	}
	if len(tokens) == 0 {
		return ErrInvalidAmount
	}
	logger.Debug("claim", "user", user, "tokens", len(tokens), "to", to)

	return s.exclusive(func() error {
		totalStaked, err := s.positions.TotalStaked()
		if err != nil {
			return err
		}
		pos, err := s.positions.Get(user)
		if err != nil {
			return err
		}

		payouts := make([]payout, 0, len(tokens))
		for _, tk := range tokens {
			st, err := s.streams.Settle(tk, totalStaked, now)
			if err != nil {
				return err
			}

			implied := fpmath.ScaleDown(new(big.Int).Mul(pos.Balance, st.AccumulatedPerShare))
			debt, err := s.positions.Debt(user, tk)
			if err != nil {
				return err
			}
			pending, err := s.positions.Pending(user, tk)
			if err != nil {
				return err
			}
			claimable := new(big.Int).Sub(implied, debt)
			claimable.Add(claimable, pending)

			pay := fpmath.Min(claimable, st.Reserve)
			if pay.Sign() > 0 {
				if err := s.streams.PayOut(tk, pay); err != nil {
					return err
				}
			}
			shortfall := new(big.Int).Sub(claimable, pay)
			if err := s.positions.SetPending(user, tk, shortfall); err != nil {
				return err
			}
			// debt advances to the full implied value either way, the
			// shortfall is tracked via pending alone
			if err := s.positions.SetDebt(user, tk, implied); err != nil {
				return err
			}

			if shortfall.Sign() > 0 {
				s.emit(&Event{Kind: EventShortfall, User: user, Token: tk, Amount: shortfall, Time: now})
				metricShortfallCount().Add(1)
				logger.Info("claim shortfall", "user", user, "token", tk, "shortfall", shortfall)
			}
			if pay.Sign() > 0 {
				payouts = append(payouts, payout{token: tk, amount: pay})
			}
		}

		// all bookkeeping is final before the first external transfer
		for _, p := range payouts {
			asset, ok := s.tokens.Resolve(p.token)
			if !ok {
				return ErrUnknownToken
			}
			if err := asset.Transfer(s.addr, to, p.amount); err != nil {
				return errors.Wrap(err, "failed to pay out claim")
			}
			s.emit(&Event{Kind: EventClaim, User: user, Token: p.token, Recipient: to, Amount: p.amount, Time: now})
		}
		metricClaimCount().Add(1)
		return nil
	})
}

// AccrueRewards detects any balance of tk held by the engine beyond its
// reserve and escrow, and streams it. Permissionless and safe to call
// speculatively; calling it twice without new funding is a no-op the second
// time.
func (s *Staking) AccrueRewards(tk levr.Address, now uint64) error {
	if tk.IsZero() {
		return ErrZeroAddress
	}
	logger.Debug("accrue rewards", "token", tk)

	return s.exclusive(func() error {
		asset, ok := s.tokens.Resolve(tk)
		if !ok {
			return ErrUnknownToken
		}

		// opportunistic external fee pull, never on the critical path
		if src, ok := s.feeSources[tk]; ok {
			if err := src.Claim(tk); err != nil {
				logger.Warn("fee source claim failed", "token", tk, "err", err)
			}
		}

		balance, err := asset.BalanceOf(s.addr)
		if err != nil {
			return errors.Wrap(err, "failed to query balance")
		}
		st, err := s.streams.Get(tk)
		if err != nil {
			return err
		}
		totalStaked, err := s.positions.TotalStaked()
		if err != nil {
			return err
		}

		// the staked escrow of the underlying asset is not reward funding
		fresh := new(big.Int).Sub(balance, st.Reserve)
		if tk == s.underlying.Address() {
			fresh.Sub(fresh, totalStaked)
		}
		if fresh.Sign() <= 0 {
			return nil
		}

		tracked, err := s.registry.IsTracked(tk)
		if err != nil {
			return err
		}
		if !tracked {
			minFunding, err := s.minFunding()
			if err != nil {
				return err
			}
			if fresh.Cmp(minFunding) < 0 {
				return ErrDustFunding
			}
			maxTokens, err := s.maxRewardTokens()
			if err != nil {
				return err
			}
			if err := s.registry.Track(tk, false, maxTokens); err != nil {
				return err
			}
		}

		window, err := s.streamWindow()
		if err != nil {
			return err
		}
		if _, err := s.streams.Credit(tk, fresh, totalStaked, now, window); err != nil {
			return err
		}

		s.emit(&Event{Kind: EventCredit, Token: tk, Amount: fresh, Time: now})
		metricCreditCount().AddWithLabel(1, map[string]string{"token": tk.String()})
		logger.Info("rewards credited", "token", tk, "amount", fresh)
		return nil
	})
}

// WhitelistToken places the token in the tier exempt from the registry
// bound. Admin only.
func (s *Staking) WhitelistToken(caller, tk levr.Address, now uint64) error {
	if tk.IsZero() {
		return ErrZeroAddress
	}
	admin, err := s.Admin()
	if err != nil {
		return err
	}
	if caller != admin || admin.IsZero() {
		return ErrNotAdmin
	}

	return s.exclusive(func() error {
		maxTokens, err := s.maxRewardTokens()
		if err != nil {
			return err
		}
		if err := s.registry.Track(tk, true, maxTokens); err != nil {
			return err
		}
		s.emit(&Event{Kind: EventWhitelist, User: caller, Token: tk, Time: now})
		logger.Info("token whitelisted", "token", tk)
		return nil
	})
}

// CleanupFinishedRewardToken frees the registry slot of a token whose
// stream has fully vested and whose reserve is empty. Permissionless.
func (s *Staking) CleanupFinishedRewardToken(tk levr.Address, now uint64) error {
	if tk.IsZero() {
		return ErrZeroAddress
	}
	logger.Debug("cleanup reward token", "token", tk)

	return s.exclusive(func() error {
		tracked, err := s.registry.IsTracked(tk)
		if err != nil {
			return err
		}
		if !tracked {
			return ErrUnknownToken
		}
		totalStaked, err := s.positions.TotalStaked()
		if err != nil {
			return err
		}
		// settle first: a stream whose window elapsed without any other
		// operation touching it still reads as unvested at its frozen
		// settle point
		st, err := s.streams.Settle(tk, totalStaked, now)
		if err != nil {
			return err
		}
		if !st.Finished(now) {
			return ErrStreamActive
		}
		if err := s.registry.Remove(tk); err != nil {
			return err
		}
		s.streams.Delete(tk)

		s.emit(&Event{Kind: EventCleanup, Token: tk, Time: now})
		metricCleanupCount().Add(1)
		logger.Info("reward token cleaned up", "token", tk)
		return nil
	})
}
