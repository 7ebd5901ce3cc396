// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/solidity"
)

var (
	slotPositions   = levr.BytesToBytes32([]byte("stake-positions"))
	slotDebts       = levr.BytesToBytes32([]byte("reward-debts"))
	slotPendings    = levr.BytesToBytes32([]byte("reward-pendings"))
	slotTotalStaked = levr.BytesToBytes32([]byte("total-staked"))
)

var errInsufficientStake = errors.New("insufficient staked balance")

// Service persists stake positions and the per-(user, token) debt and
// pending ledgers, and owns the totalStaked counter.
type Service struct {
	positions   *solidity.Mapping[levr.Address, *Position]
	debts       *solidity.Mapping[levr.Bytes32, *big.Int]
	pendings    *solidity.Mapping[levr.Bytes32, *big.Int]
	totalStaked *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		positions:   solidity.NewMapping[levr.Address, *Position](sctx, slotPositions),
		debts:       solidity.NewMapping[levr.Bytes32, *big.Int](sctx, slotDebts),
		pendings:    solidity.NewMapping[levr.Bytes32, *big.Int](sctx, slotPendings),
		totalStaked: solidity.NewUint256(sctx, slotTotalStaked),
	}
}

func userTokenKey(user, token levr.Address) levr.Bytes32 {
	return levr.Blake2b(user.Bytes(), token.Bytes())
}

// Get returns the user's position, empty if never staked.
func (s *Service) Get(user levr.Address) (*Position, error) {
	pos, err := s.positions.Get(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	return pos, nil
}

func (s *Service) set(user levr.Address, pos *Position) error {
	if err := s.positions.Set(user, pos); err != nil {
		return errors.Wrap(err, "failed to set position")
	}
	return nil
}

// TotalStaked returns the sum of all position balances.
func (s *Service) TotalStaked() (*big.Int, error) {
	return s.totalStaked.Get()
}

// Add increases the user's balance, blending tenure via the weighted-average
// rule. totalStaked is increased before the position is touched; debt
// recomputation by the caller must come after this call.
func (s *Service) Add(user levr.Address, amount *big.Int, now uint64) (*Position, error) {
	if err := s.totalStaked.Add(amount); err != nil {
		return nil, err
	}
	pos, err := s.Get(user)
	if err != nil {
		return nil, err
	}
	pos.StakeStartTime = WeightedStakeStart(pos.Balance, pos.StakeStartTime, amount, now)
	pos.Balance = new(big.Int).Add(pos.Balance, amount)
	if err := s.set(user, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// Remove decreases the user's balance, scaling tenure down proportionally.
// A full removal leaves an empty record behind.
func (s *Service) Remove(user levr.Address, amount *big.Int, now uint64) (*Position, error) {
	pos, err := s.Get(user)
	if err != nil {
		return nil, err
	}
	if pos.Balance.Cmp(amount) < 0 {
		return nil, errInsufficientStake
	}
	if err := s.totalStaked.Sub(amount); err != nil {
		return nil, err
	}
	pos.StakeStartTime = ReducedStakeStart(pos.Balance, pos.StakeStartTime, amount, now)
	pos.Balance = new(big.Int).Sub(pos.Balance, amount)
	if err := s.set(user, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// Move shifts amount of balance between two holders without changing
// totalStaked. The sender's tenure reduces as a partial withdrawal, the
// receiver's blends as a deposit.
func (s *Service) Move(from, to levr.Address, amount *big.Int, now uint64) (*Position, *Position, error) {
	fromPos, err := s.Get(from)
	if err != nil {
		return nil, nil, err
	}
	if fromPos.Balance.Cmp(amount) < 0 {
		return nil, nil, errInsufficientStake
	}
	toPos, err := s.Get(to)
	if err != nil {
		return nil, nil, err
	}

	fromPos.StakeStartTime = ReducedStakeStart(fromPos.Balance, fromPos.StakeStartTime, amount, now)
	fromPos.Balance = new(big.Int).Sub(fromPos.Balance, amount)

	toPos.StakeStartTime = WeightedStakeStart(toPos.Balance, toPos.StakeStartTime, amount, now)
	toPos.Balance = new(big.Int).Add(toPos.Balance, amount)

	if err := s.set(from, fromPos); err != nil {
		return nil, nil, err
	}
	if err := s.set(to, toPos); err != nil {
		return nil, nil, err
	}
	return fromPos, toPos, nil
}

// VotingPower derives the user's time-weighted voting power at time now.
func (s *Service) VotingPower(user levr.Address, now uint64) (*big.Int, error) {
	pos, err := s.Get(user)
	if err != nil {
		return nil, err
	}
	return VotingPower(pos.Balance, pos.StakeStartTime, now), nil
}

//
// per-(user, token) reward ledgers
//

// Debt returns the reward amount already priced in for the user on the
// given token, stored in token units (balance times accumulated-per-share,
// scaled back down).
func (s *Service) Debt(user, token levr.Address) (*big.Int, error) {
	d, err := s.debts.Get(userTokenKey(user, token))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get debt")
	}
	if d == nil {
		return new(big.Int), nil
	}
	return d, nil
}

func (s *Service) SetDebt(user, token levr.Address, debt *big.Int) error {
	key := userTokenKey(user, token)
	if debt.Sign() == 0 {
		s.debts.Delete(key)
		return nil
	}
	if err := s.debts.Set(key, debt); err != nil {
		return errors.Wrap(err, "failed to set debt")
	}
	return nil
}

// Pending returns the amount owed to the user on the given token that could
// not be paid at claim time.
func (s *Service) Pending(user, token levr.Address) (*big.Int, error) {
	p, err := s.pendings.Get(userTokenKey(user, token))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pending")
	}
	if p == nil {
		return new(big.Int), nil
	}
	return p, nil
}

func (s *Service) SetPending(user, token levr.Address, pending *big.Int) error {
	key := userTokenKey(user, token)
	if pending.Sign() == 0 {
		s.pendings.Delete(key)
		return nil
	}
	if err := s.pendings.Set(key, pending); err != nil {
		return errors.Wrap(err, "failed to set pending")
	}
	return nil
}

// AddPending accrues amount into the user's pending balance.
func (s *Service) AddPending(user, token levr.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	p, err := s.Pending(user, token)
	if err != nil {
		return err
	}
	return s.SetPending(user, token, new(big.Int).Add(p, amount))
}
