// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stream

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/solidity"
)

var slotStreams = levr.BytesToBytes32([]byte("reward-streams"))

// Service persists and mutates the Stream of every tracked reward token.
// Time is always an explicit argument; the service holds no clock.
type Service struct {
	streams *solidity.Mapping[levr.Address, *Stream]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		streams: solidity.NewMapping[levr.Address, *Stream](sctx, slotStreams),
	}
}

// Get returns the stream of the given token, empty if never credited.
func (s *Service) Get(token levr.Address) (*Stream, error) {
	st, err := s.streams.Get(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stream")
	}
	return st, nil
}

func (s *Service) set(token levr.Address, st *Stream) error {
	if err := s.streams.Set(token, st); err != nil {
		return errors.Wrap(err, "failed to set stream")
	}
	return nil
}

// Settle advances the token's accumulated-per-share for the window portion
// elapsed since the last settlement. A settle on an empty pool is a pause:
// nothing advances, the settle time stays frozen.
func (s *Service) Settle(token levr.Address, totalStaked *big.Int, now uint64) (*Stream, error) {
	st, err := s.Get(token)
	if err != nil {
		return nil, err
	}
	if err := st.settle(totalStaked, now); err != nil {
		return nil, err
	}
	if err := s.set(token, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Credit settles the current stream and folds amount plus its unvested
// remainder into a fresh window. The reserve grows by amount only; the
// remainder was reserved when it was first credited. A zero amount is a
// settle-only no-op.
func (s *Service) Credit(token levr.Address, amount, totalStaked *big.Int, now, window uint64) (*Stream, error) {
	st, err := s.Get(token)
	if err != nil {
		return nil, err
	}
	if err := st.settle(totalStaked, now); err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return st, s.set(token, st)
	}
	st.restart(amount, now, window)
	st.Reserve = new(big.Int).Add(st.Reserve, amount)
	if window == 0 {
		// degenerate window: vested in full at the credit instant, so it
		// distributes right away while the pool is live; an empty pool
		// keeps it as the unvested remainder to fold on resume
		if err := st.settle(totalStaked, now); err != nil {
			return nil, err
		}
	}
	if err := s.set(token, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Resume restarts a paused stream when the pool regains its first staker.
// The unvested remainder vests over a fresh window from now; nothing is paid
// out instantly and no vesting time is consumed for the paused gap.
func (s *Service) Resume(token levr.Address, now, window uint64) (*Stream, error) {
	st, err := s.Get(token)
	if err != nil {
		return nil, err
	}
	st.restart(new(big.Int), now, window)
	if err := s.set(token, st); err != nil {
		return nil, err
	}
	return st, nil
}

// PayOut releases amount from the token's reserve.
func (s *Service) PayOut(token levr.Address, amount *big.Int) error {
	st, err := s.Get(token)
	if err != nil {
		return err
	}
	if st.Reserve.Cmp(amount) < 0 {
		return errors.New("reserve underflow")
	}
	st.Reserve = new(big.Int).Sub(st.Reserve, amount)
	return s.set(token, st)
}

// Delete clears the token's stream state. Callers gate this on Finished.
func (s *Service) Delete(token levr.Address) {
	s.streams.Delete(token)
}
