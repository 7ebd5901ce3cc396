// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package registry

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/solidity"
)

var (
	slotEntries    = levr.BytesToBytes32([]byte("reward-tokens"))
	slotHead       = levr.BytesToBytes32([]byte("reward-tokens-head"))
	slotTail       = levr.BytesToBytes32([]byte("reward-tokens-tail"))
	slotCount      = levr.BytesToBytes32([]byte("reward-tokens-count"))
	slotPlainCount = levr.BytesToBytes32([]byte("reward-tokens-plain-count"))
)

// Service maintains the tracked token list. The zero address terminates the
// list on both ends.
type Service struct {
	entries    *solidity.Mapping[levr.Address, *entry]
	head       *solidity.Address
	tail       *solidity.Address
	count      *solidity.Uint256
	plainCount *solidity.Uint256 // tracked tokens outside the whitelisted tier
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		entries:    solidity.NewMapping[levr.Address, *entry](sctx, slotEntries),
		head:       solidity.NewAddress(sctx, slotHead),
		tail:       solidity.NewAddress(sctx, slotTail),
		count:      solidity.NewUint256(sctx, slotCount),
		plainCount: solidity.NewUint256(sctx, slotPlainCount),
	}
}

func (s *Service) get(token levr.Address) (*entry, error) {
	e, err := s.entries.Get(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get registry entry")
	}
	return e, nil
}

func (s *Service) set(token levr.Address, e *entry) error {
	if err := s.entries.Set(token, e); err != nil {
		return errors.Wrap(err, "failed to set registry entry")
	}
	return nil
}

// IsTracked reports whether the token has a registry slot.
func (s *Service) IsTracked(token levr.Address) (bool, error) {
	e, err := s.get(token)
	if err != nil {
		return false, err
	}
	return e.Tracked, nil
}

// IsWhitelisted reports whether the token sits in the whitelisted tier.
func (s *Service) IsWhitelisted(token levr.Address) (bool, error) {
	e, err := s.get(token)
	if err != nil {
		return false, err
	}
	return e.Tracked && e.Whitelisted, nil
}

// Count returns the number of tracked tokens.
func (s *Service) Count() (*big.Int, error) {
	return s.count.Get()
}

// PlainCount returns the number of tracked tokens outside the whitelist.
func (s *Service) PlainCount() (*big.Int, error) {
	return s.plainCount.Get()
}

// Track adds the token to the registry, appending it to the list tail. Only
// the non-whitelisted tier counts against maxPlain. Tracking an already
// tracked token is a no-op, except that whitelisted promotes it into the
// exempt tier.
func (s *Service) Track(token levr.Address, whitelisted bool, maxPlain uint64) error {
	e, err := s.get(token)
	if err != nil {
		return err
	}
	if e.Tracked {
		if whitelisted && !e.Whitelisted {
			e.Whitelisted = true
			if err := s.set(token, e); err != nil {
				return err
			}
			return s.plainCount.Sub(big.NewInt(1))
		}
		return nil
	}

	if !whitelisted {
		plain, err := s.plainCount.Get()
		if err != nil {
			return err
		}
		if plain.Uint64() >= maxPlain {
			return ErrRegistryFull
		}
	}

	e.Tracked = true
	e.Whitelisted = whitelisted

	oldTail, err := s.tail.Get()
	if err != nil {
		return err
	}
	if oldTail.IsZero() {
		s.head.Set(token)
		s.tail.Set(token)
	} else {
		tailEntry, err := s.get(oldTail)
		if err != nil {
			return err
		}
		tailEntry.Next = &token
		if err := s.set(oldTail, tailEntry); err != nil {
			return err
		}
		e.Prev = &oldTail
		s.tail.Set(token)
	}
	if err := s.set(token, e); err != nil {
		return err
	}
	if !whitelisted {
		if err := s.plainCount.Add(big.NewInt(1)); err != nil {
			return err
		}
	}
	return s.count.Add(big.NewInt(1))
}

// Remove unlinks the token, freeing its registry slot. Removing an
// untracked token is a no-op.
func (s *Service) Remove(token levr.Address) error {
	e, err := s.get(token)
	if err != nil {
		return err
	}
	if !e.Tracked {
		return nil
	}

	if e.Prev == nil {
		if e.Next == nil {
			s.head.Set(levr.Address{})
		} else {
			s.head.Set(*e.Next)
		}
	} else {
		prevEntry, err := s.get(*e.Prev)
		if err != nil {
			return err
		}
		prevEntry.Next = e.Next
		if err := s.set(*e.Prev, prevEntry); err != nil {
			return err
		}
	}

	if e.Next == nil {
		if e.Prev == nil {
			s.tail.Set(levr.Address{})
		} else {
			s.tail.Set(*e.Prev)
		}
	} else {
		nextEntry, err := s.get(*e.Next)
		if err != nil {
			return err
		}
		nextEntry.Prev = e.Prev
		if err := s.set(*e.Next, nextEntry); err != nil {
			return err
		}
	}

	if !e.Whitelisted {
		if err := s.plainCount.Sub(big.NewInt(1)); err != nil {
			return err
		}
	}
	s.entries.Delete(token)
	return s.count.Sub(big.NewInt(1))
}

// Iterate walks the tracked tokens in insertion order.
func (s *Service) Iterate(callback func(token levr.Address, whitelisted bool) error) error {
	ptr, err := s.head.Get()
	if err != nil {
		return err
	}
	for !ptr.IsZero() {
		e, err := s.get(ptr)
		if err != nil {
			return err
		}
		if !e.Tracked {
			break
		}
		if err := callback(ptr, e.Whitelisted); err != nil {
			return err
		}
		if e.Next == nil {
			break
		}
		ptr = *e.Next
	}
	return nil
}

// Tokens lists all tracked tokens in insertion order.
func (s *Service) Tokens() ([]levr.Address, error) {
	tokens := make([]levr.Address, 0, levr.InitialMaxRewardTokens)
	err := s.Iterate(func(token levr.Address, _ bool) error {
		tokens = append(tokens, token)
		return nil
	})
	return tokens, err
}
