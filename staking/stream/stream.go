// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stream

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/levrprotocol/levr/fpmath"
	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/state"
)

// Stream is the streaming state of one tracked reward token.
type Stream struct {
	AccumulatedPerShare *big.Int // scaled reward per unit stake since genesis, never decreases
	Reserve             *big.Int // amount held against outstanding, unpaid claims
	StreamStart         uint64   // start of the current vesting window
	StreamEnd           uint64   // end of the current vesting window
	StreamTotal         *big.Int // amount vesting over the current window
	LastSettleTime      uint64   // frozen while the pool is empty, recording the pause point
}

var (
	_ state.StorageEncoder = (*Stream)(nil)
	_ state.StorageDecoder = (*Stream)(nil)
)

func (s *Stream) Encode() ([]byte, error) {
	if s.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(s)
}

func (s *Stream) Decode(data []byte) error {
	if len(data) == 0 {
		*s = Stream{
			AccumulatedPerShare: &big.Int{},
			Reserve:             &big.Int{},
			StreamTotal:         &big.Int{},
		}
		return nil
	}
	return rlp.DecodeBytes(data, s)
}

func (s *Stream) IsEmpty() bool {
	return s.AccumulatedPerShare.Sign() == 0 &&
		s.Reserve.Sign() == 0 &&
		s.StreamStart == 0 &&
		s.StreamEnd == 0 &&
		s.StreamTotal.Sign() == 0 &&
		s.LastSettleTime == 0
}

// Vested returns the cumulative amount of the current window vested at time at.
func (s *Stream) Vested(at uint64) *big.Int {
	return VestedAt(s.StreamTotal, s.StreamStart, s.StreamEnd, at)
}

// Unvested returns the remainder of the current window not yet vested,
// measured at the effective elapsed time min(lastSettleTime, now). Using the
// settle time rather than the wall clock keeps vesting time that elapsed
// while the pool was empty out of the books.
func (s *Stream) Unvested(now uint64) *big.Int {
	effective := now
	if s.LastSettleTime < effective {
		effective = s.LastSettleTime
	}
	return UnvestedAt(s.StreamTotal, s.StreamStart, s.StreamEnd, effective)
}

// settle advances AccumulatedPerShare by the portion vested since the last
// settlement, divided over totalStaked. When the pool is empty it returns
// without touching LastSettleTime, which is the pause mechanism.
func (s *Stream) settle(totalStaked *big.Int, now uint64) error {
	if totalStaked.Sign() == 0 {
		return nil
	}
	vested := VestedPortion(s.StreamTotal, s.StreamStart, s.StreamEnd, s.LastSettleTime, now)
	if vested.Sign() > 0 {
		perShare, err := fpmath.MulDiv(vested, levr.RewardScale, totalStaked)
		if err != nil {
			return err
		}
		s.AccumulatedPerShare = new(big.Int).Add(s.AccumulatedPerShare, perShare)
	}
	if now > s.LastSettleTime {
		s.LastSettleTime = now
	}
	return nil
}

// AccumulatedAt projects the accumulated-per-share a settle at time now
// would produce, without mutating anything. Used by pure claimable reads.
func (s *Stream) AccumulatedAt(totalStaked *big.Int, now uint64) (*big.Int, error) {
	if totalStaked.Sign() == 0 {
		return new(big.Int).Set(s.AccumulatedPerShare), nil
	}
	vested := VestedPortion(s.StreamTotal, s.StreamStart, s.StreamEnd, s.LastSettleTime, now)
	perShare, err := fpmath.MulDiv(vested, levr.RewardScale, totalStaked)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(s.AccumulatedPerShare, perShare), nil
}

// restart folds extra plus the unvested remainder of the current window into
// a fresh window of the given length starting at now.
func (s *Stream) restart(extra *big.Int, now, window uint64) {
	total := new(big.Int).Add(extra, s.Unvested(now))
	s.StreamStart = now
	s.StreamEnd = now + window
	s.StreamTotal = total
	s.LastSettleTime = now
	if window == 0 && now > 0 {
		// a zero-length window is fully vested at its start instant; the
		// settle point stays short of it so the next settle distributes
		// the total instead of treating it as already booked
		s.LastSettleTime = now - 1
	}
}

// Finished reports whether the stream can be cleaned up: the window has
// fully elapsed and nothing is held against claims anymore.
func (s *Stream) Finished(now uint64) bool {
	return now >= s.StreamEnd && s.Reserve.Sign() == 0 && s.Unvested(now).Sign() == 0
}
