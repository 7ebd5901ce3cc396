// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/state"
)

var (
	totalSupplyKey = levr.Blake2b([]byte("total-supply"))
	totalMintKey   = levr.Blake2b([]byte("total-mint"))
	totalBurnKey   = levr.Blake2b([]byte("total-burn"))
)

func accountKey(holder levr.Address) levr.Bytes32 {
	return levr.BytesToBytes32(append([]byte("a"), holder.Bytes()...))
}

type account struct {
	Balance *big.Int
}

var (
	_ state.StorageEncoder = (*account)(nil)
	_ state.StorageDecoder = (*account)(nil)
)

func (a *account) Encode() ([]byte, error) {
	if a.Balance.Sign() == 0 {
		return nil, nil
	}
	return rlp.EncodeToBytes(a)
}

func (a *account) Decode(data []byte) error {
	if len(data) == 0 {
		*a = account{&big.Int{}}
		return nil
	}
	return rlp.DecodeBytes(data, a)
}

// Ledger is a state-backed Token, used for the underlying stake asset and
// for reward tokens when the engine runs in-process.
type Ledger struct {
	addr  levr.Address
	state *state.State
}

var _ Token = (*Ledger)(nil)

// NewLedger creates the ledger of the token identified by addr.
func NewLedger(addr levr.Address, st *state.State) *Ledger {
	return &Ledger{addr, st}
}

func (l *Ledger) Address() levr.Address {
	return l.addr
}

func (l *Ledger) getAccount(holder levr.Address) (*account, error) {
	var acc account
	if err := l.state.GetStructuredStorage(l.addr, accountKey(holder), &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (l *Ledger) setAccount(holder levr.Address, acc *account) error {
	return l.state.SetStructuredStorage(l.addr, accountKey(holder), acc)
}

// BalanceOf returns the token balance of the holder.
func (l *Ledger) BalanceOf(holder levr.Address) (*big.Int, error) {
	acc, err := l.getAccount(holder)
	if err != nil {
		return nil, err
	}
	return acc.Balance, nil
}

// TotalSupply returns minted minus burned amounts.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	var minted, burned big.Int
	if err := l.state.GetStructuredStorage(l.addr, totalMintKey, &minted); err != nil {
		return nil, err
	}
	if err := l.state.GetStructuredStorage(l.addr, totalBurnKey, &burned); err != nil {
		return nil, err
	}
	return new(big.Int).Sub(&minted, &burned), nil
}

// Mint adds amount to the holder's balance.
func (l *Ledger) Mint(holder levr.Address, amount *big.Int) error {
	acc, err := l.getAccount(holder)
	if err != nil {
		return err
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	if err := l.setAccount(holder, acc); err != nil {
		return err
	}

	var minted big.Int
	if err := l.state.GetStructuredStorage(l.addr, totalMintKey, &minted); err != nil {
		return err
	}
	minted.Add(&minted, amount)
	return l.state.SetStructuredStorage(l.addr, totalMintKey, &minted)
}

// Burn removes amount from the holder's balance.
func (l *Ledger) Burn(holder levr.Address, amount *big.Int) error {
	acc, err := l.getAccount(holder)
	if err != nil {
		return err
	}
	if acc.Balance.Cmp(amount) < 0 {
		return errors.New("insufficient balance to burn")
	}
	acc.Balance = new(big.Int).Sub(acc.Balance, amount)
	if err := l.setAccount(holder, acc); err != nil {
		return err
	}

	var burned big.Int
	if err := l.state.GetStructuredStorage(l.addr, totalBurnKey, &burned); err != nil {
		return err
	}
	burned.Add(&burned, amount)
	return l.state.SetStructuredStorage(l.addr, totalBurnKey, &burned)
}

// Transfer moves amount between holders.
func (l *Ledger) Transfer(from, to levr.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return errors.New("negative amount")
	}
	fromAcc, err := l.getAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.Balance.Cmp(amount) < 0 {
		return errors.New("insufficient balance")
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	if err := l.setAccount(from, fromAcc); err != nil {
		return err
	}

	toAcc, err := l.getAccount(to)
	if err != nil {
		return err
	}
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	return l.setAccount(to, toAcc)
}
