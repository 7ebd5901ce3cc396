// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package levrclient is the Go client of a LEVR engine node. It combines
// the HTTP API and the websocket event feed behind one facade.
package levrclient

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/levrprotocol/levr/api/rewards"
	"github.com/levrprotocol/levr/api/stakes"
	"github.com/levrprotocol/levr/eventdb"
	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/levrclient/common"
	"github.com/levrprotocol/levr/levrclient/httpclient"
	"github.com/levrprotocol/levr/levrclient/wsclient"
	"github.com/levrprotocol/levr/staking"
)

type Client struct {
	httpConn *httpclient.Client
	wsConn   *wsclient.Client
}

func New(url string) *Client {
	return &Client{
		httpConn: httpclient.New(url),
	}
}

func NewWithWS(url string) (*Client, error) {
	wsClient, err := wsclient.NewClient(url)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpConn: httpclient.New(url),
		wsConn:   wsClient,
	}, nil
}

type Option func(*getOptions)

type getOptions struct {
	query string
}

func applyOptions(opts []Option) *getOptions {
	options := &getOptions{}
	for _, o := range opts {
		o(options)
	}
	return options
}

// At pins the operation timestamp instead of the node's wall clock.
func At(now uint64) Option {
	return func(o *getOptions) {
		o.query = fmt.Sprintf("now=%d", now)
	}
}

func (c *Client) RawHTTPClient() *httpclient.Client {
	return c.httpConn
}

func (c *Client) RawWSClient() *wsclient.Client {
	return c.wsConn
}

func (c *Client) TotalStaked() (*stakes.Total, error) {
	return c.httpConn.GetTotal()
}

func (c *Client) Stake(user *levr.Address, opts ...Option) (*stakes.Stake, error) {
	options := applyOptions(opts)
	return c.httpConn.GetStake(user, options.query)
}

func (c *Client) Claimable(user, token *levr.Address, opts ...Option) (*stakes.Claimable, error) {
	options := applyOptions(opts)
	return c.httpConn.GetClaimable(user, token, options.query)
}

func (c *Client) RewardTokens() ([]*rewards.RewardToken, error) {
	return c.httpConn.GetRewardTokens()
}

func (c *Client) RewardToken(token *levr.Address) (*rewards.RewardToken, error) {
	return c.httpConn.GetRewardToken(token)
}

func (c *Client) FilterEvents(filter *eventdb.Filter) ([]*eventdb.Event, error) {
	return c.httpConn.FilterEvents(filter)
}

func (c *Client) Deposit(user *levr.Address, amount *big.Int, opts ...Option) error {
	options := applyOptions(opts)
	return c.httpConn.PostStake(user, &stakes.StakeRequest{
		Amount: (*math.HexOrDecimal256)(amount),
	}, options.query)
}

func (c *Client) Withdraw(user *levr.Address, amount *big.Int, to *levr.Address, opts ...Option) error {
	options := applyOptions(opts)
	return c.httpConn.PostWithdrawal(user, &stakes.WithdrawRequest{
		Amount: (*math.HexOrDecimal256)(amount),
		To:     to,
	}, options.query)
}

func (c *Client) Transfer(from, to *levr.Address, amount *big.Int, opts ...Option) error {
	options := applyOptions(opts)
	return c.httpConn.PostTransfer(from, &stakes.TransferRequest{
		To:     to,
		Amount: (*math.HexOrDecimal256)(amount),
	}, options.query)
}

func (c *Client) Claim(user *levr.Address, tokens []levr.Address, to *levr.Address, opts ...Option) error {
	options := applyOptions(opts)
	return c.httpConn.PostClaim(user, &stakes.ClaimRequest{
		Tokens: tokens,
		To:     to,
	}, options.query)
}

func (c *Client) Accrue(token *levr.Address, opts ...Option) (*rewards.RewardToken, error) {
	options := applyOptions(opts)
	return c.httpConn.PostAccrual(token, options.query)
}

func (c *Client) Whitelist(caller, token *levr.Address, opts ...Option) error {
	options := applyOptions(opts)
	return c.httpConn.PostWhitelist(token, &rewards.WhitelistRequest{Caller: caller}, options.query)
}

func (c *Client) CleanupRewardToken(token *levr.Address, opts ...Option) error {
	options := applyOptions(opts)
	return c.httpConn.DeleteRewardToken(token, options.query)
}

// SubscribeEvents opens the live event feed. The client must have been
// created with NewWithWS.
func (c *Client) SubscribeEvents(query string) (<-chan common.EventWrapper[*staking.Event], error) {
	if c.wsConn == nil {
		return nil, fmt.Errorf("client is not configured with websocket support")
	}
	return c.wsConn.SubscribeEvents(query)
}
