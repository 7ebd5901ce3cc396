// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package httpclient provides an HTTP client to interact with a LEVR engine
// node. It offers methods to retrieve stakes, reward tokens and events, and
// to submit engine operations on solo-mode nodes.
package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/levrprotocol/levr/api/rewards"
	"github.com/levrprotocol/levr/api/stakes"
	"github.com/levrprotocol/levr/eventdb"
	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/levrclient/common"
)

// Client represents the HTTP client for interacting with an engine node.
type Client struct {
	url string
	c   *http.Client
}

// New creates a new Client with the provided URL.
func New(url string) *Client {
	return NewWithHTTP(url, http.DefaultClient)
}

func NewWithHTTP(url string, c *http.Client) *Client {
	return &Client{
		url: url,
		c:   c,
	}
}

// GetTotal retrieves the pool-wide staked amount.
func (c *Client) GetTotal() (*stakes.Total, error) {
	body, err := c.httpGET(c.url + "/stakes/total")
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve total - %w", err)
	}

	var total stakes.Total
	if err = json.Unmarshal(body, &total); err != nil {
		return nil, fmt.Errorf("unable to unmarshal total - %w", err)
	}
	return &total, nil
}

// GetStake retrieves a user's position. query carries optional parameters
// such as "now=…".
func (c *Client) GetStake(user *levr.Address, query string) (*stakes.Stake, error) {
	url := c.url + "/stakes/" + user.String()
	if query != "" {
		url += "?" + query
	}

	body, err := c.httpGET(url)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve stake - %w", err)
	}

	var stake stakes.Stake
	if err = json.Unmarshal(body, &stake); err != nil {
		return nil, fmt.Errorf("unable to unmarshal stake - %w", err)
	}
	return &stake, nil
}

// GetClaimable retrieves the claimable amount of one reward token.
func (c *Client) GetClaimable(user, token *levr.Address, query string) (*stakes.Claimable, error) {
	url := c.url + "/stakes/" + user.String() + "/claimable/" + token.String()
	if query != "" {
		url += "?" + query
	}

	body, err := c.httpGET(url)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve claimable - %w", err)
	}

	var claimable stakes.Claimable
	if err = json.Unmarshal(body, &claimable); err != nil {
		return nil, fmt.Errorf("unable to unmarshal claimable - %w", err)
	}
	return &claimable, nil
}

// GetRewardTokens retrieves the state of every tracked reward token.
func (c *Client) GetRewardTokens() ([]*rewards.RewardToken, error) {
	body, err := c.httpGET(c.url + "/rewards/tokens")
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve reward tokens - %w", err)
	}

	var tokens []*rewards.RewardToken
	if err = json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("unable to unmarshal reward tokens - %w", err)
	}
	return tokens, nil
}

// GetRewardToken retrieves the state of one tracked reward token.
func (c *Client) GetRewardToken(token *levr.Address) (*rewards.RewardToken, error) {
	body, err := c.httpGET(c.url + "/rewards/tokens/" + token.String())
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve reward token - %w", err)
	}

	var rt rewards.RewardToken
	if err = json.Unmarshal(body, &rt); err != nil {
		return nil, fmt.Errorf("unable to unmarshal reward token - %w", err)
	}
	return &rt, nil
}

// FilterEvents queries stored engine events.
func (c *Client) FilterEvents(filter *eventdb.Filter) ([]*eventdb.Event, error) {
	body, err := c.httpPOST(c.url+"/events", filter)
	if err != nil {
		return nil, fmt.Errorf("unable to filter events - %w", err)
	}

	var events []*eventdb.Event
	if err = json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("unable to unmarshal events - %w", err)
	}
	return events, nil
}

// PostStake deposits a stake for the user.
func (c *Client) PostStake(user *levr.Address, req *stakes.StakeRequest, query string) error {
	url := c.url + "/stakes/" + user.String()
	if query != "" {
		url += "?" + query
	}
	_, err := c.httpPOST(url, req)
	return err
}

// PostWithdrawal removes part of the user's stake.
func (c *Client) PostWithdrawal(user *levr.Address, req *stakes.WithdrawRequest, query string) error {
	url := c.url + "/stakes/" + user.String() + "/withdrawals"
	if query != "" {
		url += "?" + query
	}
	_, err := c.httpPOST(url, req)
	return err
}

// PostTransfer moves staked balance to another user.
func (c *Client) PostTransfer(user *levr.Address, req *stakes.TransferRequest, query string) error {
	url := c.url + "/stakes/" + user.String() + "/transfers"
	if query != "" {
		url += "?" + query
	}
	_, err := c.httpPOST(url, req)
	return err
}

// PostClaim pays out the user's accrued rewards.
func (c *Client) PostClaim(user *levr.Address, req *stakes.ClaimRequest, query string) error {
	url := c.url + "/stakes/" + user.String() + "/claims"
	if query != "" {
		url += "?" + query
	}
	_, err := c.httpPOST(url, req)
	return err
}

// PostAccrual triggers reward detection for the token.
func (c *Client) PostAccrual(token *levr.Address, query string) (*rewards.RewardToken, error) {
	url := c.url + "/rewards/tokens/" + token.String() + "/accruals"
	if query != "" {
		url += "?" + query
	}

	body, err := c.httpPOST(url, struct{}{})
	if err != nil {
		return nil, fmt.Errorf("unable to post accrual - %w", err)
	}

	var rt rewards.RewardToken
	if err = json.Unmarshal(body, &rt); err != nil {
		return nil, fmt.Errorf("unable to unmarshal reward token - %w", err)
	}
	return &rt, nil
}

// PostWhitelist asks for the whitelist tier on behalf of the caller.
func (c *Client) PostWhitelist(token *levr.Address, req *rewards.WhitelistRequest, query string) error {
	url := c.url + "/rewards/tokens/" + token.String() + "/whitelist"
	if query != "" {
		url += "?" + query
	}
	_, err := c.httpPOST(url, req)
	return err
}

// DeleteRewardToken removes a finished reward token.
func (c *Client) DeleteRewardToken(token *levr.Address, query string) error {
	url := c.url + "/rewards/tokens/" + token.String()
	if query != "" {
		url += "?" + query
	}
	_, err := c.httpRequest(http.MethodDelete, url, nil)
	return err
}

func (c *Client) httpRequest(method, url string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error performing request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return responseBody, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("http error - Status Code %d - %s - %w", resp.StatusCode, responseBody, common.ErrNotFound)
	default:
		return nil, fmt.Errorf("http error - Status Code %d - %s - %w", resp.StatusCode, responseBody, common.ErrNot200Status)
	}
}

func (c *Client) httpGET(url string) ([]byte, error) {
	return c.httpRequest(http.MethodGet, url, nil)
}

func (c *Client) httpPOST(url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal payload - %w", err)
	}
	return c.httpRequest(http.MethodPost, url, bytes.NewBuffer(data))
}
