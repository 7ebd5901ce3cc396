// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/api/restutil"
	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/staking"
)

// RewardToken is the served state of one tracked reward token.
type RewardToken struct {
	Token               levr.Address         `json:"token"`
	Whitelisted         bool                 `json:"whitelisted"`
	Reserve             math.HexOrDecimal256 `json:"reserve,string"`
	StreamTotal         math.HexOrDecimal256 `json:"streamTotal,string"`
	StreamStart         uint64               `json:"streamStart"`
	StreamEnd           uint64               `json:"streamEnd"`
	LastSettleTime      uint64               `json:"lastSettleTime"`
	AccumulatedPerShare math.HexOrDecimal256 `json:"accumulatedPerShare,string"`
}

// WhitelistRequest names the caller asking for the whitelist tier.
type WhitelistRequest struct {
	Caller *levr.Address `json:"caller"`
}

// Rewards exposes reward-token state and, in solo mode, accrual,
// whitelisting and cleanup.
type Rewards struct {
	engine   *staking.Staking
	lock     *sync.Mutex
	soloMode bool
}

func New(engine *staking.Staking, lock *sync.Mutex, soloMode bool) *Rewards {
	return &Rewards{
		engine,
		lock,
		soloMode,
	}
}

func now(req *http.Request) (uint64, error) {
	raw := req.URL.Query().Get("now")
	if raw == "" {
		return uint64(time.Now().Unix()), nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, restutil.BadRequest(errors.WithMessage(err, "now"))
	}
	return n, nil
}

func pathToken(req *http.Request) (levr.Address, error) {
	addr, err := levr.ParseAddress(mux.Vars(req)["token"])
	if err != nil {
		return levr.Address{}, restutil.BadRequest(errors.WithMessage(err, "token"))
	}
	return *addr, nil
}

func (r *Rewards) rewardToken(tk levr.Address) (*RewardToken, error) {
	st, err := r.engine.GetStream(tk)
	if err != nil {
		return nil, err
	}
	whitelisted, err := r.engine.IsWhitelisted(tk)
	if err != nil {
		return nil, err
	}
	return &RewardToken{
		Token:               tk,
		Whitelisted:         whitelisted,
		Reserve:             math.HexOrDecimal256(*st.Reserve),
		StreamTotal:         math.HexOrDecimal256(*st.StreamTotal),
		StreamStart:         st.StreamStart,
		StreamEnd:           st.StreamEnd,
		LastSettleTime:      st.LastSettleTime,
		AccumulatedPerShare: math.HexOrDecimal256(*st.AccumulatedPerShare),
	}, nil
}

func (r *Rewards) handleGetTokens(w http.ResponseWriter, _ *http.Request) error {
	tracked, err := r.engine.TrackedTokens()
	if err != nil {
		return err
	}
	tokens := make([]*RewardToken, 0, len(tracked))
	for _, tk := range tracked {
		rt, err := r.rewardToken(tk)
		if err != nil {
			return err
		}
		tokens = append(tokens, rt)
	}
	return restutil.WriteJSON(w, tokens)
}

func (r *Rewards) handleGetToken(w http.ResponseWriter, req *http.Request) error {
	tk, err := pathToken(req)
	if err != nil {
		return err
	}
	rt, err := r.rewardToken(tk)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, rt)
}

func (r *Rewards) handleAccrue(w http.ResponseWriter, req *http.Request) error {
	tk, err := pathToken(req)
	if err != nil {
		return err
	}
	n, err := now(req)
	if err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if err := r.engine.AccrueRewards(tk, n); err != nil {
		return engineError(err)
	}
	rt, err := r.rewardToken(tk)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, rt)
}

func (r *Rewards) handleWhitelist(w http.ResponseWriter, req *http.Request) error {
	tk, err := pathToken(req)
	if err != nil {
		return err
	}
	var body WhitelistRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.Caller == nil {
		return restutil.BadRequest(errors.New("caller: missing"))
	}
	n, err := now(req)
	if err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if err := r.engine.WhitelistToken(*body.Caller, tk, n); err != nil {
		return engineError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"whitelisted": tk.String()})
}

func (r *Rewards) handleCleanup(w http.ResponseWriter, req *http.Request) error {
	tk, err := pathToken(req)
	if err != nil {
		return err
	}
	n, err := now(req)
	if err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	if err := r.engine.CleanupFinishedRewardToken(tk, n); err != nil {
		return engineError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"removed": tk.String()})
}

func engineError(err error) error {
	switch {
	case errors.Is(err, staking.ErrDustFunding),
		errors.Is(err, staking.ErrZeroAddress):
		return restutil.BadRequest(err)
	case errors.Is(err, staking.ErrNotAdmin):
		return restutil.Forbidden(err)
	case errors.Is(err, staking.ErrUnknownToken):
		return restutil.NotFound(err)
	case errors.Is(err, staking.ErrStreamActive),
		errors.Is(err, staking.ErrReentrantCall):
		return restutil.HTTPError(err, http.StatusConflict)
	default:
		return err
	}
}

func (r *Rewards) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/tokens").
		Methods(http.MethodGet).
		Name("GET /rewards/tokens").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleGetTokens))
	sub.Path("/tokens/{token}").
		Methods(http.MethodGet).
		Name("GET /rewards/tokens/{token}").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleGetToken))

	if r.soloMode {
		sub.Path("/tokens/{token}/accruals").
			Methods(http.MethodPost).
			Name("POST /rewards/tokens/{token}/accruals").
			HandlerFunc(restutil.WrapHandlerFunc(r.handleAccrue))
		sub.Path("/tokens/{token}/whitelist").
			Methods(http.MethodPost).
			Name("POST /rewards/tokens/{token}/whitelist").
			HandlerFunc(restutil.WrapHandlerFunc(r.handleWhitelist))
		sub.Path("/tokens/{token}").
			Methods(http.MethodDelete).
			Name("DELETE /rewards/tokens/{token}").
			HandlerFunc(restutil.WrapHandlerFunc(r.handleCleanup))
	}
}
