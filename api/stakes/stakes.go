// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"fmt"
	"math/big"
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

// Stakes exposes staking positions and, in solo mode, the mutating
// stake/withdraw/transfer/claim operations.
type Stakes struct {
	engine   *staking.Staking
	lock     *sync.Mutex
	soloMode bool
}

func New(engine *staking.Staking, lock *sync.Mutex, soloMode bool) *Stakes {
	return &Stakes{
		engine,
		lock,
		soloMode,
	}
}

// now resolves the operation timestamp: an explicit "now" query parameter
// wins, otherwise wall clock.
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

func pathAddress(req *http.Request, name string) (levr.Address, error) {
	addr, err := levr.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return levr.Address{}, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return *addr, nil
}

func requiredAmount(amount *math.HexOrDecimal256, name string) (*big.Int, error) {
	if amount == nil {
		return nil, restutil.BadRequest(fmt.Errorf("%s: missing", name))
	}
	return (*big.Int)(amount), nil
}

func (s *Stakes) handleGetTotal(w http.ResponseWriter, _ *http.Request) error {
	total, err := s.engine.TotalStaked()
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Total{TotalStaked: math.HexOrDecimal256(*total)})
}

func (s *Stakes) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	user, err := pathAddress(req, "user")
	if err != nil {
		return err
	}
	n, err := now(req)
	if err != nil {
		return err
	}
	pos, err := s.engine.GetPosition(user)
	if err != nil {
		return err
	}
	vp, err := s.engine.VotingPower(user, n)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Stake{
		Balance:        math.HexOrDecimal256(*pos.Balance),
		StakeStartTime: pos.StakeStartTime,
		VotingPower:    math.HexOrDecimal256(*vp),
	})
}

func (s *Stakes) handleGetClaimable(w http.ResponseWriter, req *http.Request) error {
	user, err := pathAddress(req, "user")
	if err != nil {
		return err
	}
	tk, err := pathAddress(req, "token")
	if err != nil {
		return err
	}
	n, err := now(req)
	if err != nil {
		return err
	}
	amount, err := s.engine.Claimable(user, tk, n)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &Claimable{
		Token:  tk,
		Amount: math.HexOrDecimal256(*amount),
	})
}

func (s *Stakes) handleStake(w http.ResponseWriter, req *http.Request) error {
	user, err := pathAddress(req, "user")
	if err != nil {
		return err
	}
	var body StakeRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := requiredAmount(body.Amount, "amount")
	if err != nil {
		return err
	}
	n, err := now(req)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.engine.Stake(user, amount, n); err != nil {
		return engineError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"staked": (*math.HexOrDecimal256)(amount)})
}

func (s *Stakes) handleWithdraw(w http.ResponseWriter, req *http.Request) error {
	user, err := pathAddress(req, "user")
	if err != nil {
		return err
	}
	var body WithdrawRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	amount, err := requiredAmount(body.Amount, "amount")
	if err != nil {
		return err
	}
	to := user
	if body.To != nil {
		to = *body.To
	}
	n, err := now(req)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.engine.Unstake(user, amount, to, n); err != nil {
		return engineError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"withdrawn": (*math.HexOrDecimal256)(amount)})
}

func (s *Stakes) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	from, err := pathAddress(req, "user")
	if err != nil {
		return err
	}
	var body TransferRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if body.To == nil {
		return restutil.BadRequest(fmt.Errorf("to: missing"))
	}
	amount, err := requiredAmount(body.Amount, "amount")
	if err != nil {
		return err
	}
	n, err := now(req)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.engine.Transfer(from, *body.To, amount, n); err != nil {
		return engineError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"transferred": (*math.HexOrDecimal256)(amount)})
}

func (s *Stakes) handleClaim(w http.ResponseWriter, req *http.Request) error {
	user, err := pathAddress(req, "user")
	if err != nil {
		return err
	}
	var body ClaimRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	tokens := body.Tokens
	if len(tokens) == 0 {
		tracked, err := s.engine.TrackedTokens()
		if err != nil {
			return err
		}
		tokens = tracked
	}
	to := user
	if body.To != nil {
		to = *body.To
	}
	n, err := now(req)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.engine.Claim(user, tokens, to, n); err != nil {
		return engineError(err)
	}
	return restutil.WriteJSON(w, restutil.M{"claimed": tokens})
}

// engineError maps engine sentinel errors onto http statuses.
func engineError(err error) error {
	switch {
	case errors.Is(err, staking.ErrInvalidAmount),
		errors.Is(err, staking.ErrZeroAddress),
		errors.Is(err, staking.ErrDustFunding):
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

func (s *Stakes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/total").
		Methods(http.MethodGet).
		Name("GET /stakes/total").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetTotal))
	sub.Path("/{user}").
		Methods(http.MethodGet).
		Name("GET /stakes/{user}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/{user}/claimable/{token}").
		Methods(http.MethodGet).
		Name("GET /stakes/{user}/claimable/{token}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetClaimable))

	if s.soloMode {
		sub.Path("/{user}").
			Methods(http.MethodPost).
			Name("POST /stakes/{user}").
			HandlerFunc(restutil.WrapHandlerFunc(s.handleStake))
		sub.Path("/{user}/withdrawals").
			Methods(http.MethodPost).
			Name("POST /stakes/{user}/withdrawals").
			HandlerFunc(restutil.WrapHandlerFunc(s.handleWithdraw))
		sub.Path("/{user}/transfers").
			Methods(http.MethodPost).
			Name("POST /stakes/{user}/transfers").
			HandlerFunc(restutil.WrapHandlerFunc(s.handleTransfer))
		sub.Path("/{user}/claims").
			Methods(http.MethodPost).
			Name("POST /stakes/{user}/claims").
			HandlerFunc(restutil.WrapHandlerFunc(s.handleClaim))
	}
}
