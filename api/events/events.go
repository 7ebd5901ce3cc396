// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/api/restutil"
	"github.com/levrprotocol/levr/eventdb"
)

// Events serves stored engine events with filtering and pagination.
type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

func New(db *eventdb.EventDB, eventsLimit uint64) *Events {
	return &Events{
		db,
		eventsLimit,
	}
}

func (e *Events) filter(ctx context.Context, f *eventdb.Filter) ([]*eventdb.Event, error) {
	events, err := e.db.Filter(ctx, f)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter eventdb.Filter
	if err := restutil.ParseJSON(req.Body, &filter); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return restutil.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	if filter.Range != nil && filter.Range.From > filter.Range.To {
		return restutil.BadRequest(fmt.Errorf("range.to must be greater than or equal to range.from"))
	}
	if filter.Options == nil {
		// detect whether there are more events than the default limit
		filter.Options = &eventdb.Options{
			Offset: 0,
			Limit:  e.limit + 1,
		}
	}

	events, err := e.filter(req.Context(), &filter)
	if err != nil {
		return err
	}

	if len(events) > int(e.limit) {
		return restutil.Forbidden(fmt.Errorf("the number of filtered events exceeds the maximum allowed value of %d, please use pagination", e.limit))
	}

	return restutil.WriteJSON(w, events)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleFilter))
}
