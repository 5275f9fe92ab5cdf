package mid

import (
	"context"
	"net/http"

	"github.com/ardanlabs/ledger/business/sys/metrics"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/dimfeld/httptreemux/v5"
)

// Metrics updates program counters.
func Metrics() web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Label by the route pattern so /chain/:index is one series.
			route := r.URL.Path
			if data := httptreemux.ContextData(r.Context()); data != nil {
				route = data.Route()
			}

			// Increment the request and goroutines counter.
			n := metrics.AddRequests(r.Method, route)
			if n%100 == 0 {
				metrics.AddGoroutines()
			}

			// Increment if there is an error flowing through the request.
			if err != nil {
				metrics.AddErrors()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
