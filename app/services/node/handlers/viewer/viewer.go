// Package viewer serves a page that follows the node events as they happen.
package viewer

import (
	"context"
	"embed"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/web"
)

//go:embed assets/index.html
var assets embed.FS

// Routes binds the viewer page to the app.
func Routes(app *web.App) {
	app.Handle(http.MethodGet, "", "/", index)
}

func index(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	page, err := assets.ReadFile("assets/index.html")
	if err != nil {
		return err
	}

	if err := web.SetStatusCode(ctx, http.StatusOK); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(page)

	return err
}
