package private

import (
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/network"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/web"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Book  *peer.AddressBook
	Seen  *network.Seen
}

// Routes binds all the private routes.
func Routes(app *web.App, cfg Config) {
	prv := Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Book:  cfg.Book,
		Seen:  cfg.Seen,
	}

	const version = ""

	app.Handle(http.MethodPost, version, "/connect", prv.Connect)
	app.Handle(http.MethodGet, version, "/list", prv.List)
	app.Handle(http.MethodGet, version, "/chain", prv.Chain)
	app.Handle(http.MethodPost, version, "/found", prv.Found)
	app.Handle(http.MethodPost, version, "/added", prv.Added)
	app.Handle(http.MethodGet, version, "/status", prv.Status)
}
