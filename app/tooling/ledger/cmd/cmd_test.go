package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/network"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type recorded struct {
	method string
	path   string
	body   string
}

func startNode(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	var calls []recorded

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, body: string(b)})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func Test_Submit(t *testing.T) {
	t.Log("Given the need to submit a transaction from the command line.")
	{
		srv, calls := startNode(t, http.StatusOK, `{"status":"ok"}`)

		out, err := execute("submit", `{"from":"bill","amount":1}`, "--url", srv.URL)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to submit: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to submit.", success)

		if len(*calls) != 1 || (*calls)[0].method != http.MethodPost || (*calls)[0].path != "/add" {
			t.Fatalf("\t%s\tShould post to /add, got %+v.", failed, *calls)
		}
		t.Logf("\t%s\tShould post to /add.", success)

		var req network.TxRequest
		if err := json.Unmarshal([]byte((*calls)[0].body), &req); err != nil {
			t.Fatalf("\t%s\tShould send a tx request: %s", failed, err)
		}
		if string(req.Tx) != `{"from":"bill","amount":1}` {
			t.Fatalf("\t%s\tShould carry the payload untouched, got %s.", failed, req.Tx)
		}
		t.Logf("\t%s\tShould carry the payload untouched.", success)

		if !strings.Contains(out, `"status": "ok"`) {
			t.Fatalf("\t%s\tShould print the indented response, got %q.", failed, out)
		}
		t.Logf("\t%s\tShould print the indented response.", success)

		if _, err := execute("submit", "not json", "--url", srv.URL); err == nil {
			t.Fatalf("\t%s\tShould reject a payload that is not json.", failed)
		}
		t.Logf("\t%s\tShould reject a payload that is not json.", success)
	}
}

func Test_Errors(t *testing.T) {
	t.Log("Given the need to report node failures.")
	{
		srv, _ := startNode(t, http.StatusForbidden, `{"error":"node is not a miner"}`)

		_, err := execute("added", `{"a":1}`, "--private-url", srv.URL)
		if err == nil || !strings.Contains(err.Error(), "node is not a miner") {
			t.Fatalf("\t%s\tShould return the node error, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould return the node error.", success)
	}
}

func Test_Queries(t *testing.T) {
	t.Log("Given the need to query a node.")
	{
		tests := []struct {
			name string
			args []string
			path string
		}{
			{"chain", []string{"chain"}, "/chain"},
			{"block", []string{"chain", "2"}, "/chain/2"},
			{"peers", []string{"peers"}, "/list"},
			{"status", []string{"status"}, "/status"},
			{"mempool", []string{"mempool"}, "/mempool"},
			{"connect", []string{"connect", "10.0.0.1:9080"}, "/connect"},
		}

		for testID, tt := range tests {
			f := func(t *testing.T) {
				srv, calls := startNode(t, http.StatusOK, `{}`)

				args := append(tt.args, "--url", srv.URL, "--private-url", srv.URL)
				if _, err := execute(args...); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould run %s: %s", failed, testID, tt.name, err)
				}

				if len(*calls) != 1 || (*calls)[0].path != tt.path {
					t.Fatalf("\t%s\tTest %d:\tShould call %s, got %+v.", failed, testID, tt.path, *calls)
				}
				t.Logf("\t%s\tTest %d:\tShould call %s.", success, testID, tt.path)
			}

			t.Run(tt.name, f)
		}
	}
}
