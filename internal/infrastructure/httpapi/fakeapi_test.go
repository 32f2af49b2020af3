package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

type cannedResponse struct {
	status int
	body   string
}

// fakeAPI mimics the auction server's routes with canned answers.
type fakeAPI struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]cannedResponse // route name -> response
	gate      chan struct{}             // when set, /bid waits on it

	srv *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{responses: map[string]cannedResponse{}}

	r := mux.NewRouter()
	r.HandleFunc("/auction/{id:[0-9]+}", api.serve("auction")).Methods(http.MethodGet)
	r.HandleFunc("/bid", api.serve("bid")).Methods(http.MethodPost)
	r.HandleFunc("/admin/all-auctions", api.serve("all-auctions")).Methods(http.MethodGet)
	r.HandleFunc("/admin/auction-stats/{id:[0-9]+}", api.serve("auction-stats")).Methods(http.MethodGet)
	r.HandleFunc("/admin/create-auction", api.serve("create-auction")).Methods(http.MethodPost)
	r.HandleFunc("/admin/{action}/{id:[0-9]+}", api.serve("command")).Methods(http.MethodPost)

	api.srv = httptest.NewServer(r)
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) URL() string { return a.srv.URL }

func (a *fakeAPI) respond(route string, status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responses[route] = cannedResponse{status: status, body: body}
}

func (a *fakeAPI) holdBids() chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gate = make(chan struct{})
	return a.gate
}

func (a *fakeAPI) recorded() []recordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]recordedRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

func (a *fakeAPI) serve(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		a.mu.Lock()
		a.requests = append(a.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		resp, ok := a.responses[route]
		gate := a.gate
		a.mu.Unlock()

		if route == "bid" && gate != nil {
			<-gate
		}
		if !ok {
			resp = cannedResponse{status: http.StatusOK, body: `{"message": "ok"}`}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		_, _ = io.WriteString(w, resp.body)
	}
}

func decodeBody(t *testing.T, raw []byte) map[string]json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("request body is not a JSON object: %v", err)
	}
	return out
}
