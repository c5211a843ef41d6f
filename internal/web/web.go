// Package web serves the operator form and forwards its submissions to motord.
package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"motord/internal/logger"
)

// Sender delivers one command and returns the server's reply.
type Sender interface {
	Send(ctx context.Context, command string) (string, error)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Robot Motor Control</title></head>
<body>
<h1>Robot Motor Control</h1>
<p>Commands are forwarded to {{.Server}}.</p>
<hr/>
{{range .Motors}}
<h2>Motor {{.}}</h2>
<form action="/control" method="GET">
  <input type="hidden" name="motor_id" value="{{.}}"/>
  Direction:
  <select name="direction">
    <option value="forward">Forward</option>
    <option value="backward">Backward</option>
  </select>
  Speed (0..65535):
  <input type="number" name="speed" value="30000" min="0" max="65535"/>
  <input type="submit" value="Update"/>
</form>
<br/>
{{end}}
</body>
</html>
`))

// Handler renders the form and relays commands.
type Handler struct {
	log     logger.Logger
	sender  Sender
	server  string
	motors  []int
	timeout time.Duration
}

// NewHandler конструктор. server is only shown on the page.
func NewHandler(log logger.Logger, sender Sender, server string, motors []int, timeout time.Duration) *Handler {
	return &Handler{
		log:     log,
		sender:  sender,
		server:  server,
		motors:  motors,
		timeout: timeout,
	}
}

// Router returns the front-end routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.index).Methods(http.MethodGet)
	r.HandleFunc("/control", h.control).Methods(http.MethodGet)
	return r
}

func (h *Handler) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, struct {
		Server string
		Motors []int
	}{h.server, h.motors})
	if err != nil {
		h.log.Module("web").Errorf("render index: %v", err)
	}
}

func (h *Handler) control(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cmd := fmt.Sprintf("%s,%s,%s",
		param(q, "motor_id", "1"),
		param(q, "direction", "forward"),
		param(q, "speed", "30000"),
	)

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	reply, err := h.sender.Send(ctx, cmd)
	if err != nil {
		h.log.Module("web").Warnf("send %q: %v", cmd, err)
		reply = fmt.Sprintf("ERROR contacting server: %v", err)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Sent '%s' -> server responded: %s", cmd, reply)
}

// param returns the first value of key, or def when key is absent. An empty
// value is forwarded as is.
func param(q url.Values, key, def string) string {
	if !q.Has(key) {
		return def
	}
	return q.Get(key)
}
