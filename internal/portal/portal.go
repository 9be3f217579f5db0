// Package portal is the interactive provisioning surface: a local web form
// mirroring the persisted configuration, entered only when automatic
// connection is impossible, bounded by a fixed timeout.
package portal

import (
	"context"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ccarrizosa/EspSensor/internal/devconfig"
	"github.com/ccarrizosa/EspSensor/internal/errors"
	"github.com/ccarrizosa/EspSensor/internal/firmware"
	"github.com/ccarrizosa/EspSensor/internal/logger"
)

const (
	ErrUnavailable = errors.ErrorCode("portal_unavailable")
	ErrTimeout     = errors.ErrorCode("portal_timeout")
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownGrace     = 2 * time.Second
)

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{if .Error}}<p><b>{{.Error}}</b></p>{{end}}
<form method="POST" action="/save">
<label>mqtt server <input name="mqtt_server" maxlength="{{.FieldCap}}" value="{{.Config.Server}}"></label><br>
<label>mqtt user <input name="mqtt_user" maxlength="{{.FieldCap}}" value="{{.Config.User}}"></label><br>
<label>mqtt password <input name="mqtt_password" type="password" maxlength="{{.FieldCap}}" value="{{.Config.Password}}"></label><br>
<label>mqtt port <input name="mqtt_port" maxlength="{{.PortCap}}" value="{{.Config.Port}}"></label><br>
<label>mqtt topic <input name="mqtt_topic" maxlength="{{.FieldCap}}" value="{{.Config.Topic}}"></label><br>
<button type="submit">save</button>
</form>
</body>
</html>
`))

type formData struct {
	Title    string
	Error    string
	Config   devconfig.Config
	FieldCap int
	PortCap  int
}

// Portal serves the provisioning form on a local listen address.
type Portal struct {
	listenAddr string

	mu    sync.Mutex
	bound string
}

func New(listenAddr string) *Portal {
	return &Portal{listenAddr: listenAddr}
}

// Addr returns the bound listen address once Run is serving, or "".
func (p *Portal) Addr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bound
}

// Run serves the form prefilled with seed and blocks until a valid
// configuration is saved or the timeout (or ctx) expires. The saved
// configuration is returned; persisting it is the caller's concern.
func (p *Portal) Run(ctx context.Context, seed devconfig.Config, timeout time.Duration) (devconfig.Config, error) {
	errFactory := errors.New()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	listener, err := net.Listen("tcp", p.listenAddr)
	if err != nil {
		return devconfig.Config{}, errFactory.Wrap(ErrUnavailable, err)
	}

	p.mu.Lock()
	p.bound = listener.Addr().String()
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.bound = ""
		p.mu.Unlock()
	}()

	saved := make(chan devconfig.Config, 1)
	var once sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		p.render(w, http.StatusOK, formData{
			Title:    firmware.Name + " setup",
			Config:   seed,
			FieldCap: devconfig.FieldCapacity,
			PortCap:  devconfig.PortCapacity,
		})
	})
	mux.HandleFunc("/save", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		cfg := devconfig.Config{
			Server:   r.PostFormValue("mqtt_server"),
			User:     r.PostFormValue("mqtt_user"),
			Password: r.PostFormValue("mqtt_password"),
			Port:     r.PostFormValue("mqtt_port"),
			Topic:    r.PostFormValue("mqtt_topic"),
		}
		if err := cfg.Validate(); err != nil {
			p.render(w, http.StatusUnprocessableEntity, formData{
				Title:    firmware.Name + " setup",
				Error:    err.Error(),
				Config:   cfg,
				FieldCap: devconfig.FieldCapacity,
				PortCap:  devconfig.PortCapacity,
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("saved, device going back to work\n"))
		once.Do(func() { saved <- cfg })
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Warn().Err(err).Msg("Provisioning portal stopped")
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("address", p.Addr()).Msg("Provisioning portal waiting for configuration")

	select {
	case cfg := <-saved:
		return cfg, nil
	case <-ctx.Done():
		return devconfig.Config{}, errFactory.Wrap(ErrTimeout, ctx.Err())
	}
}

func (p *Portal) render(w http.ResponseWriter, status int, data formData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := formTemplate.Execute(w, data); err != nil {
		logger.Warn().Err(err).Msg("Failed to render provisioning form")
	}
}
