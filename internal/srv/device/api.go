package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jypelle/oledtile/apimodel"
	"github.com/jypelle/oledtile/internal/font"
	"github.com/jypelle/oledtile/internal/icon"
	"github.com/jypelle/oledtile/internal/screen"
	"github.com/jypelle/oledtile/internal/srv/config"
	"github.com/jypelle/oledtile/internal/srv/event"
	"github.com/jypelle/oledtile/internal/tool"
	"github.com/sirupsen/logrus"
)

const maxIconSize = 1 << 20

type Api struct {
	eventChannel chan event.ApiEvent

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config *config.ServerConfig
}

func NewApi(config *config.ServerConfig) *Api {
	api := Api{
		config:       config,
		eventChannel: make(chan event.ApiEvent),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						ErrorMessageAction(w, fmt.Sprintf("%v", rec), http.StatusInternalServerError)
					}
				}()

				// Check API Key
				if r.Header.Get("x-api-key") != config.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s %s", r.Method, r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")

	api.apiRouter.HandleFunc("/layout",
		func(w http.ResponseWriter, r *http.Request) {
			var layout apimodel.Layout
			if err := api.send(event.ApiEventLayoutData{Layout: &layout}); err != nil {
				ErrorAction(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(&layout)
		}).Methods("GET")

	api.apiRouter.HandleFunc("/snapshot",
		func(w http.ResponseWriter, r *http.Request) {
			var buf bytes.Buffer
			if err := api.send(event.ApiEventSnapshotData{Png: &buf}); err != nil {
				ErrorAction(w, err)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.Write(buf.Bytes())
		}).Methods("GET")

	api.apiRouter.HandleFunc("/tile/{index}/text",
		func(w http.ResponseWriter, r *http.Request) {
			index, ok := tileIndex(w, r)
			if !ok {
				return
			}
			var request apimodel.TextRequest
			if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
				ErrorMessageAction(w, "unable to parse text request", http.StatusBadRequest)
				return
			}
			api.reply(w, r, event.ApiEventTileTextData{Index: index, Text: request.Text, Font: request.Font})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/tile/{index}/clear",
		func(w http.ResponseWriter, r *http.Request) {
			index, ok := tileIndex(w, r)
			if !ok {
				return
			}
			api.reply(w, r, event.ApiEventTileClearData{Index: index})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/tile/{index}/icon",
		func(w http.ResponseWriter, r *http.Request) {
			index, ok := tileIndex(w, r)
			if !ok {
				return
			}
			data, err := io.ReadAll(io.LimitReader(r.Body, maxIconSize))
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.reply(w, r, event.ApiEventTileIconData{Index: index, Icon: data})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/display/{state:on|off}",
		func(w http.ResponseWriter, r *http.Request) {
			api.reply(w, r, event.ApiEventDisplayPowerData{On: mux.Vars(r)["state"] == "on"})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/display/invert/{state:on|off}",
		func(w http.ResponseWriter, r *http.Request) {
			api.reply(w, r, event.ApiEventDisplayInvertData{Inverted: mux.Vars(r)["state"] == "on"})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/display/contrast/{contrast}",
		func(w http.ResponseWriter, r *http.Request) {
			contrast, err := strconv.ParseUint(mux.Vars(r)["contrast"], 10, 8)
			if err != nil {
				ErrorMessageAction(w, "contrast must be between 0 and 255", http.StatusBadRequest)
				return
			}
			api.reply(w, r, event.ApiEventDisplayContrastData{Contrast: byte(contrast)})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/flush",
		func(w http.ResponseWriter, r *http.Request) {
			force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
			api.reply(w, r, event.ApiEventFlushData{Force: force})
		}).Methods("POST")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Api-Key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ApiParam.SslPort, 10),
		Handler:      api.Handler(handlers.CORS(originsOk, headersOk, methodsOk)),
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

// Handler returns the routes wrapped in compression and the given
// middlewares.
func (d *Api) Handler(middlewares ...func(http.Handler) http.Handler) http.Handler {
	var h http.Handler = d.router
	for _, m := range middlewares {
		h = m(h)
	}
	return handlers.CompressHandler(h)
}

// send hands data to the event loop and waits for its answer.
func (d *Api) send(data interface{}) error {
	result := make(chan error)
	d.eventChannel <- event.ApiEvent{Result: result, Data: data}
	return <-result
}

func (d *Api) reply(w http.ResponseWriter, r *http.Request, data interface{}) {
	if err := d.send(data); err != nil {
		ErrorAction(w, err)
		return
	}
	ErrorStatusAction(w, r, http.StatusOK)
}

func tileIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		ErrorMessageAction(w, "tile index must be a number", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func (d *Api) Start() error {
	logrus.Infof("Start api device")

	if err := tool.EnsureTlsCertificate(
		"oledtile",
		"oledtile server",
		d.config.GetCompleteKeyFilename(),
		d.config.GetCompleteCertFilename(),
		[]string{}); err != nil {
		return fmt.Errorf("unable to prepare cert and key files: %w", err)
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.config.GetCompleteCertFilename(), d.config.GetCompleteKeyFilename())
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Error(err)
		}
	}()
	return nil
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.server.Shutdown(ctx)
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

// StatusOf maps an event loop error to an HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, screen.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, screen.ErrColumnOverflow),
		errors.Is(err, screen.ErrGlyphTooTall),
		errors.Is(err, screen.ErrGlyphNotFound),
		errors.Is(err, screen.ErrEmptyContent),
		errors.Is(err, font.ErrUnknownFont),
		errors.Is(err, icon.ErrSize),
		errors.Is(err, icon.ErrNotSVG),
		errors.Is(err, image.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, screen.ErrFlushFailed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func ErrorAction(w http.ResponseWriter, err error) {
	ErrorMessageAction(w, err.Error(), StatusOf(err))
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func ErrorMessageAction(w http.ResponseWriter, message string, status int) {
	apimodel.NewErrorMessage(status, message).Send(w)
}
