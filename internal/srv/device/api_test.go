package device

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jypelle/oledtile/apimodel"
	"github.com/jypelle/oledtile/internal/screen"
	"github.com/jypelle/oledtile/internal/srv/config"
	"github.com/jypelle/oledtile/internal/srv/event"
)

const testApiKey = "secret"

// newTestApi answers every event with answer and records what it got.
func newTestApi(t *testing.T, answer func(ev event.ApiEvent) error) (*Api, *[]interface{}) {
	t.Helper()
	api := NewApi(&config.ServerConfig{ServerParam: &config.ServerParam{ApiParam: config.ApiParam{ApiKey: testApiKey}}})
	var received []interface{}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev := <-api.EventChannel():
				received = append(received, ev.Data)
				ev.Result <- answer(ev)
			case <-done:
				return
			}
		}
	}()
	t.Cleanup(func() { close(done) })
	return api, &received
}

func do(api *Api, method, path string, body []byte, key string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, bytes.NewReader(body))
	r.Header.Set("x-api-key", key)
	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, r)
	return w
}

func TestApiRoutes(t *testing.T) {
	api, received := newTestApi(t, func(event.ApiEvent) error { return nil })

	tests := []struct {
		method string
		path   string
		body   string
		want   interface{}
	}{
		{"POST", "/api/tile/2/text", `{"text":"hello","font":"tiny"}`, event.ApiEventTileTextData{Index: 2, Text: "hello", Font: "tiny"}},
		{"POST", "/api/tile/1/clear", "", event.ApiEventTileClearData{Index: 1}},
		{"POST", "/api/display/off", "", event.ApiEventDisplayPowerData{On: false}},
		{"POST", "/api/display/on", "", event.ApiEventDisplayPowerData{On: true}},
		{"POST", "/api/display/contrast/12", "", event.ApiEventDisplayContrastData{Contrast: 12}},
		{"POST", "/api/display/invert/on", "", event.ApiEventDisplayInvertData{Inverted: true}},
		{"POST", "/api/display/invert/off", "", event.ApiEventDisplayInvertData{Inverted: false}},
		{"POST", "/api/flush?force=true", "", event.ApiEventFlushData{Force: true}},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			*received = nil
			w := do(api, tt.method, tt.path, []byte(tt.body), testApiKey)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", w.Code, w.Body)
			}
			if len(*received) != 1 || fmt.Sprint((*received)[0]) != fmt.Sprint(tt.want) {
				t.Errorf("events = %+v, want %+v", *received, tt.want)
			}
		})
	}
}

func TestApiIcon(t *testing.T) {
	api, received := newTestApi(t, func(event.ApiEvent) error { return nil })
	svg := []byte(`<svg viewBox="0 0 1 1"></svg>`)
	if w := do(api, "POST", "/api/tile/0/icon", svg, testApiKey); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	data, ok := (*received)[0].(event.ApiEventTileIconData)
	if !ok || data.Index != 0 || !bytes.Equal(data.Icon, svg) {
		t.Errorf("event = %+v", (*received)[0])
	}
}

func TestApiLayout(t *testing.T) {
	api, _ := newTestApi(t, func(ev event.ApiEvent) error {
		data := ev.Data.(event.ApiEventLayoutData)
		*data.Layout = apimodel.Layout{Pages: 4, Columns: 128, Tiles: []apimodel.Tile{{Index: 0, Name: "clock", EndPage: 1, EndColumn: 63}}}
		return nil
	})
	w := do(api, "GET", "/api/layout", nil, testApiKey)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var layout apimodel.Layout
	if err := json.NewDecoder(w.Body).Decode(&layout); err != nil {
		t.Fatal(err)
	}
	if layout.Pages != 4 || len(layout.Tiles) != 1 || layout.Tiles[0].Name != "clock" {
		t.Errorf("layout = %+v", layout)
	}
}

func TestApiErrors(t *testing.T) {
	api, received := newTestApi(t, func(ev event.ApiEvent) error {
		switch ev.Data.(type) {
		case event.ApiEventTileClearData:
			return fmt.Errorf("%w: tile 9", screen.ErrIndexOutOfRange)
		case event.ApiEventTileTextData:
			return fmt.Errorf("%w: 300 columns", screen.ErrColumnOverflow)
		case event.ApiEventFlushData:
			return screen.ErrFlushFailed
		}
		return nil
	})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		key    string
		want   int
	}{
		{"wrong key", "GET", "/api/is_alive", "", "nope", http.StatusForbidden},
		{"alive", "GET", "/api/is_alive", "", testApiKey, http.StatusOK},
		{"unknown route", "GET", "/api/nothing", "", testApiKey, http.StatusNotFound},
		{"wrong method", "GET", "/api/flush", "", testApiKey, http.StatusMethodNotAllowed},
		{"bad index", "POST", "/api/tile/x/clear", "", testApiKey, http.StatusBadRequest},
		{"bad contrast", "POST", "/api/display/contrast/256", "", testApiKey, http.StatusBadRequest},
		{"bad json", "POST", "/api/tile/0/text", "{", testApiKey, http.StatusBadRequest},
		{"missing tile", "POST", "/api/tile/9/clear", "", testApiKey, http.StatusNotFound},
		{"overflow", "POST", "/api/tile/0/text", `{"text":"long"}`, testApiKey, http.StatusBadRequest},
		{"flush failed", "POST", "/api/flush", "", testApiKey, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(api, tt.method, tt.path, []byte(tt.body), tt.key)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body)
			}
			var msg apimodel.ErrorMessage
			if err := json.NewDecoder(w.Body).Decode(&msg); err != nil || msg.ErrStatusCode != tt.want {
				t.Errorf("body = %+v, %v", msg, err)
			}
		})
	}
	_ = received
}
