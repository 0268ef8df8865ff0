package srv

import (
	"fmt"
	"os/exec"
	"time"

	"github.com/jypelle/oledtile/internal/font"
	"github.com/jypelle/oledtile/internal/images"
	"github.com/jypelle/oledtile/internal/screen"
	"github.com/jypelle/oledtile/internal/srv/config"
	"github.com/jypelle/oledtile/internal/srv/device"
	"github.com/jypelle/oledtile/internal/version"
	"github.com/sirupsen/logrus"
)

const splashDuration = 2 * time.Second

type ServerApp struct {
	*config.ServerConfig
	displayDevice *device.Display
	clockDevice   *device.Clock
	buttonsDevice *device.Buttons
	apiDevice     *device.Api

	layout    *screen.Layout
	printer   *screen.Printer
	font      font.Font
	clockFont font.Font

	eventLoopAskDone chan bool
	eventLoopDone    chan bool
}

func NewServerApp(configDir string, debugMode bool) *ServerApp {
	logrus.Debugf("Creation of oledtile server %s ...", version.AppVersion.String())

	serverConfig := config.NewServerConfig(configDir, debugMode)
	app, err := newServerApp(serverConfig, device.NewDisplay(serverConfig.DisplayParam))
	if err != nil {
		logrus.Fatalf("Unable to create server: %v\n", err)
	}

	app.clockDevice = device.NewClock(app.ClockParam)
	app.buttonsDevice = device.NewButtons(app.ButtonsParam)
	app.apiDevice = device.NewApi(app.ServerConfig)

	logrus.Debugln("Server created")

	return app
}

// newServerApp builds the layout and printer described by the param file.
func newServerApp(serverConfig *config.ServerConfig, display *device.Display) (*ServerApp, error) {
	app := &ServerApp{
		ServerConfig:     serverConfig,
		displayDevice:    display,
		eventLoopAskDone: make(chan bool),
		eventLoopDone:    make(chan bool),
	}

	var err error
	app.layout, err = screen.NewLayout(app.DisplayParam.Pages, app.DisplayParam.Columns)
	if err != nil {
		return nil, err
	}
	for i, t := range app.LayoutParam.Tiles {
		if _, err = app.layout.AddTile(t.StartPage, t.StartColumn, t.EndPage, t.EndColumn); err != nil {
			return nil, fmt.Errorf("tile %d (%s): %w", i, t.Name, err)
		}
	}
	logrus.Debugf("%v", app.layout)

	app.printer = screen.NewPrinter(app.layout, app.PrinterParam.Truncate)
	app.printer.Strict = app.PrinterParam.Strict
	if app.font, err = font.ByName(app.PrinterParam.Font); err != nil {
		return nil, err
	}
	if app.clockFont, err = font.ByName(app.ClockParam.Font); err != nil {
		app.clockFont = app.font
	}
	return app, nil
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting oledtile server ...")

	logrus.Printf("Starting devices ...")

	if err := s.displayDevice.Start(s.On(), s.Contrast()); err != nil {
		logrus.Fatalf("Unable to start display: %v\n", err)
	}

	// Startup screen
	s.layout.Clear(s.displayDevice.Sink())
	if err := s.drawIcon(0, images.SplashSvg); err != nil {
		logrus.Warnf("Unable to show splash screen: %v", err)
	} else {
		time.Sleep(splashDuration)
		s.hideSplash()
	}
	s.restoreTexts()

	// Start event loop
	go s.eventLoop()

	if s.ClockParam.Enabled {
		s.clockDevice.Start()
	}

	if err := s.buttonsDevice.Start(); err != nil {
		logrus.Fatalf("Unable to start buttons: %v\n", err)
	}

	if s.ApiParam.Enabled {
		if err := s.apiDevice.Start(); err != nil {
			logrus.Fatalf("Unable to start api: %v\n", err)
		}
	}
}

func (s *ServerApp) Stop(halt bool) {
	logrus.Printf("Stopping oledtile server ...")

	if s.ApiParam.Enabled {
		s.apiDevice.StopSendingEvent()
	}
	s.buttonsDevice.StopSendingEvent()
	if s.ClockParam.Enabled {
		s.clockDevice.StopSendingEvent()
	}

	// Stop event loop
	logrus.Infof("Stop event loop")
	s.eventLoopAskDone <- true
	<-s.eventLoopDone

	// Leave a blank panel behind
	if !s.layout.Clear(s.displayDevice.Sink()) {
		logrus.Warnf("Unable to clear the display")
	}

	s.displayDevice.Stop()

	// Flush state backup
	s.ServerConfig.ServerState.FlushSave()

	logrus.Printf("Server stopped")

	if halt {
		logrus.Printf("System halt")
		if err := exec.Command("sudo", "halt").Run(); err != nil {
			logrus.Panicf("Unable to halt the system: %v", err)
		}
	}
}
