package srv

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/jypelle/oledtile/internal/protocol"
	"github.com/jypelle/oledtile/internal/sim"
	"github.com/jypelle/oledtile/internal/srv/config"
	"github.com/sirupsen/logrus"
)

// SimulatorApp emulates the configured panel for a daemon whose display
// link is udp.
type SimulatorApp struct {
	*config.ServerConfig
	panel  *sim.Panel
	server *sim.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSimulatorApp(configDir string, debugMode bool) *SimulatorApp {
	serverConfig := config.NewServerConfig(configDir, debugMode)
	panel := sim.NewPanel(
		protocol.NewSSD1306Table(),
		byte(serverConfig.DisplayParam.Address),
		serverConfig.DisplayParam.Pages,
		serverConfig.DisplayParam.Columns)
	return &SimulatorApp{
		ServerConfig: serverConfig,
		panel:        panel,
		server:       sim.NewServer(panel),
	}
}

func (s *SimulatorApp) Start() {
	logrus.Printf("Starting oledtile simulator ...")

	if err := s.server.Listen(s.SimulatorParam.Listen); err != nil {
		logrus.Fatalf("Unable to listen: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(ctx); err != nil {
			logrus.Errorf("Simulator stopped: %v", err)
		}
	}()

	refresh := time.Duration(s.SimulatorParam.RefreshMs) * time.Millisecond
	if refresh <= 0 {
		refresh = 50 * time.Millisecond
	}
	if s.SimulatorParam.Console {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sim.Console(ctx, os.Stdout, s.panel, refresh)
		}()
	}
	if s.SimulatorParam.Window {
		go func() {
			err := sim.Window(ctx, s.panel, refresh)
			if errors.Is(err, sim.ErrNoWindow) {
				logrus.Warn(err)
			} else if err != nil {
				logrus.Errorf("Simulation window: %v", err)
			}
		}()
	}
}

func (s *SimulatorApp) Stop() {
	logrus.Printf("Stopping oledtile simulator ...")
	s.cancel()
	s.wg.Wait()
	s.ServerConfig.ServerState.FlushSave()
	logrus.Printf("Simulator stopped")
}
