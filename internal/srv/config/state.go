package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const saveDelay = 10 * time.Second

// ServerState is what the daemon remembers across restarts. Changes are
// written to disk once they settle for saveDelay, or on FlushSave.
type ServerState struct {
	serverStateConfig     ServerStateConfig
	lock                  sync.RWMutex
	backupTimer           *time.Timer
	completeStateFilename string
}

type ServerStateConfig struct {
	Contrast int64          `yaml:"contrast"`
	On       bool           `yaml:"on"`
	Texts    map[int]string `yaml:"texts"`
}

func NewServerState(completeStateFilename string, defaultContrast byte) (*ServerState, error) {
	serverState := &ServerState{
		completeStateFilename: completeStateFilename,
	}

	rawConfig, err := os.ReadFile(completeStateFilename)
	if err == nil {
		if err = yaml.Unmarshal(rawConfig, &serverState.serverStateConfig); err != nil {
			return nil, fmt.Errorf("unable to interpret state file: %w", err)
		}
	} else {
		logrus.Infof("Create default state file")
		serverState.serverStateConfig = ServerStateConfig{Contrast: int64(defaultContrast), On: true}
		serverState.scheduleSave()
	}
	if serverState.serverStateConfig.Texts == nil {
		serverState.serverStateConfig.Texts = make(map[int]string)
	}

	return serverState, nil
}

func (ss *ServerState) Contrast() byte {
	ss.lock.RLock()
	defer ss.lock.RUnlock()
	return byte(ss.serverStateConfig.Contrast)
}

func (ss *ServerState) SetContrast(contrast byte) {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	ss.serverStateConfig.Contrast = int64(contrast)
	ss.scheduleSave()
}

func (ss *ServerState) On() bool {
	ss.lock.RLock()
	defer ss.lock.RUnlock()
	return ss.serverStateConfig.On
}

func (ss *ServerState) SetOn(on bool) {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	ss.serverStateConfig.On = on
	ss.scheduleSave()
}

// Texts returns the last text printed on each tile.
func (ss *ServerState) Texts() map[int]string {
	ss.lock.RLock()
	defer ss.lock.RUnlock()
	texts := make(map[int]string, len(ss.serverStateConfig.Texts))
	for k, v := range ss.serverStateConfig.Texts {
		texts[k] = v
	}
	return texts
}

// SetText remembers text for tile index, an empty text forgets it.
func (ss *ServerState) SetText(index int, text string) {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if text == "" {
		delete(ss.serverStateConfig.Texts, index)
	} else {
		ss.serverStateConfig.Texts[index] = text
	}
	ss.scheduleSave()
}

func (ss *ServerState) scheduleSave() {
	if ss.backupTimer == nil {
		ss.backupTimer = time.AfterFunc(saveDelay, func() {
			ss.lock.Lock()
			defer ss.lock.Unlock()
			ss.save()
		})
	} else {
		ss.backupTimer.Reset(saveDelay)
	}
}

func (ss *ServerState) save() {
	logrus.Infof("Save state file: %s", ss.completeStateFilename)
	rawConfig, err := yaml.Marshal(&ss.serverStateConfig)
	if err != nil {
		logrus.Errorf("Unable to serialize state file: %v", err)
		return
	}
	if err = os.WriteFile(ss.completeStateFilename, rawConfig, 0660); err != nil {
		logrus.Errorf("Unable to save state file: %v", err)
	}
}

// FlushSave writes a pending change now.
func (ss *ServerState) FlushSave() {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer != nil {
		if ss.backupTimer.Stop() {
			ss.save()
		}
	}
}
