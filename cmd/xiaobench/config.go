//go:build linux && !baremetal

package main

import (
	"encoding/json"
	"errors"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"xiaosense-go/hal/platform"
	"xiaosense-go/types"
)

// benchConfig is the on-disk config. Fields left out keep their defaults.
type benchConfig struct {
	Board types.BoardConfig     `json:"board"`
	Bench platform.LinuxOptions `json:"bench"`
}

func defaultConfig() benchConfig {
	return benchConfig{Board: types.XiaoSense()}
}

func loadConfig(path string) (benchConfig, error) {
	c := defaultConfig()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("config file %s does not exist, using default config", path)
		return c, nil
	}
	if err != nil {
		return c, pkgerrors.Wrapf(err, "failed to read config %s", path)
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, pkgerrors.Wrapf(err, "failed to parse config %s", path)
	}
	return c, nil
}
