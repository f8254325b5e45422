package rig

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var hostInit = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// i2cBus opens an I2C bus by name once. An empty name opens the first bus.
func (r *Rig) i2cBus(name string) (i2c.Bus, error) {
	if b, ok := r.i2c[name]; ok {
		return b, nil
	}
	if err := hostInit(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	r.i2c[name] = b
	r.onClose(b.Close)
	r.logger.Info("i2c bus opened", "bus", b.String())
	return b, nil
}
