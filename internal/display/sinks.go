package display

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/randytsao24/trainsign/internal/models"
)

// PNGSink writes every frame to a PNG file, replacing it atomically
type PNGSink struct {
	path string
}

// NewPNGSink creates a sink writing to path
func NewPNGSink(path string) *PNGSink {
	return &PNGSink{path: path}
}

func (s *PNGSink) Name() string { return "png:" + s.path }

// Present encodes frame next to the target and renames it into place
func (s *PNGSink) Present(frame image.Image, _ models.Board) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("creating temp frame: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, frame); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing frame: %w", err)
	}
	return nil
}

// OLEDSink drives an SSD1306 128x64 panel over I2C
type OLEDSink struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
}

// OpenOLED initializes the host drivers and opens the panel on busName
// ("" selects the first available bus)
func OpenOLED(busName string) (*OLEDSink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("opening i2c bus %q: %w", busName, err)
	}

	opts := ssd1306.DefaultOpts
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("opening ssd1306: %w", err)
	}

	return &OLEDSink{bus: bus, dev: dev}, nil
}

func (s *OLEDSink) Name() string { return "ssd1306" }

// Present draws frame onto the panel; the driver reduces it to one bit
func (s *OLEDSink) Present(frame image.Image, _ models.Board) error {
	return s.dev.Draw(s.dev.Bounds(), frame, frame.Bounds().Min)
}

// Close blanks the panel and releases the bus
func (s *OLEDSink) Close() error {
	haltErr := s.dev.Halt()
	if err := s.bus.Close(); err != nil {
		return err
	}
	return haltErr
}
