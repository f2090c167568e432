package tile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultTileExpirationTime        = 20 * time.Second
	DefaultRealityTileExpirationTime = 10 * time.Second
	DefaultTileTreeExpirationTime    = 300 * time.Second
	DefaultSweepInterval             = 250 * time.Millisecond
	DefaultMaxActiveRequests         = 10
	DefaultContentCacheTTL           = 60 * time.Second

	MinTileExpirationTime        = 5 * time.Second
	MinRealityTileExpirationTime = 5 * time.Second
	MinTileTreeExpirationTime    = 10 * time.Second
)

var ErrInvalidProps = errors.New("invalid tile admin props")

// Props configures an Admin.
type Props struct {
	// TileExpirationTime is how long an unused tile keeps its children before they are dropped.
	TileExpirationTime time.Duration
	// RealityTileExpirationTime replaces TileExpirationTime for reality-model trees.
	RealityTileExpirationTime time.Duration
	// TileTreeExpirationTime is how long an undisplayed tree survives before it is disposed.
	TileTreeExpirationTime time.Duration
	// SweepInterval is the minimum time between expiration sweeps.
	SweepInterval time.Duration
	// MaxActiveRequests bounds concurrent content loads.
	MaxActiveRequests int
	// ContentCacheTTL is how long fetched tile bytes stay cached after a load.
	ContentCacheTTL time.Duration
	// IgnoreMinimumExpirationTimes allows expiration times below the minimums. Intended for tests.
	IgnoreMinimumExpirationTimes bool
}

// DefaultProps returns the default admin settings.
func DefaultProps() Props {
	return Props{
		TileExpirationTime:        DefaultTileExpirationTime,
		RealityTileExpirationTime: DefaultRealityTileExpirationTime,
		TileTreeExpirationTime:    DefaultTileTreeExpirationTime,
		SweepInterval:             DefaultSweepInterval,
		MaxActiveRequests:         DefaultMaxActiveRequests,
		ContentCacheTTL:           DefaultContentCacheTTL,
	}
}

// Normalize replaces unset values with defaults and raises expiration times to their minimums
// unless IgnoreMinimumExpirationTimes is set.
func (p Props) Normalize() Props {
	def := DefaultProps()
	if p.TileExpirationTime <= 0 {
		p.TileExpirationTime = def.TileExpirationTime
	}
	if p.RealityTileExpirationTime <= 0 {
		p.RealityTileExpirationTime = def.RealityTileExpirationTime
	}
	if p.TileTreeExpirationTime <= 0 {
		p.TileTreeExpirationTime = def.TileTreeExpirationTime
	}
	if p.SweepInterval <= 0 {
		p.SweepInterval = def.SweepInterval
	}
	if p.MaxActiveRequests <= 0 {
		p.MaxActiveRequests = def.MaxActiveRequests
	}
	if p.ContentCacheTTL <= 0 {
		p.ContentCacheTTL = def.ContentCacheTTL
	}
	if !p.IgnoreMinimumExpirationTimes {
		p.TileExpirationTime = max(p.TileExpirationTime, MinTileExpirationTime)
		p.RealityTileExpirationTime = max(p.RealityTileExpirationTime, MinRealityTileExpirationTime)
		p.TileTreeExpirationTime = max(p.TileTreeExpirationTime, MinTileTreeExpirationTime)
	}
	return p
}

// propsFile is the TOML form of Props. Durations are seconds.
type propsFile struct {
	TileExpirationTime           *float64 `toml:"tile_expiration_time"`
	RealityTileExpirationTime    *float64 `toml:"reality_tile_expiration_time"`
	TileTreeExpirationTime       *float64 `toml:"tile_tree_expiration_time"`
	SweepInterval                *float64 `toml:"sweep_interval"`
	MaxActiveRequests            *int     `toml:"max_active_requests"`
	ContentCacheTTL              *float64 `toml:"content_cache_ttl"`
	IgnoreMinimumExpirationTimes *bool    `toml:"ignore_minimum_expiration_times"`
}

func seconds(d time.Duration) *float64 {
	s := d.Seconds()
	return &s
}

func setDuration(dst *time.Duration, secs *float64) {
	if secs != nil {
		*dst = time.Duration(*secs * float64(time.Second))
	}
}

// ParseProps reads props from TOML. Keys that are absent keep their defaults; unknown keys
// are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Props: the normalized props
//   - error: ErrInvalidProps if the document cannot be decoded
func ParseProps(data []byte) (Props, error) {
	var f propsFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return Props{}, fmt.Errorf("%w: %w", ErrInvalidProps, err)
	}

	p := DefaultProps()
	setDuration(&p.TileExpirationTime, f.TileExpirationTime)
	setDuration(&p.RealityTileExpirationTime, f.RealityTileExpirationTime)
	setDuration(&p.TileTreeExpirationTime, f.TileTreeExpirationTime)
	setDuration(&p.SweepInterval, f.SweepInterval)
	setDuration(&p.ContentCacheTTL, f.ContentCacheTTL)
	if f.MaxActiveRequests != nil {
		p.MaxActiveRequests = *f.MaxActiveRequests
	}
	if f.IgnoreMinimumExpirationTimes != nil {
		p.IgnoreMinimumExpirationTimes = *f.IgnoreMinimumExpirationTimes
	}
	return p.Normalize(), nil
}

// LoadProps reads props from a TOML file.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Props: the normalized props
//   - error: if the file cannot be read or decoded
func LoadProps(path string) (Props, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Props{}, fmt.Errorf("reading tile admin props: %w", err)
	}
	return ParseProps(data)
}

// MarshalTOML encodes the props in the format ParseProps reads.
func (p Props) MarshalTOML() ([]byte, error) {
	maxActive := p.MaxActiveRequests
	ignore := p.IgnoreMinimumExpirationTimes
	return toml.Marshal(propsFile{
		TileExpirationTime:           seconds(p.TileExpirationTime),
		RealityTileExpirationTime:    seconds(p.RealityTileExpirationTime),
		TileTreeExpirationTime:       seconds(p.TileTreeExpirationTime),
		SweepInterval:                seconds(p.SweepInterval),
		MaxActiveRequests:            &maxActive,
		ContentCacheTTL:              seconds(p.ContentCacheTTL),
		IgnoreMinimumExpirationTimes: &ignore,
	})
}
