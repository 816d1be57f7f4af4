package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"tetrix/logger"
	"tetrix/tetris"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Game   Game   `yaml:"game"`
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`
	Client Client `yaml:"client"`
}

// Game holds the timings in ticks and the playfield size.
type Game struct {
	TickRate       time.Duration `yaml:"tick_rate"`
	FallPeriod     uint64        `yaml:"fall_period"`
	LockDelay      uint64        `yaml:"lock_delay"`
	Columns        int           `yaml:"columns"`
	Rows           int           `yaml:"rows"`
	QueueSize      int           `yaml:"queue_size"`
	BagSize        int           `yaml:"bag_size"`
	LongPressDelay uint32        `yaml:"long_press_delay"`
	RepeatPeriod   uint64        `yaml:"repeat_period"`
}

type Log struct {
	Mode string `yaml:"mode"`
	// File is where the client logs, the terminal belongs to the game.
	File string `yaml:"file"`
}

type Server struct {
	GRPCAddr        string        `yaml:"grpc_addr"`
	HTTPAddr        string        `yaml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Client struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
	NoGhost bool   `yaml:"no_ghost"`
}

func Default() *Config {
	return &Config{
		Game: Game{
			TickRate:       tetris.DefaultSettings.TickRate,
			FallPeriod:     tetris.DefaultSettings.FallPeriod,
			LockDelay:      tetris.DefaultSettings.LockDelay,
			Columns:        10,
			Rows:           20 + tetris.HiddenRows,
			QueueSize:      5,
			BagSize:        7,
			LongPressDelay: 10,
			RepeatPeriod:   5,
		},
		Log: Log{Mode: "dev", File: "tetrix.log"},
		Server: Server{
			GRPCAddr:        ":9000",
			HTTPAddr:        ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Client: Client{Address: "localhost:9000"},
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults, so a file only needs the keys it changes.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	g := c.Game
	switch {
	case g.TickRate <= 0:
		return fmt.Errorf("%w: tick_rate must be positive", ErrInvalid)
	case g.Columns < 4 || g.Columns > 127:
		return fmt.Errorf("%w: columns %d out of 4..127", ErrInvalid, g.Columns)
	case g.Rows < tetris.HiddenRows+4 || g.Rows > 127:
		return fmt.Errorf("%w: rows %d out of %d..127", ErrInvalid, g.Rows, tetris.HiddenRows+4)
	case g.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be at least 1", ErrInvalid)
	case g.BagSize < 1:
		return fmt.Errorf("%w: bag_size must be at least 1", ErrInvalid)
	case g.RepeatPeriod == 0:
		return fmt.Errorf("%w: repeat_period must be positive", ErrInvalid)
	}
	if _, err := logger.ParseMode(c.Log.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: negative shutdown_timeout", ErrInvalid)
	}
	return nil
}

func (c *Config) Settings() tetris.Settings {
	return tetris.Settings{
		TickRate:   c.Game.TickRate,
		FallPeriod: c.Game.FallPeriod,
		LockDelay:  c.Game.LockDelay,
	}
}

// PlayerOptions returns the options of a new player. The config must be valid.
func (c *Config) PlayerOptions(seed uint64) []tetris.Option {
	g := c.Game
	return []tetris.Option{
		tetris.WithSize(g.Columns, g.Rows),
		tetris.WithQueueSize(g.QueueSize),
		tetris.WithBagSize(g.BagSize),
		tetris.WithLongPressDelay(g.LongPressDelay),
		tetris.WithRepeatPeriod(g.RepeatPeriod),
		tetris.WithSeed(seed),
	}
}

func (c *Config) LogMode() logger.Mode {
	m, _ := logger.ParseMode(c.Log.Mode)
	return m
}
