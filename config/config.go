package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"launchpad/logging"
	"launchpad/presale"
	"launchpad/solprogram"
	"launchpad/staking"
)

const EnvPrefix = "LAUNCHPAD_"

type Config struct {
	Api     ApiConfig     `koanf:"api"`
	Store   StoreConfig   `koanf:"store"`
	Solana  SolanaConfig  `koanf:"solana"`
	Presale PresaleConfig `koanf:"presale"`
	Staking StakingConfig `koanf:"staking"`
	Log     LogConfig     `koanf:"log"`
}

type ApiConfig struct {
	Addr string `koanf:"addr"`
	// Faucet exposes POST /api/v1/faucet for local funding
	Faucet bool `koanf:"faucet"`
}

type StoreConfig struct {
	// Driver is memory or sqlite
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

type SolanaConfig struct {
	RpcUrl           string `koanf:"rpc_url"`
	Network          string `koanf:"network"`
	PresaleProgramID string `koanf:"presale_program_id"`
	StakingProgramID string `koanf:"staking_program_id"`
}

type PresaleConfig struct {
	PriceScale  uint64 `koanf:"price_scale"`
	NativePrice uint64 `koanf:"native_price"`
	BurnUnsold  bool   `koanf:"burn_unsold"`
}

type StakingConfig struct {
	RewardRate staking.Rate `koanf:"reward_rate"`
	// LockingPeriod in seconds; 0 lets stakes be withdrawn at any time
	LockingPeriod uint64 `koanf:"locking_period"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default has no reward rate; it must be configured.
func Default() Config {
	return Config{
		Api:   ApiConfig{Addr: ":8080"},
		Store: StoreConfig{Driver: "memory", DSN: "launchpad.db"},
		Solana: SolanaConfig{
			RpcUrl:           solprogram.RPCURLDevnet,
			Network:          "devnet",
			PresaleProgramID: solprogram.PresaleProgramID,
			StakingProgramID: solprogram.StakingProgramID,
		},
		Presale: PresaleConfig{
			PriceScale:  1,
			NativePrice: solprogram.DefaultNativePrice,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func (c Config) PresaleEngineConfig() presale.Config {
	return presale.Config{
		PriceScale:  c.Presale.PriceScale,
		NativePrice: c.Presale.NativePrice,
		BurnUnsold:  c.Presale.BurnUnsold,
	}
}

func (c Config) StakingEngineConfig() staking.Config {
	return staking.Config{
		RewardRate:    c.Staking.RewardRate,
		LockingPeriod: c.Staking.LockingPeriod,
	}
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Presale.PriceScale == 0 {
		return fmt.Errorf("presale.price_scale must be positive")
	}
	if c.Presale.NativePrice == 0 {
		return fmt.Errorf("presale.native_price must be positive")
	}
	if err := c.Staking.RewardRate.Validate(); err != nil {
		return fmt.Errorf("staking.reward_rate: %w", err)
	}
	if err := c.StakingEngineConfig().Validate(); err != nil {
		return fmt.Errorf("staking: %w", err)
	}
	return nil
}

type WriteCloser interface {
	Write([]byte) (int, error)
	Close() error
}

type WriteCloserProvider interface {
	GetWriter() (WriteCloser, error)
}

type ConfigManager struct {
	currentConfig  Config
	KoanProvider   koanf.Provider
	WriterProvider WriteCloserProvider
	mutex          sync.Mutex
}

// LoadConfigManager reads path, or only defaults and env when path is empty.
func LoadConfigManager(path string) (*ConfigManager, error) {
	manager := &ConfigManager{}
	if path != "" {
		manager.KoanProvider = file.Provider(path)
		manager.WriterProvider = NewFileWriteCloserProvider(path)
	}
	if err := manager.Load(); err != nil {
		return nil, err
	}
	return manager, nil
}

func (cm *ConfigManager) Load() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	config, err := readConfig(cm.KoanProvider)
	if err != nil {
		return err
	}
	cm.currentConfig = config
	return nil
}

func (cm *ConfigManager) Write() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	if cm.WriterProvider == nil {
		return fmt.Errorf("no config writer configured")
	}
	writer, err := cm.WriterProvider.GetWriter()
	if err != nil {
		return err
	}
	defer writer.Close()
	return writeConfig(cm.currentConfig, writer)
}

func (cm *ConfigManager) GetConfig() *Config {
	return &cm.currentConfig
}

func (cm *ConfigManager) SetRewardRate(rate staking.Rate) error {
	if err := rate.Validate(); err != nil {
		return err
	}
	cm.mutex.Lock()
	cm.currentConfig.Staking.RewardRate = rate
	cm.mutex.Unlock()
	logging.Info("Setting reward rate", logging.Config, "rate", rate)
	return cm.Write()
}

func readConfig(provider koanf.Provider) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("error loading defaults: %w", err)
	}
	if provider != nil {
		if err := k.Load(provider, yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error loading config: %w", err)
		}
	}
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("error loading env: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return Config{}, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return config, nil
}

func writeConfig(config Config, writer WriteCloser) error {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(config, "koanf"), nil); err != nil {
		logging.Error("error loading config", logging.Config, "error", err)
		return err
	}
	output, err := k.Marshal(yaml.Parser())
	if err != nil {
		logging.Error("error marshalling config", logging.Config, "error", err)
		return err
	}
	if _, err := writer.Write(output); err != nil {
		logging.Error("error writing config", logging.Config, "error", err)
		return err
	}
	return nil
}

type FileWriteCloserProvider struct {
	path string
}

func NewFileWriteCloserProvider(path string) *FileWriteCloserProvider {
	return &FileWriteCloserProvider{path: path}
}

func (f *FileWriteCloserProvider) GetWriter() (WriteCloser, error) {
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening file at %s: %w", f.path, err)
	}
	return file, nil
}
