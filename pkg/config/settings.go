package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"curvedex/internal/amm"
	"curvedex/internal/engine"
	"curvedex/internal/middleware"
	solanautil "curvedex/pkg/solana"
)

// EnvPrefix prefixes every settings environment variable, e.g. CURVEDEX_PORT
// or CURVEDEX_RATE_LIMIT_BURST.
const EnvPrefix = "CURVEDEX"

type RateLimitSettings struct {
	RequestsPerSecond float64       `mapstructure:"rps"`
	Burst             int           `mapstructure:"burst"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl"`
}

type KeeperSettings struct {
	Schedule         string `mapstructure:"schedule"`
	StatsSchedule    string `mapstructure:"stats_schedule"`
	KeystoreDir      string `mapstructure:"keystore_dir"`
	Operator         string `mapstructure:"operator"`
	OperatorPassword string `mapstructure:"operator_password"`
}

// Settings is everything the binaries read at startup.
type Settings struct {
	Port          string            `mapstructure:"port"`
	LogLevel      string            `mapstructure:"log_level"`
	Store         string            `mapstructure:"store"`
	SolanaRPC     string            `mapstructure:"solana_rpc"`
	MigrationsDir string            `mapstructure:"migrations_dir"`
	RateLimit     RateLimitSettings `mapstructure:"rate_limit"`
	Keeper        KeeperSettings    `mapstructure:"keeper"`

	SwapFeeRate   uint64 `mapstructure:"swap_fee_rate"`
	LaunchFeeRate uint64 `mapstructure:"launch_fee_rate"`
	FeeRecipient0 string `mapstructure:"fee_recipient_0"`
	FeeRecipient1 string `mapstructure:"fee_recipient_1"`

	DexProgram      string `mapstructure:"dex_program"`
	CpmmProgram     string `mapstructure:"cpmm_program"`
	CpmmConfigIndex uint16 `mapstructure:"cpmm_config_index"`
	LpDecimals      uint8  `mapstructure:"lp_decimals"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("store", "postgres")
	v.SetDefault("solana_rpc", "")
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("rate_limit.rps", 20.0)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.idle_ttl", 10*time.Minute)
	v.SetDefault("keeper.schedule", "*/30 * * * * *")
	v.SetDefault("keeper.stats_schedule", "*/10 * * * * *")
	v.SetDefault("keeper.keystore_dir", "keystore")
	v.SetDefault("keeper.operator", "")
	v.SetDefault("keeper.operator_password", "")
	v.SetDefault("swap_fee_rate", 10_000)
	v.SetDefault("launch_fee_rate", 20_000)
	v.SetDefault("fee_recipient_0", "")
	v.SetDefault("fee_recipient_1", "")
	v.SetDefault("dex_program", solanautil.DEX_PROGRAM.String())
	v.SetDefault("cpmm_program", solanautil.CREATE_CPMM_POOL_PROGRAM.String())
	v.SetDefault("cpmm_config_index", 0)
	v.SetDefault("lp_decimals", 9)
}

// LoadSettings reads defaults, then file when given, then CURVEDEX_*
// environment variables.
func LoadSettings(file string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", file, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if s.Store != "postgres" && s.Store != "memory" {
		return nil, fmt.Errorf("unknown store %q", s.Store)
	}
	return &s, nil
}

// ApplyLogLevel sets the logrus level, keeping the current one when the
// setting does not parse.
func (s *Settings) ApplyLogLevel() {
	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		log.WithField("log_level", s.LogLevel).Warn("Unknown log level")
		return
	}
	log.SetLevel(level)
}

func (s *Settings) FeeRecipients() [2]string {
	return [2]string{s.FeeRecipient0, s.FeeRecipient1}
}

// EngineOptions builds the engine options, validating program ids.
func (s *Settings) EngineOptions() (engine.Options, error) {
	opts := engine.DefaultOptions()
	dexProgram, err := solana.PublicKeyFromBase58(s.DexProgram)
	if err != nil {
		return opts, fmt.Errorf("dex_program: %w", err)
	}
	cpmmProgram, err := solana.PublicKeyFromBase58(s.CpmmProgram)
	if err != nil {
		return opts, fmt.Errorf("cpmm_program: %w", err)
	}
	opts.DexProgram = dexProgram
	opts.AMM = amm.Options{
		ProgramID:   cpmmProgram,
		ConfigIndex: s.CpmmConfigIndex,
		LpDecimals:  s.LpDecimals,
	}
	opts.FeeRecipients = s.FeeRecipients()
	return opts, nil
}

func (s *Settings) RateLimiter() middleware.RateLimiterConfig {
	return middleware.RateLimiterConfig{
		RequestsPerSecond: s.RateLimit.RequestsPerSecond,
		Burst:             s.RateLimit.Burst,
		IdleTTL:           s.RateLimit.IdleTTL,
	}
}
