package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	envPrefix = "TIMETABLE"
)

// Solver names accepted by SOLVER
const (
	SolverBacktracking = "backtracking"
	SolverGini         = "gini"
	SolverKissat       = "kissat"
	SolverCadical      = "cadical"
	SolverMinisat      = "minisat"
)

var Solvers = []string{SolverBacktracking, SolverGini, SolverKissat, SolverCadical, SolverMinisat}

type Config struct {
	Env string

	Grid   GridConfig
	Model  ModelConfig
	Solver SolverConfig
	Log    LogConfig
	HTTP   HTTPConfig
	Store  StoreConfig
	Cache  CacheConfig
}

type GridConfig struct {
	PeriodsPerWeek int
	PeriodsPerDay  int
}

type ModelConfig struct {
	IncludeTeachers bool
	SubjectPolicy   string
}

type SolverConfig struct {
	Name          string
	StepBudget    int
	MatchingCheck bool
	Timeout       time.Duration
	KissatPath    string
	CadicalPath   string
	MinisatPath   string
}

type LogConfig struct {
	Level  string
	Format string
}

type HTTPConfig struct {
	Addr string
}

type StoreConfig struct {
	Path string
}

// CacheConfig selects Redis when RedisAddr is set, an in-process cache otherwise
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// Load reads, from lowest to highest priority: defaults, the optional
// configuration file, .env and the environment (TIMETABLE_ prefix), and the
// changed flags of the given set. Flag "include-teachers" maps to key
// INCLUDE_TEACHERS.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("timetable")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("cannot read configuration: %w", err)
		}
	}

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(flag *pflag.Flag) {
			key := strings.ToUpper(strings.ReplaceAll(flag.Name, "-", "_"))
			if slices.Contains(keys, key) {
				bindErr = errors.Join(bindErr, v.BindPFlag(key, flag))
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	cfg := &Config{
		Env: v.GetString("ENV"),
		Grid: GridConfig{
			PeriodsPerWeek: v.GetInt("PERIODS_PER_WEEK"),
			PeriodsPerDay:  v.GetInt("PERIODS_PER_DAY"),
		},
		Model: ModelConfig{
			IncludeTeachers: v.GetBool("INCLUDE_TEACHERS"),
			SubjectPolicy:   v.GetString("SUBJECT_POLICY"),
		},
		Solver: SolverConfig{
			Name:          strings.ToLower(v.GetString("SOLVER")),
			StepBudget:    v.GetInt("STEP_BUDGET"),
			MatchingCheck: v.GetBool("MATCHING_CHECK"),
			Timeout:       parseDuration(v.GetString("TIMEOUT"), 0),
			KissatPath:    v.GetString("KISSAT_PATH"),
			CadicalPath:   v.GetString("CADICAL_PATH"),
			MinisatPath:   v.GetString("MINISAT_PATH"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		HTTP:  HTTPConfig{Addr: v.GetString("HTTP_ADDR")},
		Store: StoreConfig{Path: v.GetString("DB_PATH")},
		Cache: CacheConfig{
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTL:           parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
		},
	}

	return cfg, cfg.Validate()
}

func (cfg *Config) Validate() error {
	if cfg.Grid.PeriodsPerWeek <= 0 || cfg.Grid.PeriodsPerDay <= 0 {
		return fmt.Errorf("grid shape must be positive: %d periods per week, %d per day", cfg.Grid.PeriodsPerWeek, cfg.Grid.PeriodsPerDay)
	} else if !slices.Contains(Solvers, cfg.Solver.Name) {
		return fmt.Errorf("unknown solver %q (want one of %v)", cfg.Solver.Name, strings.Join(Solvers, ", "))
	} else if cfg.Solver.StepBudget < 0 {
		return fmt.Errorf("step budget cannot be negative: %d", cfg.Solver.StepBudget)
	}
	return nil
}

// keys lists every configuration key so flags can bind to them
var keys = []string{
	"ENV",
	"PERIODS_PER_WEEK", "PERIODS_PER_DAY",
	"INCLUDE_TEACHERS", "SUBJECT_POLICY",
	"SOLVER", "STEP_BUDGET", "MATCHING_CHECK", "TIMEOUT",
	"KISSAT_PATH", "CADICAL_PATH", "MINISAT_PATH",
	"LOG_LEVEL", "LOG_FORMAT",
	"HTTP_ADDR", "DB_PATH",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("PERIODS_PER_WEEK", 20)
	v.SetDefault("PERIODS_PER_DAY", 4)
	v.SetDefault("INCLUDE_TEACHERS", false)
	v.SetDefault("SUBJECT_POLICY", "reject")

	v.SetDefault("SOLVER", SolverBacktracking)
	v.SetDefault("STEP_BUDGET", 0)
	v.SetDefault("MATCHING_CHECK", true)
	v.SetDefault("TIMEOUT", "")
	v.SetDefault("KISSAT_PATH", "kissat")
	v.SetDefault("CADICAL_PATH", "cadical")
	v.SetDefault("MINISAT_PATH", "minisat")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DB_PATH", "timetable.db")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
