package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)

	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, GridConfig{PeriodsPerWeek: 20, PeriodsPerDay: 4}, cfg.Grid)
	assert.Equal(t, ModelConfig{IncludeTeachers: false, SubjectPolicy: "reject"}, cfg.Model)
	assert.Equal(t, SolverBacktracking, cfg.Solver.Name)
	assert.True(t, cfg.Solver.MatchingCheck)
	assert.Zero(t, cfg.Solver.StepBudget)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Empty(t, cfg.Cache.RedisAddr)
}

func TestLoadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TIMETABLE_PERIODS_PER_WEEK", "30")
	t.Setenv("TIMETABLE_INCLUDE_TEACHERS", "true")
	t.Setenv("TIMETABLE_SOLVER", "GINI")
	t.Setenv("TIMETABLE_CACHE_TTL", "1m")

	cfg, err := Load("", nil)

	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Grid.PeriodsPerWeek)
	assert.True(t, cfg.Model.IncludeTeachers)
	assert.Equal(t, SolverGini, cfg.Solver.Name)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestLoadFileAndFlags(t *testing.T) {
	//** Arrange
	dir := t.TempDir()
	t.Chdir(dir)
	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("PERIODS_PER_DAY: 5\nSTEP_BUDGET: 100\nSOLVER: kissat\n"), 0o644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("solver", "", "")
	flags.Int("step-budget", 0, "")
	flags.Bool("include-teachers", false, "")
	flags.Int("count", 1, "")
	require.NoError(t, flags.Parse([]string{"--solver", "minisat", "--include-teachers"}))

	//** Act
	cfg, err := Load(file, flags)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Grid.PeriodsPerDay)
	assert.Equal(t, 100, cfg.Solver.StepBudget)
	assert.Equal(t, SolverMinisat, cfg.Solver.Name)
	assert.True(t, cfg.Model.IncludeTeachers)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{Grid: GridConfig{PeriodsPerWeek: 20, PeriodsPerDay: 4}, Solver: SolverConfig{Name: SolverBacktracking}}
	assert.NoError(t, valid.Validate())

	badGrid := valid
	badGrid.Grid.PeriodsPerDay = 0
	assert.Error(t, badGrid.Validate())

	badSolver := valid
	badSolver.Solver.Name = "z3"
	assert.Error(t, badSolver.Validate())

	badBudget := valid
	badBudget.Solver.StepBudget = -1
	assert.Error(t, badBudget.Validate())
}
