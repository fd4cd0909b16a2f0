// Package preflight runs environment and data checks before serving or
// editing orders.
package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robertguss/factorydesk/internal/config"
	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/storage"
	"github.com/robertguss/factorydesk/internal/theme"
)

// Check names
const (
	CheckDataDir   = "Data Directory"
	CheckStore     = "Order Store"
	CheckIntegrity = "Order Integrity"
	CheckTheme     = "Theme"
)

// integrityScanLimit bounds how many orders the integrity check reads
const integrityScanLimit = 100000

// CheckResult represents the result of a single pre-flight check
type CheckResult struct {
	Name    string
	Passed  bool
	Warning bool // a failed warning does not block
	Message string
	Error   string
}

// Results holds all pre-flight check results
type Results struct {
	Checks  []CheckResult
	AllPass bool
}

// RunAll executes all pre-flight checks against the configured store
func RunAll(ctx context.Context, cfg *config.Config, store storage.Storage) *Results {
	results := &Results{
		Checks:  make([]CheckResult, 0),
		AllPass: true,
	}

	results.addCheck(checkDataDir(cfg))
	results.addCheck(checkStore(ctx, cfg, store))
	results.addCheck(checkIntegrity(ctx, store))
	results.addCheck(checkTheme(cfg))

	return results
}

// addCheck adds a check result and updates AllPass
func (r *Results) addCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	if !check.Passed && !check.Warning {
		r.AllPass = false
	}
}

// PassedCount returns the number of passed checks
func (r *Results) PassedCount() int {
	count := 0
	for _, check := range r.Checks {
		if check.Passed {
			count++
		}
	}
	return count
}

// FailedChecks returns only the failed checks
func (r *Results) FailedChecks() []CheckResult {
	failed := make([]CheckResult, 0)
	for _, check := range r.Checks {
		if !check.Passed {
			failed = append(failed, check)
		}
	}
	return failed
}

// checkDataDir verifies the data directory exists and accepts writes
func checkDataDir(cfg *config.Config) CheckResult {
	result := CheckResult{Name: CheckDataDir}

	info, err := os.Stat(cfg.DataDir)
	if os.IsNotExist(err) {
		result.Error = fmt.Sprintf("Directory not found: %s", cfg.DataDir)
		return result
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if !info.IsDir() {
		result.Error = fmt.Sprintf("Not a directory: %s", cfg.DataDir)
		return result
	}

	probe, err := os.CreateTemp(cfg.DataDir, ".preflight-*")
	if err != nil {
		result.Error = fmt.Sprintf("Not writable: %v", err)
		return result
	}
	probe.Close()
	os.Remove(probe.Name())

	result.Passed = true
	result.Message = cfg.DataDir
	return result
}

// checkStore verifies the store answers queries
func checkStore(ctx context.Context, cfg *config.Config, store storage.Storage) CheckResult {
	result := CheckResult{Name: CheckStore}

	stats, err := store.GetStats(ctx)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("%s at %s, %d orders", cfg.StoreDriver, filepath.Base(cfg.StorePath()), stats.TotalOrders)
	return result
}

// checkIntegrity flags orders whose stored progress disagrees with the
// pipeline rules (warning only, the core tolerates them)
func checkIntegrity(ctx context.Context, store storage.Storage) CheckResult {
	result := CheckResult{Name: CheckIntegrity, Warning: true}

	orders, err := store.ListOrders(ctx, &storage.OrderFilter{Limit: integrityScanLimit})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	var bad []string
	for _, o := range orders {
		if problem := Inspect(o); problem != "" {
			bad = append(bad, fmt.Sprintf("%s: %s", o.ID, problem))
		}
	}

	if len(bad) > 0 {
		result.Error = fmt.Sprintf("%d orders need attention (first: %s)", len(bad), bad[0])
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("%d orders consistent", len(orders))
	return result
}

// Inspect describes the first inconsistency in an order's progress, or
// returns "" when there is none
func Inspect(o *domain.Order) string {
	switch {
	case !o.CompletedStages.Has(1):
		return "received stage not completed"
	case !o.CompletedStages.IsPrefix():
		return fmt.Sprintf("stages %s have a gap", o.CompletedStages)
	case o.Status == domain.OrderCompleted && !o.CompletedStages.IsFull():
		return "completed with stages missing"
	case o.Status != domain.OrderCompleted && o.CompletedStages.IsFull():
		return "all stages done but not completed"
	case !o.Status.IsValid():
		return fmt.Sprintf("unknown status %q", o.Status)
	}
	return ""
}

// checkTheme verifies the configured theme loads
func checkTheme(cfg *config.Config) CheckResult {
	result := CheckResult{Name: CheckTheme}

	if err := theme.SetTheme(cfg.Theme); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Passed = true
	result.Message = theme.Current.Name
	return result
}
