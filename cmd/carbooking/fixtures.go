package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"carbooking/internal/app/commands"
	"carbooking/internal/app/dto"
	fleetapp "carbooking/internal/app/handlers/fleet"
	"carbooking/internal/app/middleware"
)

const fixtureOperator = "fixtures"

// loadFleetFixtures saves every vehicle of a JSON array through the regular
// command pipeline. Invalid entries are logged and skipped.
func (a *application) loadFleetFixtures(ctx context.Context, path string) error {
	if path == "" {
		path = defaultFleetFixturesPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			a.logger.Info("fleet fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		a.logger.Warn("fleet fixtures file empty", "path", path)
		return nil
	}

	var fixtures []fleetapp.SaveVehicleCommand
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	ctx = middleware.ContextWithOperator(ctx, middleware.Operator{ID: fixtureOperator})
	for _, fx := range fixtures {
		v, err := commands.Dispatch[fleetapp.SaveVehicleCommand, *dto.Vehicle](ctx, a.commands, fx)
		if err != nil {
			a.logger.Error("fixture invalid", "vehicle_id", fx.ID, "error", err)
			continue
		}
		a.logger.Info("vehicle fixture imported", "vehicle_id", v.ID)
	}
	return nil
}

func defaultFleetFixturesPath() string {
	return filepath.Join("data", "fleet.json")
}
