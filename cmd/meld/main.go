// Command meld fits a stack from a blueprint and a CSV dataset, then stores
// the snapshot so meld-srv can serve it.
package main

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"

	"meld/internal/blueprint"
	"meld/internal/database"
	"meld/internal/dataset"
	"meld/internal/logging"
	"meld/internal/shutdown"
	"meld/internal/store"
)

type config struct {
	Blueprint string `env:"MELD_BLUEPRINT,default=meld.toml"`
	Dataset   string `env:"MELD_DATASET,required"`
	Target    string `env:"MELD_TARGET,default=target"`
	DBFile    string `env:"MELD_DB_FILE,default=meld.db"`
}

func main() {
	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx); err != nil {
		logger.Fatal(err)
	}
	done()
}

func run(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	def, err := blueprint.Load(cfg.Blueprint)
	if err != nil {
		return fmt.Errorf("blueprint.Load: %w", err)
	}
	st, err := def.Build()
	if err != nil {
		return fmt.Errorf("build stack %q: %w", def.Name, err)
	}
	for _, warning := range st.Warnings() {
		logger.Warnf("stack %q: %s", def.Name, warning)
	}

	X, y, err := dataset.LoadCSV(cfg.Dataset, cfg.Target)
	if err != nil {
		return fmt.Errorf("dataset.LoadCSV: %w", err)
	}
	logger.Infof("loaded %d rows, %d features, %s target",
		X.NumRows(), X.NumCols(), y.Kind())

	fitted, err := st.Fit(ctx, X, y)
	if err != nil {
		return fmt.Errorf("fit stack %q: %w", def.Name, err)
	}
	logger.Infof("fitted stack %q, meta features: %v", def.Name, fitted.Columns())

	snap, err := blueprint.TakeSnapshot(def, X.Columns(), fitted)
	if err != nil {
		return fmt.Errorf("blueprint.TakeSnapshot: %w", err)
	}
	data, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	db, err := database.NewFromEnv(ctx, &database.Config{FileName: cfg.DBFile})
	if err != nil {
		return fmt.Errorf("unable to connect to database: %v", err)
	}
	defer db.Close(ctx)

	if err := store.New(db).Save(ctx, def.Name, snap.ID, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	logger.Infof("stored snapshot %s of stack %q in %s", snap.ID, def.Name, cfg.DBFile)
	return nil
}
