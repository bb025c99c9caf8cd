package app

// Implementations behind the vendo CLI sub-commands. Progress goes to out so
// tests can capture it.

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shashiranjanraj/vendo/app/services"
	"github.com/shashiranjanraj/vendo/config"
	_ "github.com/shashiranjanraj/vendo/database/migrations"
	"github.com/shashiranjanraj/vendo/database/seeders"
	"github.com/shashiranjanraj/vendo/pkg/migration"
	"github.com/shashiranjanraj/vendo/pkg/schedule"
	"github.com/shashiranjanraj/vendo/pkg/storage"
)

// Migrate runs all pending migrations.
func (a *Application) Migrate(out io.Writer) error {
	return migration.New(a.DB).WithOutput(out).Run()
}

// Rollback reverses the last migration batch.
func (a *Application) Rollback(out io.Writer) error {
	return migration.New(a.DB).WithOutput(out).Rollback()
}

// MigrateStatus prints every migration and whether it has run.
func (a *Application) MigrateStatus(out io.Writer) error {
	return migration.New(a.DB).WithOutput(out).Status()
}

// Seed runs all registered seeders.
func (a *Application) Seed(out io.Writer) error {
	return seeders.RunAll(a.DB, out)
}

// RouteList prints the named routes of the HTTP kernel.
func (a *Application) RouteList(out io.Writer) error {
	k, err := a.Kernel()
	if err != nil {
		return err
	}
	defer k.Close()

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range k.Router.Routes() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}

// RouteURL resolves a named route. Params matching a {placeholder} fill the
// path; the rest become the query string.
func (a *Application) RouteURL(name string, params map[string]string) (string, error) {
	k, err := a.Kernel()
	if err != nil {
		return "", err
	}
	defer k.Close()

	pattern, ok := k.Router.Path(name)
	if !ok {
		return "", fmt.Errorf("route %q not found", name)
	}

	pathParams := map[string]string{}
	query := url.Values{}
	for key, value := range params {
		if strings.Contains(pattern, "{"+key+"}") {
			pathParams[key] = url.PathEscape(value)
		} else {
			query.Set(key, value)
		}
	}

	path, err := k.Router.URL(name, pathParams)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return path, nil
}

// Exporter returns the ledger export service over the default storage disk.
func (a *Application) Exporter(ctx context.Context) (*services.ExportService, error) {
	disks, err := storage.FromConfig(ctx)
	if err != nil {
		return nil, err
	}
	disk, err := disks.Default()
	if err != nil {
		return nil, err
	}
	return services.NewExportService(a.History, disk), nil
}

// Scheduler registers the recurring ledger export: every interval it
// exports the window since the previous run and prunes down to keep files.
func (a *Application) Scheduler(exporter *services.ExportService, interval time.Duration, keep int) (*schedule.Scheduler, error) {
	hours := int(math.Ceil(interval.Hours()))
	if hours < 1 {
		hours = 1
	}

	s := schedule.New()
	err := s.Every(interval).Name("ledger:export").WithoutOverlapping().Run(func(ctx context.Context) error {
		if _, err := exporter.Export(ctx, hours); err != nil {
			return err
		}
		_, err := exporter.Prune(ctx, keep)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultScheduler is Scheduler with LEDGER_EXPORT_INTERVAL and
// LEDGER_EXPORT_KEEP.
func (a *Application) DefaultScheduler(ctx context.Context) (*schedule.Scheduler, error) {
	exporter, err := a.Exporter(ctx)
	if err != nil {
		return nil, err
	}
	return a.Scheduler(exporter, config.LedgerExportInterval(), config.LedgerExportKeep())
}
