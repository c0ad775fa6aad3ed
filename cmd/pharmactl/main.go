package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/andresuchdata/pharmadesk/internal/api/middleware"
	"github.com/andresuchdata/pharmadesk/internal/app"
	"github.com/andresuchdata/pharmadesk/internal/catalog"
	"github.com/andresuchdata/pharmadesk/internal/config"
	"github.com/andresuchdata/pharmadesk/internal/domain"
	"github.com/andresuchdata/pharmadesk/internal/service"
	"github.com/andresuchdata/pharmadesk/internal/storage"
	"github.com/andresuchdata/pharmadesk/pkg/logger"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

type appKey struct{}

func newPharmacyIDFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "pharmacy-id",
		Usage:    "Pharmacy UUID",
		Required: required,
		EnvVars:  []string{"PHARMACY_ID"},
	}
}

func initApp(c *cli.Context) error {
	cfg := config.Load()
	logger.Configure(cfg.Log.Format, cfg.Log.Level)

	a, err := app.New(c.Context, cfg)
	if err != nil {
		return err
	}
	c.Context = context.WithValue(c.Context, appKey{}, a)
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.Context.Value(appKey{}).(*app.App); ok && a != nil {
		return a.Close()
	}
	return nil
}

func appFrom(c *cli.Context) *app.App {
	return c.Context.Value(appKey{}).(*app.App)
}

func main() {
	cliApp := &cli.App{
		Name:  "pharmactl",
		Usage: "Administer pharmacies, catalogs and alerts",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Apply the database schema",
				Before: initApp,
				After:  closeApp,
				Action: func(c *cli.Context) error {
					if err := appFrom(c).Migrate(c.Context); err != nil {
						return err
					}
					logger.Log.Info().Msg("migrations applied")
					return nil
				},
			},
			{
				Name:  "create-pharmacy",
				Usage: "Create a pharmacy",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "address"},
					&cli.StringFlag{Name: "phone"},
					&cli.StringFlag{Name: "email"},
				},
				Before: initApp,
				After:  closeApp,
				Action: createPharmacy,
			},
			{
				Name:  "add-staff",
				Usage: "Add a staff member to a pharmacy",
				Flags: []cli.Flag{
					newPharmacyIDFlag(true),
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "role", Value: string(domain.RoleStaff)},
				},
				Before: initApp,
				After:  closeApp,
				Action: addStaff,
			},
			{
				Name:  "seed-medicines",
				Usage: "Import a medicine catalog from a CSV or XLSX file",
				Flags: []cli.Flag{
					newPharmacyIDFlag(true),
					&cli.StringFlag{
						Name:    "file",
						Usage:   "Catalog file (.csv or .xlsx)",
						EnvVars: []string{"SEED_FILE"},
					},
					&cli.StringFlag{
						Name:  "object",
						Usage: "Catalog object key in the S3 bucket, used instead of --file",
					},
					&cli.StringFlag{Name: "staff-id", Usage: "Staff UUID recorded as creator"},
				},
				Before: initApp,
				After:  closeApp,
				Action: seedMedicines,
			},
			{
				Name:  "list-catalogs",
				Usage: "List catalog files in the S3 bucket",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "prefix", Usage: "Key prefix"},
				},
				Action: listCatalogs,
			},
			{
				Name:  "scan-alerts",
				Usage: "Raise low-stock and expiry notifications",
				Flags: []cli.Flag{
					newPharmacyIDFlag(false),
					&cli.BoolFlag{Name: "all", Usage: "Scan every pharmacy"},
				},
				Before: initApp,
				After:  closeApp,
				Action: scanAlerts,
			},
			{
				Name:  "token",
				Usage: "Issue a development bearer token",
				Flags: []cli.Flag{
					newPharmacyIDFlag(false),
					&cli.StringFlag{Name: "staff-id", Usage: "Staff UUID (random when omitted)"},
					&cli.StringFlag{Name: "role", Value: string(domain.RoleStaff)},
				},
				Action: issueToken,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("pharmactl failed")
	}
}

func createPharmacy(c *cli.Context) error {
	p, err := appFrom(c).Services.Pharmacies.CreatePharmacy(c.Context, service.PharmacyInput{
		Name:    c.String("name"),
		Address: optional(c, "address"),
		Phone:   optional(c, "phone"),
		Email:   optional(c, "email"),
	})
	if err != nil {
		return err
	}
	return printJSON(p)
}

func addStaff(c *cli.Context) error {
	pharmacyID, err := uuidFlag(c, "pharmacy-id")
	if err != nil {
		return err
	}
	member, err := appFrom(c).Services.Pharmacies.AddStaff(c.Context, pharmacyID, service.StaffInput{
		FullName: c.String("name"),
		Email:    c.String("email"),
		Role:     domain.Role(c.String("role")),
	})
	if err != nil {
		return err
	}
	return printJSON(member)
}

func seedMedicines(c *cli.Context) error {
	pharmacyID, err := uuidFlag(c, "pharmacy-id")
	if err != nil {
		return err
	}
	staffID := uuid.New()
	if c.IsSet("staff-id") {
		if staffID, err = uuidFlag(c, "staff-id"); err != nil {
			return err
		}
	}

	file, cleanup, err := catalogPath(c)
	if err != nil {
		return err
	}
	defer cleanup()

	rows, err := catalog.Load(file)
	if err != nil {
		return err
	}
	logger.Log.Info().Str("file", file).Int("rows", len(rows)).Msg("catalog loaded")

	tenant := domain.TenantContext{PharmacyID: pharmacyID, StaffID: staffID, Role: domain.RoleAdmin}
	res, err := appFrom(c).Services.Medicines.ImportMedicines(c.Context, tenant, rows)
	if err != nil {
		return err
	}
	for _, msg := range res.Errors {
		logger.Log.Warn().Msg(msg)
	}
	logger.Log.Info().Int("created", res.Created).Int("failed", res.Failed).Msg("catalog imported")
	return nil
}

// catalogPath returns a local path for the catalog, downloading it from
// object storage when --object is given.
func catalogPath(c *cli.Context) (string, func(), error) {
	noop := func() {}
	key := c.String("object")
	if key == "" {
		if c.String("file") == "" {
			return "", noop, fmt.Errorf("either --file or --object is required")
		}
		return c.String("file"), noop, nil
	}

	objects, err := storage.NewS3Client(config.Load().Storage)
	if err != nil {
		return "", noop, err
	}
	dir, err := os.MkdirTemp("", "pharmactl-catalog-")
	if err != nil {
		return "", noop, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	dest := filepath.Join(dir, path.Base(key))
	if err := objects.DownloadObject(c.Context, key, dest); err != nil {
		cleanup()
		return "", noop, err
	}
	logger.Log.Info().Str("object", key).Msg("catalog downloaded")
	return dest, cleanup, nil
}

func listCatalogs(c *cli.Context) error {
	objects, err := storage.NewS3Client(config.Load().Storage)
	if err != nil {
		return err
	}
	list, err := objects.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}
	for _, obj := range list {
		fmt.Printf("%s\t%d\n", obj.Key, obj.Size)
	}
	return nil
}

func scanAlerts(c *cli.Context) error {
	alerts := appFrom(c).Services.Alerts
	if c.Bool("all") {
		results, err := alerts.ScanAll(c.Context)
		if printErr := printJSON(results); printErr != nil {
			return printErr
		}
		return err
	}
	if !c.IsSet("pharmacy-id") {
		return fmt.Errorf("either --pharmacy-id or --all is required")
	}
	pharmacyID, err := uuidFlag(c, "pharmacy-id")
	if err != nil {
		return err
	}
	res, err := alerts.RunAlertScan(c.Context, pharmacyID)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func issueToken(c *cli.Context) error {
	tokens, err := middleware.NewTokens(config.Load().Auth)
	if err != nil {
		return err
	}

	role, ok := domain.ParseRole(c.String("role"))
	if !ok {
		return fmt.Errorf("invalid role %q", c.String("role"))
	}
	tenant := domain.TenantContext{StaffID: uuid.New(), Role: role}
	if c.IsSet("staff-id") {
		if tenant.StaffID, err = uuidFlag(c, "staff-id"); err != nil {
			return err
		}
	}
	if c.IsSet("pharmacy-id") {
		if tenant.PharmacyID, err = uuidFlag(c, "pharmacy-id"); err != nil {
			return err
		}
	}

	token, err := tokens.Issue(tenant)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func uuidFlag(c *cli.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.String(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("--%s must be a uuid: %w", name, err)
	}
	return id, nil
}

func optional(c *cli.Context, name string) *string {
	if !c.IsSet(name) {
		return nil
	}
	v := c.String(name)
	return &v
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
