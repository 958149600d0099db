package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	_ "github.com/microsoft/go-mssqldb"
	"golang.org/x/term"

	"github.com/latticedata/rowexport/config"
	"github.com/latticedata/rowexport/export"
	"github.com/latticedata/rowexport/internal/xlog"
	"github.com/latticedata/rowexport/metadata"
)

var version string

type cliOptions struct {
	User            string `short:"U" long:"user" description:"SQL Server user name" value-name:"user_name" required:"true"`
	Password        string `short:"P" long:"password" description:"SQL Server user password, overridden by $ROWEXPORT_PWD" value-name:"password"`
	Host            string `short:"h" long:"host" description:"Host to connect to the SQL Server instance" value-name:"host_name" default:"127.0.0.1"`
	Port            uint   `short:"p" long:"port" description:"Port used for the connection" value-name:"port_num" default:"1433"`
	Prompt          bool   `long:"password-prompt" description:"Force SQL Server user password prompt"`
	Schema          string `long:"schema" description:"Schema to export" value-name:"schema_name" default:"dbo"`
	RowLimit        int    `long:"row-limit" description:"Maximum rows exported per table" value-name:"n" default:"200"`
	BatchSize       int    `long:"batch-size" description:"Rows per INSERT batch" value-name:"n" default:"0"`
	ParallelThreads int    `long:"parallel-threads" description:"Width of the table-export worker pool" value-name:"n" default:"0"`
	OutputDir       string `long:"output-dir" description:"Directory for export_*.sql/report/log artifacts" value-name:"dir" default:"./exports"`
	IncludeSystem   bool   `long:"include-system-tables" description:"Keep system-looking tables during table discovery; the table filter still applies"`
	GenerateCreate  bool   `long:"generate-create-statements" description:"Reserved; not used by the current export core"`
	GenerateDrop    bool   `long:"generate-drop-statements" description:"Reserved; not used by the current export core"`
	FilterPolicy    string `long:"filter-policy" description:"YAML file overriding the table-filter exclusion policy" value-name:"file"`
	DebugCatalog    bool   `long:"debug-catalog" description:"Pretty-print the extracted catalog and exit without exporting"`
	Help            bool   `long:"help" description:"Show this help"`
	Version         bool   `long:"version" description:"Show this version"`
}

func parseOptions(args []string) (*config.ExportConfig, *cliOptions, string) {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] db_name"
	positional, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if len(positional) == 0 {
		fmt.Print("No database is specified!\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	} else if len(positional) > 1 {
		fmt.Printf("Multiple databases are given: %v\n\n", positional)
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}
	dbName := positional[0]

	password, ok := os.LookupEnv("ROWEXPORT_PWD")
	if !ok {
		password = opts.Password
	}
	if opts.Prompt {
		fmt.Print("Enter Password: ")
		pass, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			log.Fatal(err)
		}
		password = string(pass)
	}

	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = config.DefaultBatchSizeForRowLimit(opts.RowLimit)
	}

	var configOpts []config.Option
	configOpts = append(configOpts,
		config.WithSchemaName(opts.Schema),
		config.WithRowLimit(opts.RowLimit),
		config.WithBatchSize(batchSize),
		config.WithOutputDirectory(opts.OutputDir),
		config.WithIncludeSystemTables(opts.IncludeSystem),
		config.WithGenerateCreateStatements(opts.GenerateCreate),
		config.WithGenerateDropStatements(opts.GenerateDrop),
		config.WithFilterPolicyFile(opts.FilterPolicy),
	)
	if opts.ParallelThreads > 0 {
		configOpts = append(configOpts, config.WithParallelThreads(opts.ParallelThreads))
	}

	cfg, err := config.New(opts.Host, strconv.FormatUint(uint64(opts.Port), 10), dbName, opts.User, password, configOpts...)
	if err != nil {
		log.Fatal(err)
	}

	return cfg, &opts, dbName
}

func main() {
	cfg, opts, dbName := parseOptions(os.Args[1:])

	runID := time.Now().UTC().Format("20060102_150405")
	logFile, err := xlog.Init(runID)
	if err != nil {
		log.Printf("continuing with stderr-only logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	slog.Info("starting export", "database", dbName, "schema", cfg.SchemaName, "rowLimit", cfg.RowLimit)

	if opts.DebugCatalog {
		if err := debugCatalog(cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	result, err := export.Run(context.Background(), cfg, runID)
	if err != nil {
		log.Fatal(err)
	}

	slog.Info("export complete", "tables", len(result.Tables), "sqlFile", result.SQLPath, "report", result.ReportPath)
}

func openDB(cfg *config.ExportConfig) (*sql.DB, error) {
	return sql.Open("sqlserver", cfg.ConnectionString())
}

func debugCatalog(cfg *config.ExportConfig) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	catalog, err := metadata.Extract(context.Background(), db, cfg.SchemaName, cfg.IncludeSystemTables)
	if err != nil {
		return err
	}
	printer := pp.New()
	printer.Print(catalog)
	return nil
}
