// Package config builds and validates the immutable configuration for one
// export run.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
)

// FieldError names the offending field of an invalid ExportConfig.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ExportConfig is validated once at construction and read-only for the
// lifetime of a run.
type ExportConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	SchemaName string

	RowLimit         int
	BatchSize        int
	ParallelThreads  int
	OutputDirectory  string
	IncludeSystemTables bool

	// No component reads these to alter behavior yet. Reserved for a
	// future DDL-generation phase.
	GenerateCreateStatements bool
	GenerateDropStatements   bool

	// FilterPolicyFile optionally points at a YAML document overriding the
	// table filter's default exclusion lists (see the filter package).
	FilterPolicyFile string
}

const (
	defaultSchemaName      = "dbo"
	defaultRowLimit        = 200
	defaultBatchSizeSmall  = 1000
	defaultBatchSizeLarge  = 2000
	defaultOutputDirectory = "./exports"

	minRowLimit = 1
	maxRowLimit = 1_000_000

	minBatchSize = 1
	maxBatchSize = 10_000

	minParallelThreads = 1
	maxParallelThreads = 32
)

// Option mutates an ExportConfig before validation. Used by New to apply
// optional overrides on top of the required fields.
type Option func(*ExportConfig)

// WithSchemaName overrides the default "dbo" schema.
func WithSchemaName(name string) Option {
	return func(c *ExportConfig) { c.SchemaName = name }
}

// WithRowLimit overrides the default row limit of 200.
func WithRowLimit(n int) Option {
	return func(c *ExportConfig) { c.RowLimit = n }
}

// WithBatchSize overrides the default batch size.
func WithBatchSize(n int) Option {
	return func(c *ExportConfig) { c.BatchSize = n }
}

// WithParallelThreads overrides the default pool/worker width (number of
// CPUs).
func WithParallelThreads(n int) Option {
	return func(c *ExportConfig) { c.ParallelThreads = n }
}

// WithOutputDirectory overrides the default "./exports" directory.
func WithOutputDirectory(dir string) Option {
	return func(c *ExportConfig) { c.OutputDirectory = dir }
}

// WithIncludeSystemTables keeps system-looking table names during table
// discovery. The table filter still runs afterwards, and its default
// exact names, prefixes and patterns exclude most such tables again.
func WithIncludeSystemTables(v bool) Option {
	return func(c *ExportConfig) { c.IncludeSystemTables = v }
}

// WithGenerateCreateStatements stores the flag; no component reads it.
func WithGenerateCreateStatements(v bool) Option {
	return func(c *ExportConfig) { c.GenerateCreateStatements = v }
}

// WithGenerateDropStatements stores the flag; no component reads it.
func WithGenerateDropStatements(v bool) Option {
	return func(c *ExportConfig) { c.GenerateDropStatements = v }
}

// WithFilterPolicyFile points the table filter at a YAML override document.
func WithFilterPolicyFile(path string) Option {
	return func(c *ExportConfig) { c.FilterPolicyFile = path }
}

// New validates host/port/name/user/password and applies options, defaulting
// unset fields. Construction of an invalid configuration fails with a
// *FieldError naming the offending field.
func New(host, port, dbName, dbUser, dbPassword string, opts ...Option) (*ExportConfig, error) {
	if host == "" {
		return nil, &FieldError{"dbHost", "must not be empty"}
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 1 || portNum > 65535 {
		return nil, &FieldError{"dbPort", "must be an integer in 1..65535"}
	}
	if dbName == "" {
		return nil, &FieldError{"dbName", "must not be empty"}
	}
	if dbUser == "" {
		return nil, &FieldError{"dbUser", "must not be empty"}
	}
	// dbPassword may be empty and is not validated.

	c := &ExportConfig{
		DBHost:              host,
		DBPort:              port,
		DBName:              dbName,
		DBUser:              dbUser,
		DBPassword:          dbPassword,
		SchemaName:          defaultSchemaName,
		RowLimit:            defaultRowLimit,
		BatchSize:           defaultBatchSizeSmall,
		ParallelThreads:     runtime.NumCPU(),
		OutputDirectory:     defaultOutputDirectory,
		IncludeSystemTables: false,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.SchemaName == "" {
		return nil, &FieldError{"schemaName", "must not be empty"}
	}
	if c.RowLimit < minRowLimit || c.RowLimit > maxRowLimit {
		return nil, &FieldError{"rowLimit", fmt.Sprintf("must be in %d..%d", minRowLimit, maxRowLimit)}
	}
	if c.BatchSize < minBatchSize || c.BatchSize > maxBatchSize {
		return nil, &FieldError{"batchSize", fmt.Sprintf("must be in %d..%d", minBatchSize, maxBatchSize)}
	}
	if c.ParallelThreads < minParallelThreads || c.ParallelThreads > maxParallelThreads {
		return nil, &FieldError{"parallelThreads", fmt.Sprintf("must be in %d..%d", minParallelThreads, maxParallelThreads)}
	}
	if c.OutputDirectory == "" {
		return nil, &FieldError{"outputDirectory", "must not be empty"}
	}
	c.OutputDirectory = filepath.Clean(c.OutputDirectory)

	return c, nil
}

// DefaultBatchSizeForRowLimit picks between the small and large default
// batch sizes: the larger batch size applies once a run is big enough that
// fewer, larger INSERT blocks reduce sink overhead.
func DefaultBatchSizeForRowLimit(rowLimit int) int {
	if rowLimit > 10_000 {
		return defaultBatchSizeLarge
	}
	return defaultBatchSizeSmall
}

// ConnectionString builds the sqlserver:// DSN for the go-mssqldb driver.
func (c *ExportConfig) ConnectionString() string {
	return fmt.Sprintf(
		"sqlserver://%s:%s;databaseName=%s;encrypt=false;trustServerCertificate=true;integratedSecurity=false;user id=%s;password=%s;loginTimeout=30",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword,
	)
}
