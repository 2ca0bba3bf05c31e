package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/citydir"
	"github.com/fwojciec/citydir/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	DB      *sqlite.DB
	Entries citydir.EntryService
	Fetcher citydir.Fetcher
	Now     func() time.Time
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB      string        `name:"db" env:"CITYDIR_DB" help:"SQLite database path (default ~/.citydir/citydir.db)"`
	Server  string        `env:"CITYDIR_SERVER" help:"Directory API base URL; when set, commands other than serve use it instead of the database"`
	Timeout time.Duration `default:"10s" help:"Timeout for API requests and import downloads"`
	Verbose bool          `short:"v" help:"Log every directory operation"`

	Serve      ServeCmd      `cmd:"" help:"Serve the directory API"`
	List       ListCmd       `cmd:"" help:"List directory entries"`
	Categories CategoriesCmd `cmd:"" help:"List categories in use"`
	Add        AddCmd        `cmd:"" help:"Add a directory entry"`
	Edit       EditCmd       `cmd:"" help:"Edit a directory entry"`
	Delete     DeleteCmd     `cmd:"" help:"Delete a directory entry"`
	Import     ImportCmd     `cmd:"" help:"Import entries from an HTML table or XML export"`
	Export     ExportCmd     `cmd:"" help:"Export the directory as XML"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr            string        `default:":8080" env:"CITYDIR_ADDR" help:"Listen address"`
	MaxPageSize     int           `default:"100" env:"CITYDIR_MAX_PAGE_SIZE" help:"Largest page size served (0 for no limit)"`
	CORSOrigin      []string      `name:"cors-origin" env:"CITYDIR_CORS_ORIGINS" help:"Browser origin allowed to call the API (repeatable)"`
	RateLimit       float64       `default:"5" env:"CITYDIR_RATE_LIMIT" help:"Mutations per second per client (0 to disable)"`
	Burst           int           `default:"10" help:"Mutation burst per client"`
	ShutdownTimeout time.Duration `default:"10s" help:"Grace period for in-flight requests on shutdown"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Page        int    `short:"p" default:"1" help:"Page number"`
	PageSize    int    `short:"n" default:"10" help:"Entries per page"`
	Sort        string `short:"s" help:"Sort field, prefixed with - for descending (e.g. -createdAt)"`
	Search      string `short:"q" help:"Free-text filter"`
	Category    string `short:"c" help:"Exact category filter"`
	SubCategory string `help:"Sub-category substring filter"`
}

// CategoriesCmd is the "categories" subcommand.
type CategoriesCmd struct{}

// EntryFlags holds the entry fields accepted by the add command.
type EntryFlags struct {
	Category         string `short:"c" required:"" help:"Category"`
	SubCategory      string `help:"Sub-category"`
	LastName         string `help:"Contact last name"`
	FirstName        string `help:"Contact first name"`
	OrganizationName string `short:"o" help:"Organization name"`
	Address          string `help:"Street address"`
	PostalCode       string `help:"Postal code"`
	City             string `help:"City"`
	Phone            string `help:"Phone number"`
	Mobile           string `help:"Mobile number"`
	Email            string `help:"Email address"`
	Website          string `help:"Website (https:// is assumed)"`
}

// AddCmd is the "add" subcommand.
type AddCmd struct {
	EntryFlags `embed:""`
}

// EditCmd is the "edit" subcommand.
type EditCmd struct {
	ID  string            `arg:"" help:"Entry ID"`
	Set map[string]string `short:"S" help:"Field to change as field=value; an empty value clears it (repeatable)"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Entry ID"`
	Force bool   `help:"Confirm deletion"`
}

// ImportCmd is the "import" subcommand.
type ImportCmd struct {
	Source   string `arg:"" help:"File path or http(s) URL"`
	Format   string `enum:"auto,html,xml" default:"auto" help:"Source format (auto, html, xml)"`
	Category string `short:"c" help:"Category for rows that have none"`
	DryRun   bool   `help:"Validate rows without saving them"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Output   string `short:"o" default:"-" help:"Output file, - for stdout"`
	Category string `short:"c" help:"Only export this category"`
	PageSize int    `default:"100" help:"Entries fetched per request"`
}
