// Command rowdb is a small operations CLI over the employee example
// database: load a TOML fixture, run an ad-hoc query from flags, or compare
// the indexed engine against the naive reference scan. It uses cobra for
// command dispatch and slog for structured logging, matching this module's
// established CLI conventions.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"reflect"
	"time"

	"github.com/spf13/cobra"

	"rowdb/examples/employee"
	"rowdb/internal/reference"
	"rowdb/internal/schema"
)

type loadFlags struct {
	fixture string
}

type queryFlags struct {
	fixture    string
	manager    bool
	hasManager bool
	department string
}

type benchFlags struct {
	fixture string
	n       int
}

var log = slog.New(slog.NewTextHandler(os.Stderr, nil))

func main() {
	rootCmd := &cobra.Command{
		Use:   "rowdb",
		Short: "Inspect and query an in-memory rowdb employee roster",
	}

	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(benchCmd())
	rootCmd.AddCommand(describeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loadCmd() *cobra.Command {
	flags := &loadFlags{}
	cmd := &cobra.Command{
		Use:   "load <fixture.toml>",
		Short: "Load a TOML fixture and report the row count",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			flags.fixture = args[0]
			return runLoad(flags)
		},
	}
	return cmd
}

func runLoad(flags *loadFlags) error {
	f, err := os.Open(flags.fixture)
	if err != nil {
		return fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close()

	db, err := employee.NewEmployeeDB()
	if err != nil {
		return fmt.Errorf("constructing db: %w", err)
	}
	if err := employee.LoadFixture(db, f); err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}

	log.Info("loaded fixture", "rows", db.Len(), "file", flags.fixture)
	return nil
}

func queryCmd() *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query <fixture.toml>",
		Short: "Run an ad-hoc query against a loaded fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.fixture = args[0]
			flags.hasManager = cmd.Flags().Changed("manager")
			return runQuery(flags)
		},
	}
	cmd.Flags().BoolVar(&flags.manager, "manager", false, "constrain IsManager")
	cmd.Flags().StringVar(&flags.department, "department", "", "constrain Department")
	return cmd
}

func runQuery(flags *queryFlags) error {
	f, err := os.Open(flags.fixture)
	if err != nil {
		return fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close()

	db, err := employee.NewEmployeeDB()
	if err != nil {
		return fmt.Errorf("constructing db: %w", err)
	}
	if err := employee.LoadFixture(db, f); err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}

	q := db.Query()
	if flags.hasManager {
		q = q.IsManager(flags.manager)
	}
	if flags.department != "" {
		q = q.Department(employee.Department(flags.department))
	}

	res, ok := q.Execute()
	if !ok {
		log.Info("no matches")
		return nil
	}
	for row := range res.Iter() {
		fmt.Printf("%d\t%s\t%v\t%s\n", row.ID, row.Name, row.IsManager, row.Department)
	}
	log.Info("query complete", "matches", res.CountOnes())
	return nil
}

func describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Dump the employee row type's Schema Model as TOML",
		RunE: func(_ *cobra.Command, _ []string) error {
			desc, err := schema.Build(reflect.TypeOf(employee.Employee{}))
			if err != nil {
				return fmt.Errorf("building schema: %w", err)
			}
			return desc.WriteTOML(os.Stdout)
		},
	}
}

func benchCmd() *cobra.Command {
	flags := &benchFlags{}
	cmd := &cobra.Command{
		Use:   "bench <fixture.toml>",
		Short: "Compare the indexed engine against a naive linear scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			flags.fixture = args[0]
			return runBench(flags)
		},
	}
	cmd.Flags().IntVar(&flags.n, "repeat", 1000, "number of repeated query executions to time")
	return cmd
}

func runBench(flags *benchFlags) error {
	f, err := os.Open(flags.fixture)
	if err != nil {
		return fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close()

	db, err := employee.NewEmployeeDB()
	if err != nil {
		return fmt.Errorf("constructing db: %w", err)
	}
	if err := employee.LoadFixture(db, f); err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}

	rows := db.Rows()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	dept := employee.Department("Eng")

	start := time.Now()
	for i := 0; i < flags.n; i++ {
		_, _ = db.Query().IsManager(rng.Intn(2) == 0).Department(dept).Execute()
	}
	indexed := time.Since(start)

	start = time.Now()
	for i := 0; i < flags.n; i++ {
		_ = reference.Scan(rows,
			[]reference.BoolPredicate{{Field: "IsManager", Want: rng.Intn(2) == 0}},
			[]reference.MapPredicate{{Field: "Department", Value: dept}},
		)
	}
	naive := time.Since(start)

	log.Info("bench complete", "rows", len(rows), "repeat", flags.n, "indexed", indexed, "naive", naive)
	return nil
}
