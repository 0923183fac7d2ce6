// Package main provides the Muninn CLI entry point.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orneryd/muninn/pkg/config"
	"github.com/orneryd/muninn/pkg/entity"
	"github.com/orneryd/muninn/pkg/indexing"
	"github.com/orneryd/muninn/pkg/store"
	"github.com/orneryd/muninn/pkg/triple"
	"github.com/orneryd/muninn/pkg/wal"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "muninn",
		Short: "Muninn - content-addressed triple indexing",
		Long: `Muninn turns factual statements into content-addressed
(subject, predicate, object) triples and persists them through a
compound-key indexing client backed by a key-value engine.

Four lookup directions per triple:
  compound(subject, predicate) -> object
  subject                      -> predicates
  predicate                    -> objects
  reverse(predicate, object)   -> subjects`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to muninn.yaml")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Muninn v%s (%s)\n", version, commit)
		},
	})

	insertCmd := &cobra.Command{
		Use:   "insert [file]",
		Short: "Batch-insert triple records from JSON lines (file or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInsert,
	}
	insertCmd.Flags().Bool("wal", false, "Journal each record to the idempotency log before inserting")
	rootCmd.AddCommand(insertCmd)

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Query the index",
		Long: `Query the index in one of the three read directions, chosen by
which flags are set:

  --subject and --predicate   objects for that pair
  --subject only              predicates for that subject
  --object and --predicate    subjects for that pair (reverse lookup)

Flag values are identifier strings, hashed the same deterministic way the
ingestion path hashes them.`,
		RunE: runQuery,
	}
	queryCmd.Flags().String("subject", "", "Subject identifier string")
	queryCmd.Flags().String("predicate", "", "Predicate identifier string")
	queryCmd.Flags().String("object", "", "Object identifier string")
	rootCmd.AddCommand(queryCmd)

	hashCmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the content hash of a triple",
		RunE:  runHash,
	}
	hashCmd.Flags().String("subject", "", "Subject identifier string")
	hashCmd.Flags().String("predicate", "", "Predicate identifier string")
	hashCmd.Flags().String("object", "", "Object identifier string")
	rootCmd.AddCommand(hashCmd)

	walCmd := &cobra.Command{
		Use:   "wal",
		Short: "Inspect the idempotency log",
	}
	walCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every logged record",
		RunE:  runWALList,
	})
	walFindCmd := &cobra.Command{
		Use:   "find <idempotency-key>",
		Short: "Find a logged record by idempotency key",
		Args:  cobra.ExactArgs(1),
		RunE:  runWALFind,
	}
	walCmd.AddCommand(walFindCmd)
	rootCmd.AddCommand(walCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

type closableStore interface {
	store.BackingStore
	Close() error
}

func openStore(cfg *config.Config) (closableStore, error) {
	if cfg.Store.Backend == "memory" {
		return store.NewMemoryStore(), nil
	}
	return store.NewBadgerStoreWithOptions(store.BadgerOptions{
		DataDir:    cfg.Store.DataDir,
		SyncWrites: cfg.Store.SyncWrites,
	})
}

func runInsert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	in := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	records, err := readRecords(in)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No records to insert.")
		return nil
	}

	if journal, _ := cmd.Flags().GetBool("wal"); journal {
		log, err := wal.New(cfg.WAL.Path)
		if err != nil {
			return err
		}
		defer log.Close()
		for _, rec := range records {
			hexDigest, _ := triple.Hash(rec)
			entry := wal.Record{"idempotency_key": hexDigest}
			if data, err := json.Marshal(rec); err == nil {
				var m map[string]any
				if json.Unmarshal(data, &m) == nil {
					entry["record"] = m
				}
			}
			if err := log.Append(entry); err != nil {
				return err
			}
		}
	}

	backing, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer backing.Close()

	client := indexing.NewClient(backing,
		indexing.WithLogger(logger),
		indexing.WithBatchSize(cfg.Batch.Size))
	result := indexing.RobustBatchInsert(client, records, &indexing.PerformanceConfig{
		AdaptiveBatchSize:  true,
		RetryMaxAttempts:   cfg.Retry.MaxAttempts,
		RetryBackoffFactor: cfg.Retry.BackoffFactor,
	})

	fmt.Printf("Inserted %d/%d triples\n", result.SuccessCount, len(records))
	for _, f := range result.Failures {
		fmt.Printf("  batch at offset %d failed: %v\n", f.BatchStart, f.Err)
	}
	if !result.Clean() {
		return fmt.Errorf("%d batch(es) failed", len(result.Failures))
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	backing, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer backing.Close()

	subject, _ := cmd.Flags().GetString("subject")
	predicate, _ := cmd.Flags().GetString("predicate")
	object, _ := cmd.Flags().GetString("object")

	client := indexing.NewClient(backing)

	var results []entity.E
	switch {
	case subject != "" && predicate != "":
		results = client.QueryBySubjectPredicate(entity.FromString(subject), entity.FromString(predicate))
	case object != "" && predicate != "":
		results = client.QuerySubjectsByObjectPredicate(entity.FromString(object), entity.FromString(predicate))
	case subject != "":
		results = client.QueryPredicatesForSubject(entity.FromString(subject))
	default:
		return fmt.Errorf("need --subject+--predicate, --object+--predicate, or --subject")
	}

	for _, e := range results {
		fmt.Println(e.Hex())
	}
	fmt.Printf("%d result(s)\n", len(results))
	return nil
}

func runHash(cmd *cobra.Command, args []string) error {
	subject, _ := cmd.Flags().GetString("subject")
	predicate, _ := cmd.Flags().GetString("predicate")
	object, _ := cmd.Flags().GetString("object")
	if subject == "" || predicate == "" || object == "" {
		return fmt.Errorf("need --subject, --predicate, and --object")
	}

	rec := triple.NewRecord(
		entity.FromString(subject),
		entity.FromString(predicate),
		entity.FromString(object),
		nil)
	hexDigest, hashEntity := triple.Hash(rec)
	fmt.Println(hexDigest)
	fmt.Println(hashEntity.String())
	return nil
}

func runWALList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := wal.New(cfg.WAL.Path)
	if err != nil {
		return err
	}
	defer log.Close()

	records, err := log.ReadAll()
	if err != nil {
		return err
	}
	for _, rec := range records {
		line, _ := json.Marshal(rec)
		fmt.Println(string(line))
	}
	fmt.Printf("%d record(s)\n", len(records))
	return nil
}

func runWALFind(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := wal.New(cfg.WAL.Path)
	if err != nil {
		return err
	}
	defer log.Close()

	rec, err := log.FindByIdempotencyKey(args[0])
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no record with idempotency key %q", args[0])
	}
	line, _ := json.Marshal(rec)
	fmt.Println(string(line))
	return nil
}

// readRecords parses JSON-lines triple records.
func readRecords(in io.Reader) ([]*triple.Record, error) {
	var records []*triple.Record
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec := &triple.Record{}
		if err := json.Unmarshal(line, rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}
