// Package ingest wires the FDDB annotation corpus to the DynamoDB table:
// parse, split, validate, ensure the table, batch write, summarize.
package ingest

import (
	"io"
	"os"

	"github.com/facetdata/fddb-ingest/dynamo"
	"github.com/facetdata/fddb-ingest/errors"
	"github.com/facetdata/fddb-ingest/fddb"
	"github.com/facetdata/fddb-ingest/logger"
)

// Main holds the configuration for an ingest run. Fields are loaded from
// flags and the environment by the fddb-ingest binary.
type Main struct {
	DataDir       string  `short:"d" help:"Directory tree containing the FDDB fold annotation files."`
	Pattern       string  `help:"Glob pattern, matched against file names, selecting annotation files."`
	Table         string  `short:"t" help:"Name of the DynamoDB table to load."`
	TestFraction  float64 `help:"Fraction of records tagged as the test partition."`
	Seed          int64   `help:"Seed for the train/test shuffle. A fixed seed gives a reproducible split."`
	AWSRegion     string  `help:"AWS Region. Alternatively, use environment variable AWS_REGION."`
	AWSProfile    string  `help:"Name of AWS profile to use. Alternatively, use environment variable AWS_PROFILE."`
	ReadCapacity  int64   `help:"Provisioned read capacity units, used when the table has to be created."`
	WriteCapacity int64   `help:"Provisioned write capacity units, used when the table has to be created."`
	LogPath       string  `help:"Log file to write to. Empty means stderr."`
	Verbose       bool    `short:"v" help:"Enable debug logging."`
	DryRun        bool    `help:"Dump the config and exit."`

	// NewTable builds the table client; tests swap it for one with a
	// mocked store.
	NewTable func() (*dynamo.Table, error) `flag:"-"`

	log logger.Logger
}

// NewMain returns a Main with the defaults the dataset was loaded with.
func NewMain() *Main {
	m := &Main{
		DataDir:       "temp_data/FDDB-folds",
		Pattern:       fddb.DefaultPattern,
		Table:         "facial-detection-dataset",
		TestFraction:  0.2,
		Seed:          1,
		ReadCapacity:  10,
		WriteCapacity: 10,
	}
	m.NewTable = func() (*dynamo.Table, error) {
		table := dynamo.NewTable(m.Table)
		table.AWSRegion = m.AWSRegion
		table.AWSProfile = m.AWSProfile
		table.ReadCapacity = m.ReadCapacity
		table.WriteCapacity = m.WriteCapacity
		table.Log = m.Log()
		if err := table.Open(); err != nil {
			return nil, errors.Wrap(err, "opening table client")
		}
		return table, nil
	}
	return m
}

// Log returns the run's logger, building it on first use.
func (m *Main) Log() logger.Logger {
	if m.log == nil {
		var w io.Writer = os.Stderr
		if m.LogPath != "" {
			fw, err := logger.NewFileWriter(m.LogPath)
			if err != nil {
				logger.StderrLogger.Warnf("couldn't open log path %s, falling back to stderr: %v", m.LogPath, err)
			} else {
				w = fw
			}
		}
		if m.Verbose {
			m.log = logger.NewVerboseLogger(w)
		} else {
			m.log = logger.NewStandardLogger(w)
		}
	}
	return m.log
}

// Run executes one ingest: every validation failure aborts before anything
// is written, and any store failure aborts the run where it happened.
func (m *Main) Run() error {
	log := m.Log()

	corpus := &fddb.Corpus{Dir: m.DataDir, Pattern: m.Pattern, Log: log}
	records, err := corpus.Records()
	if err != nil {
		return errors.Wrap(err, "reading annotation corpus")
	}
	if len(records) == 0 {
		return errors.Errorf("no annotation records found under %s", m.DataDir)
	}
	log.Infof("Parsed %d record(s).", len(records))

	if err := fddb.Split(records, m.TestFraction, m.Seed); err != nil {
		return errors.Wrap(err, "splitting train/test")
	}
	if err := fddb.CheckUniqueNames(records); err != nil {
		return err
	}

	table, err := m.NewTable()
	if err != nil {
		return err
	}

	exists, err := table.Exists()
	if err != nil {
		return errors.Wrapf(err, "checking for table %s", m.Table)
	}
	if exists {
		log.Infof("Table %s already exists.", m.Table)
	} else {
		log.Infof("Creating table %s...", m.Table)
		if err := table.Create(); err != nil {
			return errors.Wrapf(err, "creating table %s", m.Table)
		}
		log.Infof("Created table %s.", m.Table)
	}

	if err := table.WriteBatch(records); err != nil {
		return errors.Wrap(err, "writing records")
	}

	count, err := table.ItemCount()
	if err != nil {
		return errors.Wrap(err, "counting items")
	}
	log.Infof("Done. %s contains %d items.", m.Table, count)
	return nil
}
