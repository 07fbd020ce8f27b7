package main

import (
	"log"
	"os"

	"github.com/jaffee/commandeer/pflag"

	"github.com/facetdata/fddb-ingest/ingest"
)

func logFailure(m *ingest.Main, panicking bool, v interface{}) {
	l := m.Log()
	if panicking {
		l.Panicf("Panic running command: %+v", v)
	} else {
		l.Errorf("Error running command: %+v", v)
	}
}

func main() {
	m := ingest.NewMain()
	if err := pflag.LoadEnv(m, "FDDB_", nil); err != nil {
		log.Fatal(err)
	}

	// Capture any panic and log it before dying.
	defer func() {
		if r := recover(); r != nil {
			logFailure(m, true, r)
			os.Exit(1)
		}
	}()

	if m.DryRun {
		log.Printf("%+v\n", m)
		return
	}

	if err := m.Run(); err != nil {
		logFailure(m, false, err)
		os.Exit(1)
	}
}
