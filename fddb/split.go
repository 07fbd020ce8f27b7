package fddb

import (
	"math"
	"math/rand"

	"github.com/facetdata/fddb-ingest/errors"
)

// Split tags each record with a partition, in place: a uniform random
// testFraction-sized subset becomes the test partition, the rest train. The
// shuffle is driven by the given seed, so identical input and seed always
// produce the identical assignment. No record is dropped or duplicated.
func Split(records []Record, testFraction float64, seed int64) error {
	if testFraction <= 0 || testFraction >= 1 {
		return errors.Errorf("test fraction must be in (0,1), got %v", testFraction)
	}
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(records))
	numTest := int(math.Round(testFraction * float64(len(records))))
	for i, idx := range perm {
		if i < numTest {
			records[idx].TrainSet = Test
		} else {
			records[idx].TrainSet = Train
		}
	}
	return nil
}
