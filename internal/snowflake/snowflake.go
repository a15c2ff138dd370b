// Package snowflake generates the creation ordered 64 bit ids every entity
// row is keyed by: 42 bits of milliseconds since the project epoch, 10 bits
// of worker id, 12 bits of per millisecond sequence. Creation order being
// total across a worker is what lets message pagination use plain id
// comparison as its cursor.
package snowflake

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// 2024-01-01T00:00:00Z. Counting from a recent epoch instead of 1970 keeps
// the 42 bit timestamp field good for well over a century.
const epochMillis int64 = 1704067200000

const (
	workerBits   = 10
	sequenceBits = 12

	maxWorkerID = 1<<workerBits - 1
	maxSequence = 1<<sequenceBits - 1

	workerShift    = sequenceBits
	timestampShift = sequenceBits + workerBits
)

var (
	mutex      sync.Mutex
	lastMillis int64
	sequence   int64
	workerID   int64
	configured bool
)

func Setup(id int64) error {
	if id < 0 || id > maxWorkerID {
		return fmt.Errorf("worker id must be between 0 and %d", maxWorkerID)
	}

	mutex.Lock()
	defer mutex.Unlock()

	if configured {
		return errors.New("snowflake worker id is already set")
	}
	workerID = id
	configured = true
	return nil
}

func Generate() (int64, error) {
	mutex.Lock()
	defer mutex.Unlock()

	now := time.Now().UnixMilli() - epochMillis
	if now < lastMillis {
		return 0, fmt.Errorf("clock moved backwards by %dms", lastMillis-now)
	}

	if now == lastMillis {
		sequence++
		if sequence > maxSequence {
			// sequence exhausted, spin to the next millisecond
			for now <= lastMillis {
				now = time.Now().UnixMilli() - epochMillis
			}
			sequence = 0
		}
	} else {
		sequence = 0
	}
	lastMillis = now

	return now<<timestampShift | workerID<<workerShift | sequence, nil
}

// Time reports when the id was generated.
func Time(id int64) time.Time {
	return time.UnixMilli(id>>timestampShift + epochMillis)
}

func WorkerID(id int64) int64 {
	return id >> workerShift & maxWorkerID
}

func Sequence(id int64) int64 {
	return id & maxSequence
}
