package snowflake

import (
	"testing"
	"time"
)

func TestSetup(t *testing.T) {
	err := Setup(maxWorkerID + 1)
	if err == nil {
		t.Error("expected an error for an out of range worker id")
	}

	err = Setup(3)
	if err != nil {
		t.Fatal(err)
	}

	err = Setup(3)
	if err == nil {
		t.Error("expected an error when the worker id is already set")
	}
}

func TestGenerateOrdering(t *testing.T) {
	previous, err := Generate()
	if err != nil {
		t.Fatal(err)
	}

	// more ids than one millisecond's sequence space, the generator has to
	// roll over to the next millisecond without breaking order
	for range 5000 {
		id, err := Generate()
		if err != nil {
			t.Fatal(err)
		}
		if id <= previous {
			t.Fatalf("expected ids to increase, got %d after %d", id, previous)
		}
		previous = id
	}
}

func TestIDFields(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatal(err)
	}

	if WorkerID(id) != 3 {
		t.Errorf("expected worker id 3, got %d", WorkerID(id))
	}

	if Sequence(id) > maxSequence {
		t.Errorf("sequence %d out of range", Sequence(id))
	}

	age := time.Since(Time(id))
	if age < -time.Minute || age > time.Minute {
		t.Errorf("expected the embedded timestamp to be about now, got %v", Time(id))
	}
}
