package progress

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilTrackerIsNoop(t *testing.T) {
	var tr *Tracker
	assert.NotPanics(t, func() {
		tr.Tick()
		tr.Done()
		tr.Fail(errors.New("x"))
	})
}

func TestTrackerConcurrentTicks(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf, "scanning", 50)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Tick()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), tr.bar.State().CurrentNum)
	tr.Done()
}

func TestTrackerFail(t *testing.T) {
	var buf bytes.Buffer
	tr := NewSpinner(&buf, "loading report")
	tr.Fail(errors.New("bad json"))
	assert.Contains(t, buf.String(), "loading report error: bad json")
}
