package channel

import (
	"testing"
	"time"
)

func TestReadinessFiresOnce(t *testing.T) {
	t.Parallel()

	r := newReadiness()

	// Observer attached before fulfillment.
	early := make(chan struct{})
	go func() {
		<-r.done()
		close(early)
	}()

	if r.fired() {
		t.Fatal("fired() = true before fire()")
	}

	r.fire()
	r.fire() // repeated fulfillment is a no-op

	select {
	case <-early:
	case <-time.After(time.Second):
		t.Fatal("early observer not released")
	}

	// Observer attached after fulfillment sees it too.
	select {
	case <-r.done():
	default:
		t.Error("late observer does not see fulfillment")
	}
	if !r.fired() {
		t.Error("fired() = false after fire()")
	}
}
