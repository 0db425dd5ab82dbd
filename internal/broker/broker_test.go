package broker

import (
	"sync"
	"testing"
)

func TestBroker_PublishDeliversToSubscriber(t *testing.T) {
	b := New()
	h := b.Subscribe(1, 10)
	defer b.Unsubscribe(h)

	b.Publish(1, "hello")

	select {
	case msg := <-h.Queue():
		if msg != "hello" {
			t.Errorf("got %v, want hello", msg)
		}
	default:
		t.Fatal("expected a message")
	}
}

func TestBroker_PublishToNoSubscribersIsNoop(t *testing.T) {
	b := New()
	b.Publish(99, "nobody home")
}

// TestBroker_SlowConsumerDropOldest mirrors scenario S6: subscribe with
// queue cap 4, publish 10 messages without draining. The queue ends with
// exactly 4 messages: the most recent ones survive the drop-oldest policy.
func TestBroker_SlowConsumerDropOldest(t *testing.T) {
	b := New()
	h := b.Subscribe(1, 4)
	defer b.Unsubscribe(h)

	for i := 0; i < 10; i++ {
		b.Publish(1, i)
	}

	if got := len(h.queue); got != 4 {
		t.Fatalf("expected queue length 4, got %d", got)
	}

	var got []int
	for i := 0; i < 4; i++ {
		got = append(got, (<-h.Queue()).(int))
	}
	want := []int{6, 7, 8, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue contents = %v, want %v", got, want)
		}
	}
}

func TestBroker_UnsubscribeRemovesHandle(t *testing.T) {
	b := New()
	h := b.Subscribe(1, 10)
	b.Unsubscribe(h)

	if b.AnySubscribers([]int64{1}) {
		t.Fatal("expected no subscribers after unsubscribe")
	}
}

func TestBroker_AnySubscribers(t *testing.T) {
	b := New()
	if b.AnySubscribers([]int64{1, 2, 3}) {
		t.Fatal("expected false with no subscribers")
	}
	h := b.Subscribe(2, 10)
	defer b.Unsubscribe(h)
	if !b.AnySubscribers([]int64{1, 2, 3}) {
		t.Fatal("expected true once user 2 is subscribed")
	}
}

func TestBroker_MultipleSubscribersSameUser(t *testing.T) {
	b := New()
	h1 := b.Subscribe(1, 10)
	h2 := b.Subscribe(1, 10)
	defer b.Unsubscribe(h1)
	defer b.Unsubscribe(h2)

	b.Publish(1, "x")

	if len(h1.queue) != 1 || len(h2.queue) != 1 {
		t.Fatalf("expected both subscribers to receive the message")
	}
}

func TestBroker_ConcurrentPublishDoesNotRace(t *testing.T) {
	b := New()
	h := b.Subscribe(1, 50)
	defer b.Unsubscribe(h)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b.Publish(1, n)
		}(i)
	}
	wg.Wait()
}
