package eventbus

import "testing"

func TestBusTopicIsolation(t *testing.T) {
	b := New()
	defer b.Close()
	a := b.Subscribe(HolderTopic("a"))
	c := b.Subscribe(HolderTopic("c"))

	b.Publish(HolderTopic("a"), "for-a")

	select {
	case e := <-a:
		if e != "for-a" {
			t.Fatalf("unexpected event %v", e)
		}
	default:
		t.Fatal("subscriber a received nothing")
	}
	select {
	case e := <-c:
		t.Fatalf("subscriber c received %v", e)
	default:
	}
}

func TestBusPerTopicFIFO(t *testing.T) {
	b := New()
	defer b.Close()
	ch := b.Subscribe(RequesterTopic("r1"))
	for i := 0; i < 5; i++ {
		b.Publish(RequesterTopic("r1"), i)
	}
	for i := 0; i < 5; i++ {
		if got := <-ch; got != i {
			t.Fatalf("expected %d got %v", i, got)
		}
	}
}

func TestBusFirehose(t *testing.T) {
	b := New()
	defer b.Close()
	all := b.SubscribeAll()
	b.Publish(HolderTopic("h1"), "x")
	msg := <-all
	if msg.Topic != HolderTopic("h1") || msg.Event != "x" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestBusNonBlockingPublish(t *testing.T) {
	b := New()
	defer b.Close()
	b.Subscribe(TopicGlobal)
	// Overflow the buffer; Publish must not block.
	for i := 0; i < 100; i++ {
		b.Publish(TopicGlobal, i)
	}
}

func TestBusUnsubscribeAndClose(t *testing.T) {
	b := New()
	ch := b.Subscribe(TopicGlobal)
	b.Unsubscribe(TopicGlobal, ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed on unsubscribe")
	}
	all := b.SubscribeAll()
	b.Close()
	if _, ok := <-all; ok {
		t.Fatal("firehose channel not closed on Close")
	}
	// Publish after close must be a no-op.
	b.Publish(TopicGlobal, "late")
}
