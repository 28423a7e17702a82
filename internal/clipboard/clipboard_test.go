package clipboard

import "testing"

func TestSubscribeAndRelease(t *testing.T) {
	feed := NewFeed()

	var got []string
	release := feed.Subscribe(func(p Paste) { got = append(got, p.Text) })

	if n := feed.Publish(Paste{Text: "one"}); n != 1 {
		t.Errorf("Expected 1 receiver, got %d", n)
	}

	release()
	release() // second call is a no-op

	if n := feed.Publish(Paste{Text: "two"}); n != 0 {
		t.Errorf("Expected 0 receivers after release, got %d", n)
	}
	if feed.Len() != 0 {
		t.Errorf("Expected no subscriptions, got %d", feed.Len())
	}
	if len(got) != 1 || got[0] != "one" {
		t.Errorf("Expected [one], got %v", got)
	}
}

func TestPublishDropsEmptyPaste(t *testing.T) {
	feed := NewFeed()
	called := false
	defer feed.Subscribe(func(Paste) { called = true })()

	if n := feed.Publish(Paste{}); n != 0 {
		t.Errorf("Expected empty paste to be dropped, got %d receivers", n)
	}
	if called {
		t.Error("Expected handler not to be called for empty paste")
	}
}
