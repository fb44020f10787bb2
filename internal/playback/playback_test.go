package playback

import (
	"context"
	"encoding/base64"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func TestSpeaker_PlaysAndReportsCompletion(t *testing.T) {
	player := &FakePlayer{}
	s := New(player)

	var done atomic.Int32
	if err := s.Speak(encode([]byte("clip-one")), "mp3", func() { done.Add(1) }); err != nil {
		t.Fatalf("speak: %v", err)
	}

	waitFor(t, func() bool { return done.Load() == 1 }, "completion callback")
	waitFor(t, func() bool { return !s.Playing() }, "playback to settle")

	clips := player.Clips()
	if len(clips) != 1 || string(clips[0]) != "clip-one" {
		t.Errorf("unexpected clips: %v", clips)
	}
	if formats := player.Formats(); len(formats) != 1 || formats[0] != "mp3" {
		t.Errorf("unexpected formats: %v", formats)
	}
}

func TestSpeaker_CancelSuppressesCompletion(t *testing.T) {
	player := &FakePlayer{Manual: true}
	s := New(player)

	var done atomic.Int32
	if err := s.Speak(encode([]byte("clip")), "mp3", func() { done.Add(1) }); err != nil {
		t.Fatalf("speak: %v", err)
	}
	waitFor(t, func() bool { return len(player.Clips()) == 1 }, "play to begin")

	s.Cancel()
	waitFor(t, func() bool { return !s.Playing() }, "cancel to settle")

	time.Sleep(20 * time.Millisecond)
	if done.Load() != 0 {
		t.Error("completion callback ran for a cancelled clip")
	}
}

func TestSpeaker_NewClipCancelsPrevious(t *testing.T) {
	player := &FakePlayer{Manual: true}
	s := New(player)

	var firstDone, secondDone atomic.Int32
	if err := s.Speak(encode([]byte("first")), "mp3", func() { firstDone.Add(1) }); err != nil {
		t.Fatalf("speak first: %v", err)
	}
	waitFor(t, func() bool { return len(player.Clips()) == 1 }, "first play to begin")

	if err := s.Speak(encode([]byte("second")), "mp3", func() { secondDone.Add(1) }); err != nil {
		t.Fatalf("speak second: %v", err)
	}
	waitFor(t, func() bool { return len(player.Clips()) == 2 }, "second play to begin")

	player.Finish()
	waitFor(t, func() bool { return secondDone.Load() == 1 }, "second completion")

	if firstDone.Load() != 0 {
		t.Error("completion callback ran for the superseded clip")
	}
}

func TestSpeaker_RejectsMalformedAudio(t *testing.T) {
	player := &FakePlayer{}
	s := New(player)

	if err := s.Speak("not-base64!!!", "mp3", nil); err == nil {
		t.Fatal("expected decode error")
	}
	if len(player.Clips()) != 0 {
		t.Error("player must not be invoked for malformed audio")
	}
	if s.Playing() {
		t.Error("speaker must stay idle after a decode failure")
	}
}

func TestTimedPlayer_HonorsCancellation(t *testing.T) {
	player := &TimedPlayer{BytesPerSecond: 1} // one hour per clip
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- player.Play(ctx, make([]byte, 3600), "mp3")
	}()
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("play did not stop on cancellation")
	}
}
