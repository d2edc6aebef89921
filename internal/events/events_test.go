package events

import "testing"

func TestSink_EmitFansOutToAllHandlers(t *testing.T) {
	s := New()

	var gotA, gotB []SingleDownloadProgressPayload
	s.On(SingleDownloadProgress, func(data any) {
		gotA = append(gotA, data.(SingleDownloadProgressPayload))
	})
	s.On(SingleDownloadProgress, func(data any) {
		gotB = append(gotB, data.(SingleDownloadProgressPayload))
	})

	s.EmitSingleDownloadProgress("file.jar", 10, 100)

	if len(gotA) != 1 || len(gotB) != 1 {
		t.Fatalf("expected both handlers to receive the event, got %d and %d", len(gotA), len(gotB))
	}
	if gotA[0].Path != "file.jar" || gotA[0].BytesSoFar != 10 || gotA[0].TotalBytes != 100 {
		t.Errorf("unexpected payload: %+v", gotA[0])
	}
}

func TestSink_NoListenersIsNoop(t *testing.T) {
	s := New()
	s.EmitConsole("hello") // must not panic
}

func TestSink_NilSinkIsNoop(t *testing.T) {
	var s *Sink
	s.On(Console, func(data any) {})
	s.EmitConsole("hello") // must not panic
}

func TestSink_OnlyMatchingEventFires(t *testing.T) {
	s := New()
	called := false
	s.On(Console, func(data any) { called = true })
	s.EmitMultipleDownloadProgress("x", 1, 2)
	if called {
		t.Fatal("expected the console handler to not fire for a different event name")
	}
}
