package state_test

import (
	"sync"
	"testing"

	"coursesynth.app/api/internal/state"
	"github.com/stretchr/testify/require"
)

func TestSaveChaptersAppendsAndBuildsString(t *testing.T) {
	s := state.New()
	s.Init(1, 100, "learn go", 4, "en", "beginner")

	s.SaveChapters(1, 100, []state.ChapterState{{Caption: "Intro"}})
	s.SaveChapters(1, 100, []state.ChapterState{{Caption: "Goroutines"}})

	ws := s.Get(1, 100)
	require.Len(t, ws.Chapters, 2)
	require.Equal(t, "Intro\nGoroutines\n", ws.ChaptersStr)
}

func TestNotSharedAcrossDistinctKeys(t *testing.T) {
	s := state.New()
	s.Init(1, 100, "go", 1, "en", "easy")
	s.Init(2, 200, "rust", 1, "en", "easy")

	s.SaveChapters(1, 100, []state.ChapterState{{Caption: "A"}})

	require.Len(t, s.Get(1, 100).Chapters, 1)
	require.Empty(t, s.Get(2, 200).Chapters)
}

func TestConcurrentMutationIsSafe(t *testing.T) {
	s := state.New()
	s.Init(1, 100, "go", 1, "en", "easy")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SaveChapters(1, 100, []state.ChapterState{{Caption: "x"}})
		}()
	}
	wg.Wait()

	require.Len(t, s.Get(1, 100).Chapters, 50)
}
