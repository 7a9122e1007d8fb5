package dashboard

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/vadimtrunov/MediaWatch/internal/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClient is an in-memory core.StatusClient with call counters.
type fakeClient struct {
	mu sync.Mutex

	authErr     error
	system      core.SystemInfo
	sessions    []core.Session
	sessionsErr error
	libraries   []core.RawLibrary
	librariesErr error
	counts      map[string]core.ItemCounts
	countErr    error

	authCalls      int
	librariesCalls int
	countCalls     int
}

var _ core.StatusClient = (*fakeClient)(nil)

func (f *fakeClient) Authenticate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	return f.authErr
}

func (f *fakeClient) FetchSystemInfo(context.Context) (core.SystemInfo, error) {
	return f.system, nil
}

func (f *fakeClient) FetchSessions(context.Context) ([]core.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, f.sessionsErr
}

func (f *fakeClient) FetchLibraries(context.Context) ([]core.RawLibrary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.librariesCalls++
	return f.libraries, f.librariesErr
}

func (f *fakeClient) CountItems(_ context.Context, lib core.RawLibrary, includeEpisodes bool) (core.ItemCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if f.countErr != nil {
		return core.ItemCounts{}, f.countErr
	}
	counts := f.counts[lib.ID]
	if !includeEpisodes {
		counts.Episodes = 0
	}
	return counts, nil
}

func (f *fakeClient) Name() string { return "fake" }

// fakePublisher records publishes and serves scripted errors per call.
type fakePublisher struct {
	mu sync.Mutex

	nextID   int
	sendErrs []error
	editErrs []error

	sendCalls int
	editCalls int
	editedIDs []int
	lastDoc   core.Document
	presence  []string
}

var _ core.Publisher = (*fakePublisher)(nil)

func (f *fakePublisher) SendDashboard(_ context.Context, doc core.Document) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls++
	f.lastDoc = doc
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakePublisher) EditDashboard(_ context.Context, messageID int, doc core.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editCalls++
	f.editedIDs = append(f.editedIDs, messageID)
	f.lastDoc = doc
	if len(f.editErrs) > 0 {
		err := f.editErrs[0]
		f.editErrs = f.editErrs[1:]
		return err
	}
	return nil
}

func (f *fakePublisher) SetPresence(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presence = append(f.presence, text)
	return nil
}

func (f *fakePublisher) lastPresence() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.presence) == 0 {
		return ""
	}
	return f.presence[len(f.presence)-1]
}
