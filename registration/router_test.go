package registration

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestRouter(store RecordStore, st Stats, maxStarts int) *Router {
	return NewRouter(RouterOptions{
		Machine:    NewMachine(store, st),
		CatchAll:   NewCatchAll(store),
		SessionTTL: time.Minute,
		Window:     time.Minute,
		MaxStarts:  maxStarts,
		Stats:      st,
	})
}

func TestDispatchSignupSingleReply(t *testing.T) {
	// The machine claims the update, so the catch-all stays silent.
	r := newTestRouter(newFakeStore(), newFakeStats(), 5)

	effects := r.Dispatch(context.Background(), Update{UserID: 1, Event: StartCommand{}})

	wantKinds(t, effects, EffectPromptPlatform)
	if _, ok := r.Sessions().Get(1); !ok {
		t.Fatal("signup must create a session")
	}
}

func TestDispatchUnclaimedNewUser(t *testing.T) {
	r := newTestRouter(newFakeStore(), newFakeStats(), 5)

	effects := r.Dispatch(context.Background(), Update{UserID: 1, Event: Text{Body: "hi"}})

	wantKinds(t, effects, EffectGreeting)
}

func TestDispatchUnclaimedCompletedUser(t *testing.T) {
	store := newFakeStore()
	store.recs[1] = &Record{UserID: 1, Step: StepCompleted}
	r := newTestRouter(store, newFakeStats(), 5)

	effects := r.Dispatch(context.Background(), Update{UserID: 1, Event: Text{Body: "hi"}})

	wantKinds(t, effects, EffectAlreadyRegistered)
}

func TestDispatchUnclaimedInterruptedUser(t *testing.T) {
	store := newFakeStore()
	store.recs[1] = &Record{UserID: 1, Platform: "1xBet", Step: StepEnteringWhatsApp}
	r := newTestRouter(store, newFakeStats(), 5)

	effects := r.Dispatch(context.Background(), Update{UserID: 1, Event: Text{Body: "hi"}})

	wantKinds(t, effects, EffectResumeHint)
}

func TestDispatchTagDoesNotLeakAcrossUpdates(t *testing.T) {
	// A claimed update must not mute the catch-all for the next one.
	store := newFakeStore()
	r := newTestRouter(store, newFakeStats(), 5)
	ctx := context.Background()

	wantKinds(t, r.Dispatch(ctx, Update{UserID: 1, Event: StartCommand{}}), EffectPromptPlatform)
	wantKinds(t, r.Dispatch(ctx, Update{UserID: 1, Event: PlatformChosen{Platform: "1xBet"}}), EffectPromptWhatsApp)
	// Invalid input: still claimed by the machine, still exactly one reply.
	wantKinds(t, r.Dispatch(ctx, Update{UserID: 1, Event: Text{Body: "abc"}}), EffectValidationError)
}

func TestDispatchRateLimited(t *testing.T) {
	// Starts beyond the window allowance are rejected without
	// touching the session or the record.
	store := newFakeStore()
	st := newFakeStats()
	r := newTestRouter(store, st, 2)
	ctx := context.Background()

	wantKinds(t, r.Dispatch(ctx, Update{UserID: 1, Event: StartCommand{}}), EffectPromptPlatform)
	wantKinds(t, r.Dispatch(ctx, Update{UserID: 1, Event: StartCommand{}}), EffectPromptPlatform)

	effects := r.Dispatch(ctx, Update{UserID: 1, Event: StartCommand{}})

	wantKinds(t, effects, EffectRateLimited)
	if len(store.saves) != 0 {
		t.Fatal("rate-limited start must not write the store")
	}
	sess, ok := r.Sessions().Get(1)
	if !ok {
		t.Fatal("session evicted by rate-limited start")
	}
	if sess.State != StatePlatform {
		t.Fatalf("session state changed to %s", sess.State)
	}
	if st.get("signup_rate_limited") != 1 {
		t.Fatalf("rate_limited metric = %d", st.get("signup_rate_limited"))
	}
}

func TestDispatchCompletionEvictsSession(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, newFakeStats(), 5)
	ctx := context.Background()

	r.Dispatch(ctx, Update{UserID: 1, Event: StartCommand{}})
	r.Dispatch(ctx, Update{UserID: 1, Event: PlatformChosen{Platform: "1xBet"}})
	r.Dispatch(ctx, Update{UserID: 1, Event: Text{Body: "01012345678"}})
	r.Dispatch(ctx, Update{UserID: 1, Event: PaymentMethodChosen{Method: MethodVodafoneCash}})
	effects := r.Dispatch(ctx, Update{UserID: 1, Event: Text{Body: "01012345678"}})

	wantKinds(t, effects, EffectDone)
	if _, ok := r.Sessions().Get(1); ok {
		t.Fatal("completed conversation must evict the session")
	}
	if store.recs[1] == nil || store.recs[1].Step != StepCompleted {
		t.Fatalf("record = %+v", store.recs[1])
	}

	// The very next message meets the already-registered catch-all.
	wantKinds(t, r.Dispatch(ctx, Update{UserID: 1, Event: Text{Body: "thanks"}}), EffectAlreadyRegistered)
}

func TestDispatchCompletedUserSignupThenText(t *testing.T) {
	// The menu route must not keep an empty session alive: the next message
	// belongs to the catch-all, not the machine's default branch.
	store := newFakeStore()
	store.recs[1] = &Record{UserID: 1, Step: StepCompleted}
	r := newTestRouter(store, newFakeStats(), 5)
	ctx := context.Background()

	wantKinds(t, r.Dispatch(ctx, Update{UserID: 1, Event: StartCommand{}}), EffectCompletedMenu)
	if _, ok := r.Sessions().Get(1); ok {
		t.Fatal("menu route must evict the session")
	}

	wantKinds(t, r.Dispatch(ctx, Update{UserID: 1, Event: Text{Body: "thanks"}}), EffectAlreadyRegistered)
}

func TestDispatchStartReadErrorEvictsSession(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	r := newTestRouter(store, newFakeStats(), 5)

	effects := r.Dispatch(context.Background(), Update{UserID: 1, Event: StartCommand{}})

	wantKinds(t, effects, EffectGenericError)
	if _, ok := r.Sessions().Get(1); ok {
		t.Fatal("failed start must evict the session")
	}
}

func TestDispatchCancelEvictsSession(t *testing.T) {
	r := newTestRouter(newFakeStore(), newFakeStats(), 5)
	ctx := context.Background()

	r.Dispatch(ctx, Update{UserID: 1, Event: StartCommand{}})
	effects := r.Dispatch(ctx, Update{UserID: 1, Event: CancelCommand{}})

	wantKinds(t, effects, EffectCancelled)
	if _, ok := r.Sessions().Get(1); ok {
		t.Fatal("cancelled conversation must evict the session")
	}
}

type panickingStore struct{}

func (panickingStore) Get(context.Context, int64) (*Record, error) { panic("boom") }
func (panickingStore) SaveStep(context.Context, int64, Step, Fields) error {
	panic("boom")
}

func TestDispatchRecoversPanics(t *testing.T) {
	r := newTestRouter(panickingStore{}, newFakeStats(), 5)

	effects := r.Dispatch(context.Background(), Update{UserID: 1, Event: StartCommand{}})

	wantKinds(t, effects, EffectGenericError)
}

func TestDispatchSerializesPerUser(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store, newFakeStats(), 100)
	ctx := context.Background()

	r.Dispatch(ctx, Update{UserID: 1, Event: StartCommand{}})

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			r.Dispatch(ctx, Update{UserID: 1, Event: PlatformChosen{Platform: "1xBet"}})
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	sess, ok := r.Sessions().Get(1)
	if !ok {
		t.Fatal("session missing")
	}
	if sess.State != StateWhatsApp || sess.Platform != "1xBet" {
		t.Fatalf("session = %+v", sess)
	}
}

func TestDispatchReleasesUserLocks(t *testing.T) {
	r := newTestRouter(newFakeStore(), newFakeStats(), 100)
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		userID := int64(i)
		go func() {
			defer func() { done <- struct{}{} }()
			r.Dispatch(ctx, Update{UserID: userID, Event: StartCommand{}})
			r.Dispatch(ctx, Update{UserID: userID, Event: PlatformChosen{Platform: "1xBet"}})
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	r.mu.Lock()
	n := len(r.locks)
	r.mu.Unlock()
	if n != 0 {
		t.Fatalf("locks map holds %d entries after all dispatches returned", n)
	}
}
