package device

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wordreminder/internal/logger"
)

var ErrPermissionDenied = errors.New("push notification permission denied")

const (
	deniedMessage  = "Push Notification permission denied."
	enabledMessage = "Push notifications enabled."
)

type State string

const (
	StateIdle              State = "idle"
	StatePlatformCheck     State = "platform_check"
	StatePermissionCheck   State = "permission_check"
	StatePermissionRequest State = "permission_request"
	StateRegistered        State = "registered"
	StateListenersActive   State = "listeners_active"
	StateFailed            State = "failed"
	StateTorndown          State = "torndown"
)

// TokenCreator hands a device token to the server side registry.
type TokenCreator interface {
	CreateFCMToken(ctx context.Context, userID, token string) error
}

// Navigator routes the client to a path.
type Navigator interface {
	Navigate(path string)
}

// Notifier surfaces outcomes to the user; banner.Surface implements it.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type Config struct {
	UserID    string
	Platform  Platform
	Tokens    TokenCreator
	Navigator Navigator
	Notifier  Notifier
}

// Flow is the registration state machine of one device and user. Runs are
// serialized; every platform step finishes before the next one starts.
type Flow struct {
	cfg Config

	run sync.Mutex

	mu    sync.Mutex
	state State
	// gen counts teardowns. A run, and the listeners it wires, belong to the
	// generation current when the run was started.
	gen uint64
	// wired is set while listeners of generation wiredGen are attached.
	wired    bool
	wiredGen uint64
}

func NewFlow(cfg Config) *Flow {
	return &Flow{cfg: cfg, state: StateIdle}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *Flow) generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

// stale reports whether a teardown happened after generation gen began.
func (f *Flow) stale(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen != gen
}

func (f *Flow) listenersWired(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wired && f.wiredGen == gen
}

func (f *Flow) isWeb() bool {
	return f.cfg.Platform == nil || f.cfg.Platform.Name() == PlatformWeb
}

// Register is the user initiated entry point. It requests permission when
// needed; a denial shows one error and ends the attempt with
// ErrPermissionDenied.
func (f *Flow) Register(ctx context.Context) error {
	return f.start(ctx, true, f.generation())
}

// Mount is the session bound entry point. It registers in the background
// only if permission was already granted and returns the teardown to call
// when the session ends. done yields the outcome of the background run.
func (f *Flow) Mount(ctx context.Context) (teardown func(), done <-chan error) {
	gen := f.generation()
	ch := make(chan error, 1)
	go func() {
		ch <- f.start(ctx, false, gen)
	}()
	return func() {
		if err := f.Teardown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("push listener teardown failed", "error", err)
		}
	}, ch
}

func (f *Flow) start(ctx context.Context, request bool, gen uint64) error {
	f.run.Lock()
	defer f.run.Unlock()

	f.setState(StatePlatformCheck)
	if f.isWeb() {
		f.setState(StateIdle)
		return nil
	}
	p := f.cfg.Platform

	f.setState(StatePermissionCheck)
	status, err := p.CheckPermissions(ctx)
	if err != nil {
		return f.fail(fmt.Errorf("check permissions: %w", err))
	}

	if status != PermissionGranted {
		if !request {
			f.setState(StateIdle)
			return nil
		}
		f.setState(StatePermissionRequest)
		status, err = p.RequestPermissions(ctx)
		if err != nil {
			return f.fail(fmt.Errorf("request permissions: %w", err))
		}
		if status != PermissionGranted {
			f.setState(StateFailed)
			f.cfg.Notifier.Error(deniedMessage)
			return ErrPermissionDenied
		}
	}

	// Pending steps may resolve after teardown; they must not wire anything.
	if f.abortIfStale(gen) {
		return nil
	}
	if err := p.Register(ctx); err != nil {
		return f.fail(fmt.Errorf("register: %w", err))
	}
	f.setState(StateRegistered)

	if f.abortIfStale(gen) {
		return nil
	}
	// A second run in the same generation reuses the listeners already wired.
	if !f.listenersWired(gen) {
		if err := f.addListeners(ctx, p, gen); err != nil {
			return f.fail(fmt.Errorf("add listeners: %w", err))
		}
		if f.abortIfStale(gen) {
			_ = p.RemoveAllListeners(context.WithoutCancel(ctx))
			return nil
		}
		f.mu.Lock()
		f.wired = true
		f.wiredGen = gen
		f.mu.Unlock()
	}
	f.setState(StateListenersActive)
	return nil
}

func (f *Flow) addListeners(ctx context.Context, p Platform, gen uint64) error {
	// Listener callbacks outlive the call that wired them.
	listenCtx := context.WithoutCancel(ctx)

	if err := p.OnRegistration(ctx, func(token string) {
		if f.stale(gen) {
			return
		}
		if err := f.cfg.Tokens.CreateFCMToken(listenCtx, f.cfg.UserID, token); err != nil {
			logger.Error("failed to save push token", "user_id", f.cfg.UserID, "error", err)
			f.cfg.Notifier.Error(err.Error())
			return
		}
		f.cfg.Notifier.Success(enabledMessage)
	}); err != nil {
		return err
	}

	if err := p.OnRegistrationError(ctx, func(message string) {
		if f.stale(gen) {
			return
		}
		f.cfg.Notifier.Error(message)
	}); err != nil {
		return err
	}

	return p.OnNotificationAction(ctx, func(action ActionPerformed) {
		if f.stale(gen) {
			return
		}
		id := action.Data["wordReminderId"]
		if id == "" || f.cfg.Navigator == nil {
			return
		}
		f.cfg.Navigator.Navigate("/wordReminders/" + id)
	})
}

func (f *Flow) abortIfStale(gen uint64) bool {
	if f.stale(gen) {
		f.setState(StateTorndown)
		return true
	}
	return false
}

func (f *Flow) fail(err error) error {
	f.setState(StateFailed)
	f.cfg.Notifier.Error(err.Error())
	return err
}

// Teardown stops listening. In-flight steps are not aborted; they see the
// teardown and stop before wiring listeners. On web it does nothing.
func (f *Flow) Teardown(ctx context.Context) error {
	if f.isWeb() {
		return nil
	}
	f.mu.Lock()
	f.gen++
	f.wired = false
	f.state = StateTorndown
	f.mu.Unlock()
	return f.cfg.Platform.RemoveAllListeners(ctx)
}
