// Package device runs the per-device push registration flow: permission,
// platform registration, listener wiring and teardown.
package device

import "context"

type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)

// PlatformWeb names the plain browser runtime, which has no native push
// bridge.
const PlatformWeb = "web"

// ActionPerformed describes a tap on a delivered notification.
type ActionPerformed struct {
	ActionID string
	Data     map[string]string
}

// Platform is the native push bridge of one runtime.
type Platform interface {
	Name() string
	CheckPermissions(ctx context.Context) (PermissionState, error)
	RequestPermissions(ctx context.Context) (PermissionState, error)
	// Register asks the OS for a push token. The token arrives later through
	// the registration listener.
	Register(ctx context.Context) error
	OnRegistration(ctx context.Context, fn func(token string)) error
	OnRegistrationError(ctx context.Context, fn func(message string)) error
	OnNotificationAction(ctx context.Context, fn func(action ActionPerformed)) error
	RemoveAllListeners(ctx context.Context) error
}

// Web is the browser platform. Every operation is a no-op.
type Web struct{}

func (Web) Name() string { return PlatformWeb }
func (Web) CheckPermissions(context.Context) (PermissionState, error) {
	return PermissionPrompt, nil
}
func (Web) RequestPermissions(context.Context) (PermissionState, error) {
	return PermissionPrompt, nil
}
func (Web) Register(context.Context) error { return nil }
func (Web) OnRegistration(context.Context, func(string)) error { return nil }
func (Web) OnRegistrationError(context.Context, func(string)) error { return nil }
func (Web) OnNotificationAction(context.Context, func(ActionPerformed)) error { return nil }
func (Web) RemoveAllListeners(context.Context) error { return nil }
