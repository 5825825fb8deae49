package server

import (
	"sync"

	"github.com/goliatone/go-authflow"
)

// Effect types reported to the UI.
const (
	EffectNotifySuccess = "notify_success"
	EffectNotifyError   = "notify_error"
	EffectNavigate      = "navigate"
	EffectRedirect      = "redirect"
	EffectBack          = "back"
)

// Effect is a notification or navigation produced by a screen. The UI
// replays effects in order.
type Effect struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Route   string `json:"route,omitempty"`
	URL     string `json:"url,omitempty"`
}

// effectRecorder collects screen effects until the next response drains
// them. It is the screen's Notifier and Navigator.
type effectRecorder struct {
	mu      sync.Mutex
	pending []Effect
}

var (
	_ authflow.Notifier      = (*effectRecorder)(nil)
	_ authflow.Navigator     = (*effectRecorder)(nil)
	_ authflow.BackNavigator = (*effectRecorder)(nil)
	_ authflow.Redirector    = (*effectRecorder)(nil)
)

func (r *effectRecorder) push(e Effect) {
	r.mu.Lock()
	r.pending = append(r.pending, e)
	r.mu.Unlock()
}

func (r *effectRecorder) NotifySuccess(title, message string) {
	r.push(Effect{Type: EffectNotifySuccess, Title: title, Message: message})
}

func (r *effectRecorder) NotifyError(title, message string) {
	r.push(Effect{Type: EffectNotifyError, Title: title, Message: message})
}

func (r *effectRecorder) NavigateTo(route authflow.RouteKey) {
	r.push(Effect{Type: EffectNavigate, Route: string(route)})
}

func (r *effectRecorder) RedirectTo(url string) {
	r.push(Effect{Type: EffectRedirect, URL: url})
}

func (r *effectRecorder) Back() {
	r.push(Effect{Type: EffectBack})
}

// drain returns and clears the pending effects.
func (r *effectRecorder) drain() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	if out == nil {
		out = []Effect{}
	}
	return out
}
