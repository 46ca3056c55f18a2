// Package testutils provides test doubles for gemichat: a scripted fake backend and
// in-memory stand-ins for the terminal surface, clipboard and scheduler.
package testutils

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// APIPrefix is where the fake backend mounts its routes, like the real deployment.
const APIPrefix = "/api"

// RecordedRequest is what the fake backend saw for one request.
type RecordedRequest struct {
	Route            string
	Method           string
	ContentType      string
	UserAgent        string
	Message          string
	Token            string
	HasMessage       bool
	Image            []byte
	ImageFilename    string
	ImageContentType string
	Cookies          map[string]string
}

// Reply scripts one backend response. A non-nil Hold delays the response until
// the channel is closed, which keeps the request in flight.
type Reply struct {
	Status  int
	Body    string
	Cookies []*http.Cookie
	Hold    chan struct{}
}

// FakeBackend is an httptest server speaking the /ask-gemini and /reset contract.
// Without scripted replies it echoes chat messages and acknowledges resets.
type FakeBackend struct {
	*httptest.Server

	mu           sync.Mutex
	requests     []RecordedRequest
	chatReplies  []Reply
	resetReplies []Reply
}

// NewFakeBackend starts a backend; callers must Close it.
func NewFakeBackend() *FakeBackend {
	b := &FakeBackend{}

	r := chi.NewRouter()
	r.Route(APIPrefix, func(r chi.Router) {
		r.Post("/ask-gemini", b.handleChat)
		r.Post("/reset", b.handleReset)
	})

	b.Server = httptest.NewServer(r)
	return b
}

// Endpoint returns the base URL to configure the client with.
func (b *FakeBackend) Endpoint() string {
	return b.URL + APIPrefix
}

// QueueChat scripts the next chat response.
func (b *FakeBackend) QueueChat(reply Reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chatReplies = append(b.chatReplies, reply)
}

// QueueReset scripts the next reset response.
func (b *FakeBackend) QueueReset(reply Reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetReplies = append(b.resetReplies, reply)
}

// Requests returns a copy of every request received so far.
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns how many requests hit route ("/ask-gemini" or "/reset").
func (b *FakeBackend) Count(route string) int {
	n := 0
	for _, req := range b.Requests() {
		if req.Route == route {
			n++
		}
	}
	return n
}

func (b *FakeBackend) handleChat(w http.ResponseWriter, r *http.Request) {
	recorded := b.record("/ask-gemini", r)

	reply, ok := b.next(&b.chatReplies)
	if !ok {
		if !recorded.HasMessage {
			reply = Reply{Status: http.StatusOK, Body: "No message provided"}
		} else {
			reply = Reply{Status: http.StatusOK, Body: "Received query: " + recorded.Message}
		}
		if _, err := r.Cookie("user_token"); err != nil && recorded.Token != "" {
			reply.Cookies = []*http.Cookie{{Name: "user_token", Value: recorded.Token, Path: "/", MaxAge: 7 * 24 * 3600}}
		}
	}
	b.respond(w, reply)
}

func (b *FakeBackend) handleReset(w http.ResponseWriter, r *http.Request) {
	b.record("/reset", r)

	reply, ok := b.next(&b.resetReplies)
	if !ok {
		reply = Reply{Status: http.StatusOK, Body: "🤖 History Reset"}
	}
	b.respond(w, reply)
}

func (b *FakeBackend) record(route string, r *http.Request) RecordedRequest {
	recorded := RecordedRequest{
		Route:       route,
		Method:      r.Method,
		ContentType: r.Header.Get("Content-Type"),
		UserAgent:   r.UserAgent(),
		Cookies:     make(map[string]string),
	}

	if strings.HasPrefix(recorded.ContentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err == nil {
			if file, header, err := r.FormFile("image"); err == nil {
				recorded.Image, _ = io.ReadAll(file)
				recorded.ImageFilename = header.Filename
				recorded.ImageContentType = header.Header.Get("Content-Type")
				_ = file.Close()
			}
		}
	} else {
		_ = r.ParseForm()
	}

	_, recorded.HasMessage = r.Form["message"]
	recorded.Message = r.FormValue("message")
	recorded.Token = r.FormValue("token")
	for _, c := range r.Cookies() {
		recorded.Cookies[c.Name] = c.Value
	}

	b.mu.Lock()
	b.requests = append(b.requests, recorded)
	b.mu.Unlock()
	return recorded
}

func (b *FakeBackend) next(queue *[]Reply) (Reply, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(*queue) == 0 {
		return Reply{}, false
	}
	reply := (*queue)[0]
	*queue = (*queue)[1:]
	return reply, true
}

func (b *FakeBackend) respond(w http.ResponseWriter, reply Reply) {
	if reply.Hold != nil {
		<-reply.Hold
	}
	for _, c := range reply.Cookies {
		http.SetCookie(w, c)
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, reply.Body)
}
