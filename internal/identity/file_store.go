package identity

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"gemichat/internal/logger"
)

// storedCookie is the on-disk form of a cookie. An empty Domain marks a cookie
// created by the client itself; it is sent to whichever backend is configured.
type storedCookie struct {
	Name    string    `yaml:"name"`
	Value   string    `yaml:"value"`
	Path    string    `yaml:"path,omitempty"`
	Domain  string    `yaml:"domain,omitempty"`
	Expires time.Time `yaml:"expires,omitempty"`
}

type cookieFile struct {
	Cookies []storedCookie `yaml:"cookies"`
}

// FileStore persists cookies in a YAML file. It is both the CookieStore used by
// the identity Provider and the http.CookieJar of the gateway's HTTP client, so
// cookies set by the backend survive restarts as they would in a browser.
type FileStore struct {
	mu      sync.Mutex
	path    string
	cookies []storedCookie
	loaded  bool
	now     func() time.Time
}

var _ http.CookieJar = (*FileStore)(nil)

// NewFileStore creates a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		now:  time.Now,
	}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value of the named client cookie.
func (f *FileStore) Get(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		logger.Warn("Failed to read cookie file", "path", f.path, "error", err)
		return "", false
	}

	now := f.now()
	var fallback *storedCookie
	for i := range f.cookies {
		c := &f.cookies[i]
		if c.Name != name || c.expired(now) {
			continue
		}
		if c.Domain == "" {
			return c.Value, true
		}
		if fallback == nil {
			fallback = c
		}
	}
	if fallback != nil {
		return fallback.Value, true
	}
	return "", false
}

// Set stores a client cookie and writes the file.
func (f *FileStore) Set(cookie *http.Cookie) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return err
	}

	path := cookie.Path
	if path == "" {
		path = "/"
	}
	f.upsert(storedCookie{
		Name:    cookie.Name,
		Value:   cookie.Value,
		Path:    path,
		Domain:  strings.TrimPrefix(cookie.Domain, "."),
		Expires: cookie.Expires,
	})
	return f.save()
}

// SetCookies implements http.CookieJar.
func (f *FileStore) SetCookies(u *url.URL, cookies []*http.Cookie) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		logger.Warn("Failed to read cookie file", "path", f.path, "error", err)
		return
	}

	now := f.now()
	for _, c := range cookies {
		domain := strings.TrimPrefix(c.Domain, ".")
		if domain == "" {
			domain = u.Hostname()
		}
		path := c.Path
		if path == "" {
			path = "/"
		}

		stored := storedCookie{Name: c.Name, Value: c.Value, Path: path, Domain: domain}
		switch {
		case c.MaxAge < 0:
			f.remove(stored)
			continue
		case c.MaxAge > 0:
			stored.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			if !c.Expires.After(now) {
				f.remove(stored)
				continue
			}
			stored.Expires = c.Expires
		}
		f.upsert(stored)
	}

	if err := f.save(); err != nil {
		logger.Warn("Failed to write cookie file", "path", f.path, "error", err)
	}
}

// Cookies implements http.CookieJar.
func (f *FileStore) Cookies(u *url.URL) []*http.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		logger.Warn("Failed to read cookie file", "path", f.path, "error", err)
		return nil
	}

	host := u.Hostname()
	requestPath := u.Path
	if requestPath == "" {
		requestPath = "/"
	}

	now := f.now()
	var out []*http.Cookie
	for _, c := range f.cookies {
		if c.expired(now) || !c.matchesDomain(host) || !strings.HasPrefix(requestPath, c.Path) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

func (c storedCookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

func (c storedCookie) matchesDomain(host string) bool {
	if c.Domain == "" {
		return true
	}
	return host == c.Domain || strings.HasSuffix(host, "."+c.Domain)
}

func (f *FileStore) upsert(cookie storedCookie) {
	for i, existing := range f.cookies {
		if existing.Name == cookie.Name && existing.Domain == cookie.Domain && existing.Path == cookie.Path {
			f.cookies[i] = cookie
			return
		}
	}
	f.cookies = append(f.cookies, cookie)
}

func (f *FileStore) remove(cookie storedCookie) {
	kept := f.cookies[:0]
	for _, existing := range f.cookies {
		if existing.Name == cookie.Name && existing.Domain == cookie.Domain && existing.Path == cookie.Path {
			continue
		}
		kept = append(kept, existing)
	}
	f.cookies = kept
}

// load reads the file once. Callers hold f.mu.
func (f *FileStore) load() error {
	if f.loaded {
		return nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read cookie file: %w", err)
	}

	var file cookieFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse cookie file %s: %w", f.path, err)
	}
	f.cookies = file.Cookies
	f.loaded = true
	return nil
}

// save writes the file atomically. Callers hold f.mu.
func (f *FileStore) save() error {
	data, err := yaml.Marshal(cookieFile{Cookies: f.cookies})
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create cookie directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write cookie file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace cookie file: %w", err)
	}
	return nil
}
