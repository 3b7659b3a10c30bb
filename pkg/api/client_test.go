package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func jsonDecode(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func TestFetchMe_BearerMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/me" {
			t.Errorf("path = %q, want /api/users/me", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok1" {
			t.Errorf("Authorization = %q, want Bearer tok1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"uid":"abc","email":"u@adscity.net","role":"user"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	profile, err := c.FetchMe(context.Background(), "tok1")
	if err != nil {
		t.Fatalf("FetchMe failed: %v", err)
	}
	if profile.UID != "abc" || profile.Role != "user" {
		t.Errorf("profile = %+v, want uid abc role user", profile)
	}
}

func TestFetchMe_CookieMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("cookie mode must not send an Authorization header")
		}
		if _, err := r.Cookie("authToken"); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"success":true,"data":{"uid":"xyz","role":"admin"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	// no jar, no cookie: the backend rejects
	if _, err := c.FetchMe(context.Background(), ""); !errors.Is(err, ErrAuthRejected) {
		t.Errorf("without cookie = %v, want ErrAuthRejected", err)
	}
}

func TestFetchMe_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name         string
		handler      http.HandlerFunc
		wantRejected bool
	}{
		{
			name: "401 is auth rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantRejected: true,
		},
		{
			name: "success false is auth rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false,"message":"token expired"}`))
			},
			wantRejected: true,
		},
		{
			name: "profile missing role is auth rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":true,"data":{"uid":"abc"}}`))
			},
			wantRejected: true,
		},
		{
			name: "malformed body is transport failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{{{not json`))
			},
			wantRejected: false,
		},
		{
			name: "500 is transport failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantRejected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(Config{BaseURL: srv.URL})
			_, err := c.FetchMe(context.Background(), "tok")
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, ErrAuthRejected); got != tt.wantRejected {
				t.Errorf("errors.Is(err, ErrAuthRejected) = %v, want %v (err: %v)", got, tt.wantRejected, err)
			}
		})
	}
}

func TestFetchMe_NetworkErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(Config{BaseURL: srv.URL})
	_, err := c.FetchMe(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ErrAuthRejected) {
		t.Error("network failure must not look like an auth rejection")
	}
}

func TestSetOnlineStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/user/status" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body struct {
			UserID    string `json:"userID"`
			IsOnline  bool   `json:"isOnline"`
			Timestamp int64  `json:"timestamp"`
		}
		if err := jsonDecode(r, &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.UserID != "abc" || !body.IsOnline || body.Timestamp == 0 {
			t.Errorf("body = %+v", body)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	if err := c.SetOnlineStatus(context.Background(), "tok", "abc", true); err != nil {
		t.Fatalf("SetOnlineStatus failed: %v", err)
	}
}

func TestFetchNotifications(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/abc/notifications" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"success":true,"data":{"unReadNotifs":[{"id":"n1","title":"hello"}]}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	notifs, err := c.FetchNotifications(context.Background(), "tok", "abc")
	if err != nil {
		t.Fatalf("FetchNotifications failed: %v", err)
	}
	if len(notifs) != 1 || notifs[0].ID != "n1" {
		t.Errorf("notifications = %+v", notifs)
	}
}

func TestToggleFavorite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"adsSaved":["p1","p2"]}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	saved, err := c.ToggleFavorite(context.Background(), "tok", "abc", "p2")
	if err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if len(saved) != 2 || saved[1] != "p2" {
		t.Errorf("saved = %v", saved)
	}
}

func TestUploadProfilePhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("userID"); got != "abc" {
			t.Errorf("userID = %q", got)
		}
		if _, _, err := r.FormFile("profilURL"); err != nil {
			t.Errorf("missing profilURL part: %v", err)
		}
		w.Write([]byte(`{"success":true,"data":{"url":"https://cdn.adscity.net/p/abc.jpg"}}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	result, err := c.UploadProfilePhoto(context.Background(), "tok", "abc", "me.jpg", strings.NewReader("jpegbytes"))
	if err != nil {
		t.Fatalf("UploadProfilePhoto failed: %v", err)
	}
	if result.URL == "" {
		t.Error("expected a URL")
	}
}
