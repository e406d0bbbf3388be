package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/feed"
	"github.com/anonto42/circle/backend/internal/middleware"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/storage"
	"github.com/anonto42/circle/backend/internal/trending"
	"github.com/anonto42/circle/backend/validators"
)

type fakeFeed struct {
	page   *feed.Page
	err    error
	viewer uint
	limit  int
	cursor string
}

func (f *fakeFeed) GetFeed(_ context.Context, viewerID uint, limit int, cursor string) (*feed.Page, error) {
	f.viewer, f.limit, f.cursor = viewerID, limit, cursor
	return f.page, f.err
}

type fakeTrending struct {
	res *trending.Result
	err error
}

func (f *fakeTrending) GetTrending(context.Context) (*trending.Result, error) {
	return f.res, f.err
}

type fakePresigner struct{}

func (fakePresigner) PresignUpload(_ context.Context, userID uint, fileName, contentType string, kind storage.MediaKind) (*storage.PresignedUpload, error) {
	if err := storage.ValidateUpload(kind, contentType); err != nil {
		return nil, err
	}
	key := storage.ObjectKey(kind, userID, fileName, time.Unix(0, 0))
	return &storage.PresignedUpload{UploadURL: "https://bucket/" + key + "?sig", FileURL: "https://cdn/" + key, Key: key}, nil
}

// newServer returns an echo instance whose group authenticates every request
// as userID; zero leaves the request anonymous.
func newServer(userID uint) (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.Validator = validators.NewValidator()
	g := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID != 0 {
				c.Set(middleware.ContextKeyUser, &models.JwtCustomClaims{UserID: userID})
			}
			return next(c)
		}
	})
	return e, g
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestFeedRoutesRequireAuthentication(t *testing.T) {
	e, g := newServer(0)
	NewFeedHandler(&fakeFeed{}, &fakeTrending{}).RegisterFeedRoutes(g)

	for _, path := range []string{"/api/v1/feed", "/api/v1/trending"} {
		if rec := do(e, http.MethodGet, path, ""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestGetFeedPassesViewerLimitAndCursor(t *testing.T) {
	next := "abc"
	svc := &fakeFeed{page: &feed.Page{Posts: []feed.EnrichedPost{}, NextCursor: &next}}
	e, g := newServer(7)
	NewFeedHandler(svc, &fakeTrending{}).RegisterFeedRoutes(g)

	tests := []struct {
		query     string
		wantLimit int
	}{
		{"", feed.DefaultLimit},
		{"?limit=5", 5},
		{"?limit=0", feed.DefaultLimit},
		{"?limit=-3", feed.DefaultLimit},
		{"?limit=abc", feed.DefaultLimit},
		{"?limit=5000", feed.MaxLimit},
	}
	for _, tt := range tests {
		rec := do(e, http.MethodGet, "/api/v1/feed"+tt.query, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", tt.query, rec.Code)
		}
		if svc.viewer != 7 || svc.limit != tt.wantLimit {
			t.Fatalf("%q: got viewer %d limit %d, want 7 %d", tt.query, svc.viewer, svc.limit, tt.wantLimit)
		}
	}

	rec := do(e, http.MethodGet, "/api/v1/feed?cursor=65f000000000000000000001", "")
	if svc.cursor != "65f000000000000000000001" {
		t.Fatalf("cursor not passed through: %q", svc.cursor)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(body["posts"]) != "[]" || string(body["nextCursor"]) != `"abc"` {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if _, wrapped := body["success"]; wrapped {
		t.Fatalf("feed response must not be wrapped: %s", rec.Body.String())
	}
}

func TestGetFeedHidesStoreErrors(t *testing.T) {
	e, g := newServer(1)
	NewFeedHandler(&fakeFeed{err: errors.New("pq: connection refused")}, &fakeTrending{}).RegisterFeedRoutes(g)

	rec := do(e, http.MethodGet, "/api/v1/feed", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestGetTrending(t *testing.T) {
	res := &trending.Result{
		Hashtags: []trending.RankedHashtag{{Tag: "#go", Count: 2, Mentions: 3}},
		Posts:    []trending.RankedPost{{EnrichedPost: feed.EnrichedPost{ID: "p1"}, EngagementScore: 26}},
	}
	e, g := newServer(3)
	NewFeedHandler(&fakeFeed{}, &fakeTrending{res: res}).RegisterFeedRoutes(g)

	rec := do(e, http.MethodGet, "/api/v1/trending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Hashtags []struct {
			Tag      string `json:"tag"`
			Count    int    `json:"count"`
			Mentions int    `json:"mentions"`
		} `json:"hashtags"`
		Posts []struct {
			ID              string `json:"id"`
			EngagementScore int    `json:"engagementScore"`
		} `json:"posts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Hashtags) != 1 || body.Hashtags[0].Tag != "#go" || body.Hashtags[0].Mentions != 3 {
		t.Fatalf("unexpected hashtags %+v", body.Hashtags)
	}
	if len(body.Posts) != 1 || body.Posts[0].ID != "p1" || body.Posts[0].EngagementScore != 26 {
		t.Fatalf("unexpected posts %+v", body.Posts)
	}

	e, g = newServer(3)
	NewFeedHandler(&fakeFeed{}, &fakeTrending{err: errors.New("mongo down")}).RegisterFeedRoutes(g)
	if rec := do(e, http.MethodGet, "/api/v1/trending", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestPresignUpload(t *testing.T) {
	tests := []struct {
		name       string
		presigner  Presigner
		body       string
		wantStatus int
	}{
		{"not configured", nil, `{"fileName":"a.png","contentType":"image/png","type":"image"}`, http.StatusServiceUnavailable},
		{"missing fields", fakePresigner{}, `{"fileName":"a.png"}`, http.StatusBadRequest},
		{"unknown kind", fakePresigner{}, `{"fileName":"a.png","contentType":"image/png","type":"audio"}`, http.StatusBadRequest},
		{"wrong content type", fakePresigner{}, `{"fileName":"a.exe","contentType":"application/x-msdownload","type":"image"}`, http.StatusBadRequest},
		{"ok", fakePresigner{}, `{"fileName":"my clip.mp4","contentType":"video/mp4","type":"VIDEO"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, g := newServer(4)
			NewUploadHandler(tt.presigner).RegisterUploadRoutes(g)

			rec := do(e, http.MethodPost, "/api/v1/uploads/presign", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var body struct {
				Data storage.PresignedUpload `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !strings.HasPrefix(body.Data.Key, "videos/4/") || !strings.HasSuffix(body.Data.Key, "-my_clip.mp4") {
				t.Fatalf("unexpected key %q", body.Data.Key)
			}
		})
	}
}

func TestReactionRejectsUnknownKind(t *testing.T) {
	e, g := newServer(2)
	NewReactionHandler(nil, nil, nil, nil).RegisterReactionRoutes(g)

	for _, body := range []string{`{"type":"angry"}`, `{}`} {
		rec := do(e, http.MethodPost, "/api/v1/posts/65f000000000000000000001/reactions", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestCreatePostNeedsContentOrMedia(t *testing.T) {
	e, g := newServer(2)
	NewPostHandler(nil, nil, nil, nil, nil).RegisterPostRoutes(g)

	for _, body := range []string{`{}`, `{"content":"   "}`, `{"content":"hi","visibility":"SECRET"}`} {
		rec := do(e, http.MethodPost, "/api/v1/posts", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestMediaTypeFor(t *testing.T) {
	tests := []struct {
		req  models.CreatePostRequest
		want models.MediaType
	}{
		{models.CreatePostRequest{Content: "x"}, models.MediaNone},
		{models.CreatePostRequest{Content: "x", MediaType: models.MediaVideo}, models.MediaNone},
		{models.CreatePostRequest{MediaURLs: []string{"https://a/b.png"}}, models.MediaImage},
		{models.CreatePostRequest{MediaURLs: []string{"https://a/b.mp4"}, MediaType: models.MediaVideo}, models.MediaVideo},
	}
	for _, tt := range tests {
		if got := mediaTypeFor(tt.req); got != tt.want {
			t.Fatalf("mediaTypeFor(%+v) = %s, want %s", tt.req, got, tt.want)
		}
	}
}
