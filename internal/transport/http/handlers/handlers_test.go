package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
	badgerrepo "github.com/ivankudzin/crush/internal/repo/badger"
	authsvc "github.com/ivankudzin/crush/internal/services/auth"
	discoversvc "github.com/ivankudzin/crush/internal/services/discover"
	likessvc "github.com/ivankudzin/crush/internal/services/likes"
	matchessvc "github.com/ivankudzin/crush/internal/services/matches"
	mediasvc "github.com/ivankudzin/crush/internal/services/media"
	messagessvc "github.com/ivankudzin/crush/internal/services/messages"
	profilessvc "github.com/ivankudzin/crush/internal/services/profiles"
	"github.com/ivankudzin/crush/internal/services/rate"
)

const testAccountHeader = "X-Test-Account"

type limiterStub struct {
	blocked bool
}

func (l *limiterStub) Allow(context.Context, rate.Action, string) (int64, bool, error) {
	if l.blocked {
		return 9, false, nil
	}
	return 0, true, nil
}

type testAPI struct {
	router   http.Handler
	profiles *profilessvc.Service
	limiter  *limiterStub
	ids      map[string]string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store, err := badgerrepo.Open(badgerrepo.Config{}, nil)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	profileRepo := badgerrepo.NewProfileRepo(store)
	matchRepo := badgerrepo.NewMatchRepo(store)
	limiter := &limiterStub{}

	profiles := profilessvc.NewService(profileRepo, profilessvc.Config{DefaultMaxDistanceKM: 50})
	media := mediasvc.NewService(profileRepo, nil)
	presenter := NewPresenter(media)
	discover := discoversvc.NewService(profileRepo, discoversvc.Config{DefaultRadiusKM: 50, MaxResults: 100})
	likes := likessvc.NewService(likessvc.Deps{Graph: badgerrepo.NewLikeRepo(store), RateLimiter: limiter})
	matches := matchessvc.NewService(matchRepo, profileRepo)
	messages := messagessvc.NewService(messagessvc.Deps{Messages: badgerrepo.NewMessageRepo(store), Matches: matchRepo})

	profileH := NewProfileHandler(profiles, presenter, nil)
	discoverH := NewDiscoverHandler(discover, profiles, presenter, nil)
	likesH := NewLikesHandler(likes, profiles, presenter, nil)
	matchesH := NewMatchesHandler(matches, profiles, presenter, nil)
	messagesH := NewMessagesHandler(messages, profiles, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if account := req.Header.Get(testAccountHeader); account != "" {
				req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{AccountID: account}))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/profiles", profileH.Create)
	r.Get("/profiles/me", profileH.Mine)
	r.Get("/profiles/discover", discoverH.Discover)
	r.Put("/profiles/{profileId}", profileH.Update)
	r.Post("/profiles/like/{profileId}", likesH.Like)
	r.Get("/matches", matchesH.List)
	r.Get("/matches/{matchId}", matchesH.Get)
	r.Delete("/matches/{matchId}", matchesH.Unmatch)
	r.Post("/messages", messagesH.Send)

	api := &testAPI{router: r, profiles: profiles, limiter: limiter, ids: map[string]string{}}
	for i, name := range []string{"ann", "bob", "cat"} {
		gender := enums.GenderFemale
		if name == "bob" {
			gender = enums.GenderMale
		}
		p, err := profiles.Create(context.Background(), "acc-"+name, profilessvc.Input{
			Name:     name,
			Age:      25 + i,
			Gender:   gender,
			Location: model.Location{City: "Austin", Latitude: 30.27, Longitude: -97.74 + float64(i)*0.01},
		})
		if err != nil {
			t.Fatalf("create profile %s: %v", name, err)
		}
		api.ids[name] = p.ID
		time.Sleep(time.Millisecond)
	}
	return api
}

func (a *testAPI) do(t *testing.T, method, path, account string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if account != "" {
		req.Header.Set(testAccountHeader, account)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

type errorBody struct {
	Error         string `json:"error"`
	Code          string `json:"code"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func TestLikeStatusCodes(t *testing.T) {
	api := newTestAPI(t)
	bob, ann := api.ids["bob"], api.ids["ann"]

	rr := api.do(t, http.MethodPost, "/profiles/like/"+bob, "acc-ann", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status for plain like: got %d want %d", rr.Code, http.StatusOK)
	}
	liked := decode[struct {
		Match   bool   `json:"match"`
		MatchID string `json:"match_id"`
		Profile struct {
			ID        string `json:"id"`
			AccountID string `json:"account_id"`
		} `json:"profile"`
	}](t, rr)
	if liked.Match || liked.MatchID != "" || liked.Profile.ID != bob {
		t.Fatalf("unexpected like body: %+v", liked)
	}
	if liked.Profile.AccountID != "" {
		t.Fatalf("public profile must not expose account id")
	}

	rr = api.do(t, http.MethodPost, "/profiles/like/"+bob, "acc-ann", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for duplicate like: got %d want %d", rr.Code, http.StatusBadRequest)
	}
	if body := decode[errorBody](t, rr); body.Error != "you have already liked this profile" {
		t.Fatalf("unexpected duplicate like message: %q", body.Error)
	}

	rr = api.do(t, http.MethodPost, "/profiles/like/"+ann, "acc-bob", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status for mutual like: got %d want %d", rr.Code, http.StatusCreated)
	}
	matched := decode[struct {
		Match   bool   `json:"match"`
		MatchID string `json:"match_id"`
	}](t, rr)
	if !matched.Match || matched.MatchID == "" {
		t.Fatalf("unexpected match body: %+v", matched)
	}

	if rr := api.do(t, http.MethodPost, "/profiles/like/"+ann, "acc-ann", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for self like: got %d want %d", rr.Code, http.StatusBadRequest)
	}
	if rr := api.do(t, http.MethodPost, "/profiles/like/missing", "acc-ann", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status for missing target: got %d want %d", rr.Code, http.StatusNotFound)
	}
	if rr := api.do(t, http.MethodPost, "/profiles/like/"+ann, "acc-nobody", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status without caller profile: got %d want %d", rr.Code, http.StatusNotFound)
	}
	if rr := api.do(t, http.MethodPost, "/profiles/like/"+ann, "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status without identity: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLikeRateLimitedReturnsRetryAfter(t *testing.T) {
	api := newTestAPI(t)
	api.limiter.blocked = true

	rr := api.do(t, http.MethodPost, "/profiles/like/"+api.ids["bob"], "acc-ann", nil)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusTooManyRequests)
	}
	if body := decode[errorBody](t, rr); body.RetryAfterSec != 9 {
		t.Fatalf("unexpected retry_after_sec: got %d want 9", body.RetryAfterSec)
	}
}

func TestMatchAccessAndUnmatch(t *testing.T) {
	api := newTestAPI(t)
	ann, bob := api.ids["ann"], api.ids["bob"]

	api.do(t, http.MethodPost, "/profiles/like/"+bob, "acc-ann", nil)
	rr := api.do(t, http.MethodPost, "/profiles/like/"+ann, "acc-bob", nil)
	matchID := decode[struct {
		MatchID string `json:"match_id"`
	}](t, rr).MatchID

	rr = api.do(t, http.MethodGet, "/matches", "acc-ann", nil)
	list := decode[[]struct {
		ID      string `json:"id"`
		MatchID string `json:"match_id"`
		Status  string `json:"status"`
	}](t, rr)
	if len(list) != 1 || list[0].ID != bob || list[0].MatchID != matchID || list[0].Status != "active" {
		t.Fatalf("unexpected matches: %+v", list)
	}

	if rr := api.do(t, http.MethodGet, "/matches/"+matchID, "acc-cat", nil); rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status for outsider: got %d want %d", rr.Code, http.StatusForbidden)
	}
	if rr := api.do(t, http.MethodGet, "/matches/unknown", "acc-ann", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status for unknown match: got %d want %d", rr.Code, http.StatusNotFound)
	}

	rr = api.do(t, http.MethodGet, "/matches/"+matchID, "acc-bob", nil)
	detail := decode[struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	}](t, rr)
	if len(detail.Users) != 2 {
		t.Fatalf("match detail must carry both participants: %+v", detail)
	}

	if rr := api.do(t, http.MethodDelete, "/matches/"+matchID, "acc-cat", nil); rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status for outsider unmatch: got %d want %d", rr.Code, http.StatusForbidden)
	}
	if rr := api.do(t, http.MethodDelete, "/matches/"+matchID, "acc-ann", nil); rr.Code != http.StatusOK {
		t.Fatalf("unexpected unmatch status: got %d want %d", rr.Code, http.StatusOK)
	}
	if rr := api.do(t, http.MethodDelete, "/matches/"+matchID, "acc-bob", nil); rr.Code != http.StatusOK {
		t.Fatalf("repeated unmatch must succeed: got %d", rr.Code)
	}

	rr = api.do(t, http.MethodGet, "/matches", "acc-ann", nil)
	if got := decode[[]json.RawMessage](t, rr); len(got) != 0 {
		t.Fatalf("unmatched pair must leave the active list: %d entries", len(got))
	}

	rr = api.do(t, http.MethodPost, "/messages", "acc-ann", map[string]string{"recipient_id": bob, "content": "hi"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("messaging after unmatch: got %d want %d", rr.Code, http.StatusForbidden)
	}
}

func TestDiscoverFiltersAndRejectsMalformedParams(t *testing.T) {
	api := newTestAPI(t)

	rr := api.do(t, http.MethodGet, "/profiles/discover?gender=female", "acc-bob", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	items := decode[[]struct {
		ID     string `json:"id"`
		Gender string `json:"gender"`
	}](t, rr)
	if len(items) != 2 || items[0].ID != api.ids["ann"] || items[1].ID != api.ids["cat"] {
		t.Fatalf("unexpected candidates: %+v", items)
	}

	for _, query := range []string{"ageRange=30", "ageRange=40-20", "ageRange=0-0", "ageRange=5-10", "maxDistance=abc", "maxDistance=0"} {
		rr := api.do(t, http.MethodGet, "/profiles/discover?"+query, "acc-bob", nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("query %q: got %d want %d", query, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestProfileCreateAndUpdateOwnership(t *testing.T) {
	api := newTestAPI(t)

	lat, lon := 40.7, -74.0
	body := map[string]any{
		"name":     "Dan",
		"age":      31,
		"gender":   "male",
		"location": map[string]any{"city": "NYC", "latitude": lat, "longitude": lon},
	}
	if rr := api.do(t, http.MethodPost, "/profiles", "acc-dan", body); rr.Code != http.StatusCreated {
		t.Fatalf("unexpected create status: got %d want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if rr := api.do(t, http.MethodPost, "/profiles", "acc-dan", body); rr.Code != http.StatusBadRequest {
		t.Fatalf("second profile must be rejected: got %d", rr.Code)
	}

	invalid := map[string]any{"name": "Eve", "age": 17, "gender": "female", "location": map[string]any{"latitude": lat, "longitude": lon}}
	if rr := api.do(t, http.MethodPost, "/profiles", "acc-eve", invalid); rr.Code != http.StatusBadRequest {
		t.Fatalf("underage profile must be rejected: got %d", rr.Code)
	}

	if rr := api.do(t, http.MethodPut, "/profiles/"+api.ids["ann"], "acc-dan", body); rr.Code != http.StatusForbidden {
		t.Fatalf("foreign update must be forbidden: got %d", rr.Code)
	}
}
