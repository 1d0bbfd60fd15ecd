package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"eventhub/internal/app/accounts"
	"eventhub/internal/app/marketplace"
	"eventhub/internal/app/messages"
	"eventhub/internal/app/venues"
	"eventhub/internal/identity"
	"eventhub/internal/models"
	"eventhub/internal/objectstore"
	"eventhub/internal/onboarding"
	"eventhub/internal/publication"
	"eventhub/internal/store"
	"eventhub/internal/validation"
)

type stubVerifier struct{}

func (stubVerifier) Verify(raw string) (identity.Identity, error) {
	if raw != "good-token" {
		return identity.Identity{}, identity.ErrInvalidToken
	}
	return identity.Identity{UID: "uid-1", Email: "ada@example.com", Name: "Ada"}, nil
}

type stubAccountService struct {
	created    bool
	profile    *accounts.Profile
	pushErr    error
	lastUID    string
	lastEmail  string
	pending    *[]models.ServiceOffering
	pushCalled bool
}

func (s *stubAccountService) Ensure(_ context.Context, uid, email, _ string) (*models.Account, bool, error) {
	s.lastUID, s.lastEmail = uid, email
	return &models.Account{FirebaseUID: uid, Email: email}, s.created, nil
}

func (s *stubAccountService) Profile(_ context.Context, uid string) (*accounts.Profile, error) {
	s.lastUID = uid
	return s.profile, nil
}

func (s *stubAccountService) UpdateProfile(context.Context, string, models.ProfileUpdate) (*accounts.Profile, error) {
	return s.profile, nil
}

func (s *stubAccountService) SaveServices(context.Context, string, []models.ServiceOffering) (*accounts.Profile, error) {
	return s.profile, nil
}

func (s *stubAccountService) Publication(context.Context, string) (publication.Eligibility, error) {
	return publication.Eligibility{}, nil
}

func (s *stubAccountService) PushToMarket(_ context.Context, uid string, pending *[]models.ServiceOffering) (*accounts.Profile, error) {
	s.pushCalled = true
	s.lastUID = uid
	s.pending = pending
	if s.pushErr != nil {
		return nil, s.pushErr
	}
	return s.profile, nil
}

type stubOnboardingService struct {
	state     onboarding.State
	err       error
	lastLogo  *objectstore.File
	lastPhoto []objectstore.File
	lastRole  onboarding.RoleAndBrandInput
}

func (s *stubOnboardingService) State(context.Context, string) (onboarding.State, error) {
	return s.state, s.err
}

func (s *stubOnboardingService) Restart(context.Context, string) (onboarding.State, error) {
	return s.state, s.err
}

func (s *stubOnboardingService) SubmitRoleAndBrand(_ context.Context, _ string, in onboarding.RoleAndBrandInput) (onboarding.State, error) {
	s.lastRole = in
	return s.state, s.err
}

func (s *stubOnboardingService) SubmitAssets(_ context.Context, _ string, in onboarding.AssetsInput) (onboarding.State, error) {
	s.lastLogo = in.Logo
	s.lastPhoto = in.Gallery
	return s.state, s.err
}

func (s *stubOnboardingService) SubmitServices(context.Context, string, []models.ServiceOffering) (onboarding.State, error) {
	return s.state, s.err
}

func (s *stubOnboardingService) SubmitLocation(context.Context, string, models.Location) (onboarding.State, error) {
	return s.state, s.err
}

func (s *stubOnboardingService) SubmitVerification(context.Context, string, []objectstore.File) (onboarding.State, error) {
	return s.state, s.err
}

func (s *stubOnboardingService) Finish(context.Context, string) (onboarding.State, error) {
	return s.state, s.err
}

type stubMarketplaceService struct {
	mu         sync.Mutex
	listing    *marketplace.Listing
	listErr    error
	lastFilter marketplace.Filter
	listCalls  int
}

func (s *stubMarketplaceService) ListProviders(_ context.Context, f marketplace.Filter) (*marketplace.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = f
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listing, nil
}

func (s *stubMarketplaceService) GetProvider(_ context.Context, uid string) (*marketplace.Provider, error) {
	if uid != "listed" {
		return nil, marketplace.ErrProviderNotFound
	}
	return &marketplace.Provider{UID: uid}, nil
}

func (s *stubMarketplaceService) ListVenues(context.Context, string) ([]*models.Venue, error) {
	return []*models.Venue{}, nil
}

type stubVenueService struct {
	lastInput venues.Input
	getErr    error
}

func (s *stubVenueService) Create(_ context.Context, uid string, in venues.Input) (*venues.Detail, error) {
	s.lastInput = in
	return &venues.Detail{Venue: &models.Venue{ID: 1, VendorID: uid, VenueName: in.VenueName}}, nil
}

func (s *stubVenueService) List(context.Context, string) ([]*models.Venue, error) {
	return []*models.Venue{}, nil
}

func (s *stubVenueService) Get(_ context.Context, _ string, id int64) (*venues.Detail, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &venues.Detail{Venue: &models.Venue{ID: id}}, nil
}

func (s *stubVenueService) Update(_ context.Context, _ string, id int64, in venues.Input) (*venues.Detail, error) {
	s.lastInput = in
	return &venues.Detail{Venue: &models.Venue{ID: id}}, nil
}

func (s *stubVenueService) Delete(context.Context, string, int64) error { return nil }

func (s *stubVenueService) TogglePublish(_ context.Context, _ string, id int64) (*venues.Detail, error) {
	return &venues.Detail{Venue: &models.Venue{ID: id, IsPublished: true}}, nil
}

type stubMessageService struct {
	sendErr      error
	lastSender   string
	lastReceiver string
}

func (s *stubMessageService) Send(_ context.Context, sender, receiver, content string) (*models.Message, error) {
	s.lastSender, s.lastReceiver = sender, receiver
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &models.Message{ID: 7, SenderID: sender, ReceiverID: receiver, Content: content}, nil
}

func (s *stubMessageService) Conversation(context.Context, string, string) ([]models.Message, error) {
	return []models.Message{}, nil
}

func (s *stubMessageService) Inbox(context.Context, string) ([]models.ConversationSummary, error) {
	return []models.ConversationSummary{}, nil
}

type stubs struct {
	accounts    *stubAccountService
	onboarding  *stubOnboardingService
	marketplace *stubMarketplaceService
	venues      *stubVenueService
	messages    *stubMessageService
}

func newTestServer(t *testing.T) (*Server, *stubs) {
	t.Helper()
	st := &stubs{
		accounts:    &stubAccountService{profile: &accounts.Profile{Account: &models.Account{FirebaseUID: "uid-1"}}},
		onboarding:  &stubOnboardingService{},
		marketplace: &stubMarketplaceService{listing: &marketplace.Listing{Providers: []marketplace.Provider{}}},
		venues:      &stubVenueService{},
		messages:    &stubMessageService{},
	}
	server := New(stubVerifier{}, st.accounts, st.onboarding, st.marketplace, st.venues, st.messages, 10*time.Millisecond)
	return server, st
}

func do(t *testing.T, server *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	server.Routes().ServeHTTP(rr, req)
	return rr
}

func authed(method, target string, body *bytes.Buffer) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer good-token")
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)
	rr := do(t, server, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", rr.Code, rr.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server, st := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "bad token", header: "Bearer nope"},
		{name: "wrong scheme", header: "Basic good-token"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/me/publication/toggle", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := do(t, server, req)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
		})
	}
	if st.accounts.pushCalled {
		t.Fatal("service must not be reached without identity")
	}
}

func TestEnsureAccountStatus(t *testing.T) {
	server, st := newTestServer(t)

	st.accounts.created = true
	rr := do(t, server, authed(http.MethodPost, "/api/v1/accounts", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if st.accounts.lastUID != "uid-1" || st.accounts.lastEmail != "ada@example.com" {
		t.Fatalf("identity not forwarded: %+v", st.accounts)
	}

	st.accounts.created = false
	rr = do(t, server, authed(http.MethodPost, "/api/v1/accounts", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for existing account, got %d", rr.Code)
	}
}

func TestTogglePublicationPendingServices(t *testing.T) {
	server, st := newTestServer(t)

	rr := do(t, server, authed(http.MethodPost, "/api/v1/me/publication/toggle", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if st.accounts.pending != nil {
		t.Fatal("empty body must not carry pending services")
	}

	body := bytes.NewBufferString(`{"services":[{"name":"DJ","price":"150","currency":"USD"}]}`)
	rr = do(t, server, authed(http.MethodPost, "/api/v1/me/publication/toggle", body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if st.accounts.pending == nil || len(*st.accounts.pending) != 1 || (*st.accounts.pending)[0].Name != "DJ" {
		t.Fatalf("pending services not forwarded: %+v", st.accounts.pending)
	}
}

func TestTogglePublicationIneligible(t *testing.T) {
	server, st := newTestServer(t)
	st.accounts.pushErr = validation.New("listing is incomplete", "brand name", "address")

	rr := do(t, server, authed(http.MethodPost, "/api/v1/me/publication/toggle", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error != "listing is incomplete" || len(resp.Fields) != 2 {
		t.Fatalf("unexpected body %+v", resp)
	}
}

func TestTogglePublicationBeforeOnboarding(t *testing.T) {
	server, st := newTestServer(t)
	st.accounts.pushErr = accounts.ErrOnboardingIncomplete

	rr := do(t, server, authed(http.MethodPost, "/api/v1/me/publication/toggle", nil))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error != accounts.ErrOnboardingIncomplete.Error() {
		t.Fatalf("unexpected body %+v", resp)
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	server, st := newTestServer(t)
	st.accounts.pushErr = errors.New("pq: connection refused")

	rr := do(t, server, authed(http.MethodPost, "/api/v1/me/publication/toggle", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error != "internal server error" {
		t.Fatalf("unexpected body %+v", resp)
	}
}

func TestOnboardingWrongStepReturnsState(t *testing.T) {
	server, st := newTestServer(t)
	st.onboarding.state = onboarding.State{Step: onboarding.StepLocation, StepIndex: 3}
	st.onboarding.err = onboarding.ErrWrongStep

	body := bytes.NewBufferString(`{"role":"venue","brand_name":"Hall"}`)
	rr := do(t, server, authed(http.MethodPost, "/api/v1/onboarding/role-and-brand", body))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	var resp onboardingErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State.Step != onboarding.StepLocation {
		t.Fatalf("expected current state in body, got %+v", resp)
	}
	if st.onboarding.lastRole.BrandName != "Hall" {
		t.Fatalf("input not forwarded: %+v", st.onboarding.lastRole)
	}
}

func TestOnboardingAlreadyCompleted(t *testing.T) {
	server, st := newTestServer(t)
	st.onboarding.err = onboarding.ErrAlreadyCompleted

	rr := do(t, server, authed(http.MethodGet, "/api/v1/onboarding", nil))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestOnboardingAssetsMultipart(t *testing.T) {
	server, st := newTestServer(t)
	st.onboarding.state = onboarding.State{Step: onboarding.StepServicesAndPricing, StepIndex: 2}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, part := range []struct{ field, name, data string }{
		{"logo", "logo.png", "logo-bytes"},
		{"photos", "a.jpg", "photo-a"},
		{"photos", "b.jpg", "photo-b"},
	} {
		fw, err := mw.CreateFormFile(part.field, part.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(part.data)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := authed(http.MethodPost, "/api/v1/onboarding/assets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := do(t, server, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if st.onboarding.lastLogo == nil || string(st.onboarding.lastLogo.Data) != "logo-bytes" {
		t.Fatalf("logo not forwarded: %+v", st.onboarding.lastLogo)
	}
	if len(st.onboarding.lastPhoto) != 2 || st.onboarding.lastPhoto[1].Name != "b.jpg" {
		t.Fatalf("gallery not forwarded: %+v", st.onboarding.lastPhoto)
	}
}

func TestMarketplaceIsPublic(t *testing.T) {
	server, st := newTestServer(t)

	rr := do(t, server, httptest.NewRequest(http.MethodGet, "/api/v1/marketplace/providers?role=venue&q=lagos", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if st.marketplace.lastFilter != (marketplace.Filter{Role: "venue", Query: "lagos"}) {
		t.Fatalf("unexpected filter %+v", st.marketplace.lastFilter)
	}

	rr = do(t, server, httptest.NewRequest(http.MethodGet, "/api/v1/marketplace/providers/hidden", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unlisted provider, got %d", rr.Code)
	}
}

func TestVenueRoutes(t *testing.T) {
	server, st := newTestServer(t)

	rr := do(t, server, authed(http.MethodGet, "/api/v1/venues/abc", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rr.Code)
	}

	st.venues.getErr = store.ErrVenueNotFound
	rr = do(t, server, authed(http.MethodGet, "/api/v1/venues/9", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("venue_name", "Grand Hall")
	_ = mw.WriteField("capacity", "200")
	_ = mw.WriteField("price", "1500.50")
	fw, _ := mw.CreateFormFile("image", "hall.jpg")
	_, _ = fw.Write([]byte("jpeg"))
	_ = mw.Close()

	req := authed(http.MethodPost, "/api/v1/venues", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr = do(t, server, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	in := st.venues.lastInput
	if in.VenueName != "Grand Hall" || in.Capacity != 200 || in.Price != 1500.50 || in.Image == nil {
		t.Fatalf("unexpected input %+v", in)
	}

	rr = do(t, server, authed(http.MethodPut, "/api/v1/venues/1", bytes.NewBufferString(`{"venue_name":"Renamed","capacity":10}`)))
	if rr.Code != http.StatusOK || st.venues.lastInput.VenueName != "Renamed" {
		t.Fatalf("unexpected update %d %+v", rr.Code, st.venues.lastInput)
	}

	rr = do(t, server, authed(http.MethodDelete, "/api/v1/venues/1", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestCreateVenueRejectsNonFinitePrice(t *testing.T) {
	for _, price := range []string{"NaN", "Inf", "-Inf"} {
		price := price
		t.Run(price, func(t *testing.T) {
			server, st := newTestServer(t)

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			_ = mw.WriteField("venue_name", "Grand Hall")
			_ = mw.WriteField("capacity", "200")
			_ = mw.WriteField("price", price)
			_ = mw.Close()

			req := authed(http.MethodPost, "/api/v1/venues", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			rr := do(t, server, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if resp := decodeError(t, rr); resp.Error != "invalid price" {
				t.Fatalf("unexpected body %+v", resp)
			}
			if st.venues.lastInput.VenueName != "" {
				t.Fatal("service must not be called")
			}
		})
	}
}

func TestSendMessage(t *testing.T) {
	server, st := newTestServer(t)

	rr := do(t, server, authed(http.MethodPost, "/api/v1/messages/uid-2", bytes.NewBufferString(`{"content":"hello"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if st.messages.lastSender != "uid-1" || st.messages.lastReceiver != "uid-2" {
		t.Fatalf("unexpected participants %+v", st.messages)
	}

	st.messages.sendErr = messages.ErrRecipientNotFound
	rr = do(t, server, authed(http.MethodPost, "/api/v1/messages/ghost", bytes.NewBufferString(`{"content":"hello"}`)))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr = do(t, server, authed(http.MethodPost, "/api/v1/messages/uid-2", bytes.NewBufferString(`not json`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestProviderStreamPollsUntilDisconnect(t *testing.T) {
	server, st := newTestServer(t)
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/marketplace/providers/stream?role=all", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	snapshots := 0
	for snapshots < 3 && scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "event: snapshot") {
			snapshots++
		}
	}
	if snapshots < 3 {
		t.Fatalf("expected three snapshots, got %d (err=%v)", snapshots, scanner.Err())
	}
	cancel()

	st.marketplace.mu.Lock()
	calls := st.marketplace.listCalls
	st.marketplace.mu.Unlock()
	if calls < 3 {
		t.Fatalf("expected a fetch per snapshot, got %d", calls)
	}
}

func TestCloseStreamsEndsOpenStreams(t *testing.T) {
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/marketplace/venues/stream")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "event: snapshot") {
			break
		}
	}

	server.CloseStreams()

	done := make(chan struct{})
	go func() {
		for scanner.Scan() {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream still open after CloseStreams")
	}
}

func TestProviderStreamRejectsBadFilter(t *testing.T) {
	server, st := newTestServer(t)
	st.marketplace.listErr = validation.New("invalid filter", "role must be all, venue or event_planner")

	rr := do(t, server, httptest.NewRequest(http.MethodGet, "/api/v1/marketplace/providers/stream?role=x", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 before streaming, got %d", rr.Code)
	}
}
