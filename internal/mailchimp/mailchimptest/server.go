// Package mailchimptest provides an in-memory fake of the MailChimp lists
// and members API served over httptest.
//
// The fake follows the remote behavior the gateway relies on: PATCH of an
// unknown member is 404, POST of an existing member is 400 "Member Exists",
// and GET /lists/?email= returns only lists where the address is
// subscribed. Every call is counted so tests can assert on round trips.
package mailchimptest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ignite/list-subscriptions/internal/config"
	"github.com/ignite/list-subscriptions/internal/domain"
	"github.com/ignite/list-subscriptions/internal/mailchimp"
)

// Call identifies a kind of request received by the fake.
type Call string

const (
	CallGetLists        Call = "get_lists"
	CallGetListsByEmail Call = "get_lists_by_email"
	CallUpdateMember    Call = "update_member"
	CallCreateMember    Call = "create_member"
	CallPing            Call = "ping"
)

// APIKey is the key the fake accepts with the default username.
const APIKey = "test-key-us0"

type member struct {
	domain.Member
	uniqueEmailID string
}

func (m *member) response() mailchimp.MemberResponse {
	return mailchimp.MemberResponse{
		ID:            m.ID,
		EmailAddress:  m.EmailAddress,
		UniqueEmailID: m.uniqueEmailID,
		Status:        m.Status,
		ListID:        m.ListID,
	}
}

// Server is a fake MailChimp API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	lists    []domain.MailingList
	members  map[string]map[string]*member // list id -> subscriber hash -> member
	calls    map[Call]int
	failures map[Call]int
	listless bool
}

// NewServer starts a fake with one list per name. Close it when done.
func NewServer(listNames ...string) *Server {
	s := &Server{
		members:  make(map[string]map[string]*member),
		calls:    make(map[Call]int),
		failures: make(map[Call]int),
	}
	for _, name := range listNames {
		s.AddList(name)
	}

	r := chi.NewRouter()
	r.Route("/3.0", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/ping", s.handlePing)
		r.Get("/lists/", s.handleLists)
		r.Post("/lists/{listID}/members", s.handleCreateMember)
		r.Patch("/lists/{listID}/members/{hash}", s.handleUpdateMember)
	})
	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL is the API root to configure clients with.
func (s *Server) BaseURL() string {
	return s.URL + "/3.0"
}

// Config returns a client configuration pointing at the fake.
func (s *Server) Config() config.MailChimpConfig {
	return config.MailChimpConfig{
		BaseURL:        s.BaseURL(),
		APIKey:         APIKey,
		Username:       "anystring",
		TimeoutSeconds: 5,
	}
}

// Client returns a real client wired to the fake.
func (s *Server) Client() *mailchimp.Client {
	return mailchimp.NewClient(s.Config())
}

// AddList registers a list and returns its generated id.
func (s *Server) AddList(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	s.lists = append(s.lists, domain.MailingList{ID: id, Name: name})
	s.members[id] = make(map[string]*member)
	return id
}

// Lists returns the registered lists in creation order.
func (s *Server) Lists() []domain.MailingList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.MailingList(nil), s.lists...)
}

// SetMember seeds a member directly, bypassing the API.
func (s *Server) SetMember(listID, email string, status domain.MemberStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putMember(listID, email, status)
}

// MemberStatus returns the stored status for email on a list.
func (s *Server) MemberStatus(listID, email string) (domain.MemberStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[listID][domain.SubscriberHash(email)]
	if !ok {
		return "", false
	}
	return m.Status, true
}

// Calls returns how many requests of a kind were received.
func (s *Server) Calls(c Call) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[c]
}

// FailWith makes every subsequent request of a kind answer with status.
// A status of 0 clears the failure.
func (s *Server) FailWith(c Call, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, c)
		return
	}
	s.failures[c] = status
}

// RemoveListsEndpoint makes the lists endpoint answer 404.
func (s *Server) RemoveListsEndpoint() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listless = true
}

func (s *Server) putMember(listID, email string, status domain.MemberStatus) *member {
	hash := domain.SubscriberHash(email)
	m := &member{
		Member: domain.Member{
			ID:           hash,
			ListID:       listID,
			EmailAddress: email,
			Status:       status,
		},
		uniqueEmailID: uuid.NewString(),
	}
	s.members[listID][hash] = m
	return m
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, key, ok := r.BasicAuth()
		if !ok || key != APIKey {
			writeProblem(w, http.StatusUnauthorized, "API Key Invalid", "Your API key may be invalid, or you've attempted to access the wrong datacenter.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// record counts the call and reports whether a forced failure was written.
func (s *Server) record(w http.ResponseWriter, c Call) bool {
	s.calls[c]++
	if status, ok := s.failures[c]; ok {
		writeProblem(w, status, http.StatusText(status), "forced failure")
		return true
	}
	return false
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record(w, CallPing) {
		return
	}
	writeJSON(w, http.StatusOK, mailchimp.PingResponse{HealthStatus: "Everything's Chimpy!"})
}

func (s *Server) handleLists(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := r.URL.Query().Get("email")
	call := CallGetLists
	if email != "" {
		call = CallGetListsByEmail
	}
	if s.record(w, call) {
		return
	}
	if s.listless {
		writeProblem(w, http.StatusNotFound, "Resource Not Found", "The requested resource could not be found.")
		return
	}

	resp := mailchimp.ListsResponse{Lists: []mailchimp.List{}}
	hash := domain.SubscriberHash(email)
	for _, l := range s.lists {
		if email != "" {
			m, ok := s.members[l.ID][hash]
			if !ok || m.Status != domain.MemberSubscribed {
				continue
			}
		}
		resp.Lists = append(resp.Lists, mailchimp.List{ID: l.ID, Name: l.Name})
	}
	resp.TotalItems = len(resp.Lists)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record(w, CallCreateMember) {
		return
	}

	listID := chi.URLParam(r, "listID")
	if _, ok := s.members[listID]; !ok {
		writeProblem(w, http.StatusNotFound, "Resource Not Found", "The requested resource could not be found.")
		return
	}

	var req mailchimp.MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EmailAddress == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Resource", "The resource submitted could not be validated.")
		return
	}
	if _, exists := s.members[listID][domain.SubscriberHash(req.EmailAddress)]; exists {
		writeProblem(w, http.StatusBadRequest, "Member Exists", req.EmailAddress+" is already a list member.")
		return
	}

	m := s.putMember(listID, req.EmailAddress, req.Status)
	writeJSON(w, http.StatusOK, m.response())
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record(w, CallUpdateMember) {
		return
	}

	listID := chi.URLParam(r, "listID")
	m, ok := s.members[listID][chi.URLParam(r, "hash")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Resource Not Found", "The requested resource could not be found.")
		return
	}

	var req mailchimp.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Resource", "The resource submitted could not be validated.")
		return
	}
	m.Status = req.Status
	writeJSON(w, http.StatusOK, m.response())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(mailchimp.Problem{
		Type:   "https://mailchimp.com/developer/marketing/docs/errors/",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
