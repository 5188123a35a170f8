package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"reflecto/api/internal/advisor"
	"reflecto/api/internal/analytics"
	"reflecto/api/internal/auth"
	"reflecto/api/internal/authpw"
	"reflecto/api/internal/chat"
	"reflecto/api/internal/config"
	"reflecto/api/internal/search"
	"reflecto/api/internal/sentiment"
	"reflecto/api/internal/store"
	"reflecto/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	ExpiresAt    time.Time
}

// JournalInput is the request body for creating or updating a journal entry.
type JournalInput struct {
	UserUID      string `json:"user_uid"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Mood         int    `json:"mood"`
	Productivity int    `json:"productivity"`
}

type dataStore interface {
	Ping(context.Context) error
	GetUserByID(context.Context, string) (store.User, error)
	InsertJournal(context.Context, store.JournalEntry) error
	GetJournal(context.Context, string) (store.JournalEntry, error)
	ListJournalsByUser(context.Context, string) ([]store.JournalEntry, error)
	ListJournalsInRange(context.Context, string, time.Time, time.Time) ([]store.JournalEntry, error)
	UpdateJournal(context.Context, store.JournalEntry) error
	DeleteJournal(context.Context, string) error
}

type sessionStore interface {
	SaveRefreshSession(context.Context, string, store.User, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
}

type searchService interface {
	Search(q search.Query) search.Response
	IndexJournal(rec search.JournalRecord)
	DeleteJournal(id string)
}

type chatPipeline interface {
	Process(ctx context.Context, userID, sessionID, query string) (chat.Reply, error)
}

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  sessionStore
	authpw    *authpw.Service
	advisor   *advisor.Service
	chatbot   chatPipeline
	analytics *analytics.Engine
	search    searchService
}

// New builds a service that keeps refresh sessions in PostgreSQL.
func New(cfg config.Config, dataStore *store.PostgresStore, engine *analytics.Engine, searchService *search.Service) *Service {
	return &Service{
		cfg:       cfg,
		store:     dataStore,
		sessions:  dataStore,
		authpw:    authpw.NewService(dataStore),
		analytics: engine,
		search:    searchService,
	}
}

// NewWithSessionStore builds a service that keeps refresh sessions in an
// external store (Redis).
func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions sessionStore, engine *analytics.Engine, searchService *search.Service) *Service {
	service := New(cfg, dataStore, engine, searchService)
	service.sessions = sessions
	return service
}

// SetAdvisor attaches the journal advisor. Without it, analyze requests are
// rejected as unavailable.
func (s *Service) SetAdvisor(svc *advisor.Service) {
	s.advisor = svc
}

// SetChatbot attaches the support chatbot pipeline.
func (s *Service) SetChatbot(pipeline chatPipeline) {
	s.chatbot = pipeline
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Auth and sessions

func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	user, err := s.authpw.SignUp(ctx, authpw.SignUpRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.authpw.SignIn(ctx, authpw.SignInRequest{Email: email, Password: password})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.DisplayName,
		JTI:   util.NewID("jti"),
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Email:     user.Email,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// Journals

func validateJournalInput(input JournalInput) error {
	var problems []string
	if strings.TrimSpace(input.UserUID) == "" {
		problems = append(problems, "user_uid is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		problems = append(problems, "title is required")
	}
	if len(title) > 200 {
		problems = append(problems, "title must be at most 200 characters")
	}
	if strings.TrimSpace(input.Description) == "" {
		problems = append(problems, "description is required")
	}
	if input.Mood < 1 || input.Mood > 10 {
		problems = append(problems, "mood must be between 1 and 10")
	}
	if input.Productivity < 1 || input.Productivity > 10 {
		problems = append(problems, "productivity must be between 1 and 10")
	}
	if len(problems) > 0 {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", problems[0], problems)
	}
	return nil
}

func (s *Service) ListJournals(ctx context.Context, userUID string) (map[string]any, error) {
	journals, err := s.store.ListJournalsByUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if journals == nil {
		journals = []store.JournalEntry{}
	}
	return map[string]any{"count": len(journals), "journals": journals}, nil
}

func (s *Service) CreateJournal(ctx context.Context, input JournalInput) (store.JournalEntry, error) {
	if err := validateJournalInput(input); err != nil {
		return store.JournalEntry{}, err
	}

	annotation := sentiment.Analyze(input.Description)
	now := time.Now().UTC()
	entry := store.JournalEntry{
		ID:            util.NewID("jrnl"),
		UserUID:       strings.TrimSpace(input.UserUID),
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		Mood:          input.Mood,
		Productivity:  input.Productivity,
		Sentiment:     annotation.Sentiment,
		PolarityScore: annotation.PolarityScore,
		Sarcasm:       annotation.Sarcasm,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.InsertJournal(ctx, entry); err != nil {
		return store.JournalEntry{}, err
	}
	s.indexJournal(entry)
	return entry, nil
}

func (s *Service) UpdateJournal(ctx context.Context, journalID string, input JournalInput) (store.JournalEntry, error) {
	if err := validateJournalInput(input); err != nil {
		return store.JournalEntry{}, err
	}

	entry, err := s.store.GetJournal(ctx, journalID)
	if err != nil {
		return store.JournalEntry{}, err
	}

	annotation := sentiment.Analyze(input.Description)
	entry.UserUID = strings.TrimSpace(input.UserUID)
	entry.Title = strings.TrimSpace(input.Title)
	entry.Description = input.Description
	entry.Mood = input.Mood
	entry.Productivity = input.Productivity
	entry.Sentiment = annotation.Sentiment
	entry.PolarityScore = annotation.PolarityScore
	entry.Sarcasm = annotation.Sarcasm
	entry.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateJournal(ctx, entry); err != nil {
		return store.JournalEntry{}, err
	}
	s.indexJournal(entry)
	return entry, nil
}

func (s *Service) DeleteJournal(ctx context.Context, journalID string) error {
	if _, err := s.store.GetJournal(ctx, journalID); err != nil {
		return err
	}
	if err := s.store.DeleteJournal(ctx, journalID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteJournal(journalID)
	}
	return nil
}

func (s *Service) indexJournal(entry store.JournalEntry) {
	if s.search == nil {
		return
	}
	s.search.IndexJournal(search.JournalRecord{
		ID:          entry.ID,
		UserUID:     entry.UserUID,
		Title:       entry.Title,
		Description: entry.Description,
		Sentiment:   entry.Sentiment,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
	})
}

// AI

// AnalyzeJournal runs the sentiment analyzer and the advisor over a raw
// journal entry text.
func (s *Service) AnalyzeJournal(ctx context.Context, entryText string) (map[string]any, error) {
	if strings.TrimSpace(entryText) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "entry is required", nil)
	}
	if s.advisor == nil {
		return nil, domainError(http.StatusServiceUnavailable, "AI_UNAVAILABLE", "Advisor not configured", nil)
	}

	annotation := sentiment.Analyze(entryText)
	advice, err := s.advisor.Generate(ctx, entryText, annotation)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"status":             "success",
		"sentiment_analysis": annotation,
		"gemini_advice":      advice,
	}, nil
}

// Chat relays one message through the support chatbot pipeline.
func (s *Service) Chat(ctx context.Context, userID, sessionID, message string) (map[string]any, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(message) == "" {
		return nil, domainError(http.StatusBadRequest, "INVALID_BODY", "user_id and message are required", nil)
	}
	if s.chatbot == nil {
		return nil, domainError(http.StatusServiceUnavailable, "AI_UNAVAILABLE", "Chatbot not configured", nil)
	}
	if strings.TrimSpace(sessionID) == "" {
		sessionID = util.NewSessionID()
	}

	reply, err := s.chatbot.Process(ctx, userID, sessionID, message)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"status":     "success",
		"answer":     reply.Answer,
		"crisis":     reply.Crisis,
		"num_docs":   reply.NumDocs,
		"session_id": sessionID,
	}, nil
}

// Analytics

func (s *Service) rangeEntries(ctx context.Context, userUID, rangeKey string, now time.Time) ([]store.JournalEntry, error) {
	start, err := s.analytics.RangeStart(rangeKey, now)
	if err != nil {
		return nil, domainError(http.StatusBadRequest, "INVALID_RANGE", err.Error(), nil)
	}
	return s.store.ListJournalsInRange(ctx, userUID, start, now)
}

func (s *Service) Trends(ctx context.Context, userUID, rangeKey string) (analytics.Trends, error) {
	if strings.TrimSpace(userUID) == "" {
		return analytics.Trends{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "user_uid is required", nil)
	}
	now := time.Now()
	entries, err := s.rangeEntries(ctx, userUID, rangeKey, now)
	if err != nil {
		return analytics.Trends{}, err
	}
	series, err := s.analytics.BuildSeries(entries, rangeKey, now)
	if err != nil {
		return analytics.Trends{}, domainError(http.StatusBadRequest, "INVALID_RANGE", err.Error(), nil)
	}
	return analytics.Trends{Range: rangeKey, Series: series, TZ: s.analytics.Location().String()}, nil
}

func (s *Service) Summary(ctx context.Context, userUID, rangeKey string) (analytics.Summary, error) {
	trends, err := s.Trends(ctx, userUID, rangeKey)
	if err != nil {
		return analytics.Summary{}, err
	}
	return s.analytics.Summarize(trends.Series, rangeKey, time.Now()), nil
}

// Search

func (s *Service) Search(ctx context.Context, text, userUID string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}, nil
	}
	return s.search.Search(search.Query{
		Text:    text,
		UserUID: userUID,
		Limit:   limit,
		Offset:  offset,
	}), nil
}
