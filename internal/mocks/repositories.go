package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/models"
	"github.com/2601-ai-team4/ContentShield/internal/repository"
)

var (
	_ repository.CommentRepository     = (*MockCommentRepository)(nil)
	_ repository.AnalysisRepository    = (*MockAnalysisRepository)(nil)
	_ repository.BlockedWordRepository = (*MockBlockedWordRepository)(nil)
	_ repository.RunRepository         = (*MockRunRepository)(nil)
	_ repository.Transactor            = (*MockTransactor)(nil)
)

// MockRepos exposes the typed mocks behind a Repositories value
type MockRepos struct {
	Comment     *MockCommentRepository
	Analysis    *MockAnalysisRepository
	BlockedWord *MockBlockedWordRepository
	Run         *MockRunRepository
	Tx          *MockTransactor
}

// NewMockRepositories wires fresh mocks into a Repositories value
func NewMockRepositories() (*repository.Repositories, *MockRepos) {
	m := &MockRepos{
		Comment:     NewMockCommentRepository(),
		Analysis:    NewMockAnalysisRepository(),
		BlockedWord: NewMockBlockedWordRepository(),
		Run:         NewMockRunRepository(),
		Tx:          &MockTransactor{},
	}
	repos := &repository.Repositories{
		Comment:     m.Comment,
		Analysis:    m.Analysis,
		BlockedWord: m.BlockedWord,
		Run:         m.Run,
		Tx:          m.Tx,
	}
	m.Tx.Repos = repos
	return repos, m
}

func ledgerKey(userID int64, externalID string) string {
	return fmt.Sprintf("%d:%s", userID, externalID)
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	Comments map[int64]*models.Comment
	// Ledger holds ingested (user, external id) keys; only explicit deletes forget them
	Ledger map[string]bool
	nextID int64

	CreateFunc        func(ctx context.Context, comment *models.Comment) error
	KeyExistsFunc     func(ctx context.Context, userID int64, externalID string) (bool, error)
	GetByIDError      error
	FindError         error
	DeleteByUserError error
	MarkAnalyzedError error
	CreateCalls       int
	DeleteByUserCalls int
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments: make(map[int64]*models.Comment),
		Ledger:   make(map[string]bool),
	}
}

// Add stores a comment directly and returns its id
func (m *MockCommentRepository) Add(c models.Comment) int64 {
	m.nextID++
	c.ID = m.nextID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	m.Comments[c.ID] = &c
	return c.ID
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.CreateCalls++
	if m.CreateFunc != nil {
		if err := m.CreateFunc(ctx, comment); err != nil {
			return err
		}
	}
	for _, c := range m.Comments {
		if c.UserID == comment.UserID && c.ExternalCommentID == comment.ExternalCommentID {
			return repository.ErrDuplicate
		}
	}
	comment.ID = m.Add(*comment)
	comment.CreatedAt = m.Comments[comment.ID].CreatedAt
	if comment.SourceKeyed {
		m.Ledger[ledgerKey(comment.UserID, comment.ExternalCommentID)] = true
	}
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	if m.GetByIDError != nil {
		return nil, m.GetByIDError
	}
	c, ok := m.Comments[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *MockCommentRepository) KeyExists(ctx context.Context, userID int64, externalID string) (bool, error) {
	if m.KeyExistsFunc != nil {
		return m.KeyExistsFunc(ctx, userID, externalID)
	}
	return m.Ledger[ledgerKey(userID, externalID)], nil
}

func (m *MockCommentRepository) matching(q models.CommentQuery) []models.Comment {
	var out []models.Comment
	for _, c := range m.Comments {
		if c.UserID != q.UserID {
			continue
		}
		if q.URL != "" && c.ContentURL != q.URL {
			continue
		}
		if q.IsMalicious != nil && c.IsMalicious != *q.IsMalicious {
			continue
		}
		if c.CommentedAt.Before(q.Start) || c.CommentedAt.After(q.End) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CommentedAt.Equal(out[j].CommentedAt) {
			return out[i].CommentedAt.After(out[j].CommentedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *MockCommentRepository) Find(ctx context.Context, q models.CommentQuery) (*models.CommentPage, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	all := m.matching(q)
	page := &models.CommentPage{Items: []models.Comment{}, Page: q.Page, Size: q.Size, TotalCount: len(all)}
	start := q.Offset()
	if start < len(all) {
		end := start + q.Size
		if end > len(all) {
			end = len(all)
		}
		page.Items = all[start:end]
	}
	return page, nil
}

func (m *MockCommentRepository) StreamByUser(ctx context.Context, q models.CommentQuery, callback func(*models.Comment) error) error {
	for _, c := range m.matching(q) {
		c := c
		if err := callback(&c); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockCommentRepository) MarkAnalyzed(ctx context.Context, id int64, malicious bool) error {
	if m.MarkAnalyzedError != nil {
		return m.MarkAnalyzedError
	}
	if c, ok := m.Comments[id]; ok {
		c.IsAnalyzed = true
		c.IsMalicious = malicious
	}
	return nil
}

// remove deletes one stored comment and forgets its ingest key
func (m *MockCommentRepository) remove(id int64) {
	c := m.Comments[id]
	delete(m.Comments, id)
	delete(m.Ledger, ledgerKey(c.UserID, c.ExternalCommentID))
}

func (m *MockCommentRepository) DeleteByID(ctx context.Context, userID, id int64) (bool, error) {
	c, ok := m.Comments[id]
	if !ok || c.UserID != userID {
		return false, nil
	}
	m.remove(id)
	return true, nil
}

func (m *MockCommentRepository) DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error) {
	var n int64
	for _, id := range ids {
		if ok, _ := m.DeleteByID(ctx, userID, id); ok {
			n++
		}
	}
	return n, nil
}

func (m *MockCommentRepository) DeleteByUserAndURL(ctx context.Context, userID int64, url string) (int64, error) {
	var n int64
	for id, c := range m.Comments {
		if c.UserID == userID && c.ContentURL == url {
			m.remove(id)
			n++
		}
	}
	return n, nil
}

func (m *MockCommentRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	m.DeleteByUserCalls++
	if m.DeleteByUserError != nil {
		return 0, m.DeleteByUserError
	}
	var n int64
	for id, c := range m.Comments {
		if c.UserID == userID {
			delete(m.Comments, id)
			n++
		}
	}
	return n, nil
}

func (m *MockCommentRepository) PurgeByUser(ctx context.Context, userID int64) (int64, error) {
	n, err := m.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	prefix := ledgerKey(userID, "")
	for key := range m.Ledger {
		if strings.HasPrefix(key, prefix) {
			delete(m.Ledger, key)
		}
	}
	return n, nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	return len(m.Comments), nil
}

// MockAnalysisRepository is a mock implementation of AnalysisRepository
type MockAnalysisRepository struct {
	Results     map[int64]*models.AnalysisResult
	CreateError error
	nextID      int64
}

func NewMockAnalysisRepository() *MockAnalysisRepository {
	return &MockAnalysisRepository{Results: make(map[int64]*models.AnalysisResult)}
}

func (m *MockAnalysisRepository) Create(ctx context.Context, result *models.AnalysisResult) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	if _, exists := m.Results[result.CommentID]; exists {
		return repository.ErrDuplicate
	}
	m.nextID++
	result.ID = m.nextID
	result.AnalyzedAt = time.Now()
	cp := *result
	m.Results[result.CommentID] = &cp
	return nil
}

func (m *MockAnalysisRepository) GetByCommentID(ctx context.Context, commentID int64) (*models.AnalysisResult, error) {
	r, ok := m.Results[commentID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MockAnalysisRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.AnalysisResult, error) {
	var out []models.AnalysisResult
	for _, r := range m.Results {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockAnalysisRepository) Count(ctx context.Context) (int, error) {
	return len(m.Results), nil
}

// MockBlockedWordRepository is a mock implementation of BlockedWordRepository
type MockBlockedWordRepository struct {
	Words map[int64][]models.BlockedWord
	Err   error
	Calls int
}

func NewMockBlockedWordRepository() *MockBlockedWordRepository {
	return &MockBlockedWordRepository{Words: make(map[int64][]models.BlockedWord)}
}

func (m *MockBlockedWordRepository) GetActive(ctx context.Context, userID int64) ([]models.BlockedWord, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.BlockedWord
	for _, w := range m.Words[userID] {
		if w.IsActive {
			out = append(out, w)
		}
	}
	return out, nil
}

// MockRunRepository is a mock implementation of RunRepository
type MockRunRepository struct {
	Runs        map[string]*models.IngestRun
	Errors      map[string][]models.RunError
	CreateError error
	UpdateError error
	Updates     []models.RunPhase
}

func NewMockRunRepository() *MockRunRepository {
	return &MockRunRepository{
		Runs:   make(map[string]*models.IngestRun),
		Errors: make(map[string][]models.RunError),
	}
}

func (m *MockRunRepository) Create(ctx context.Context, run *models.IngestRun) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	cp := *run
	m.Runs[run.ID] = &cp
	return nil
}

func (m *MockRunRepository) Update(ctx context.Context, run *models.IngestRun) error {
	m.Updates = append(m.Updates, run.Phase)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	cp := *run
	m.Runs[run.ID] = &cp
	return nil
}

func (m *MockRunRepository) GetByID(ctx context.Context, id string) (*models.IngestRun, error) {
	r, ok := m.Runs[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MockRunRepository) GetByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.IngestRun, error) {
	var latest *models.IngestRun
	for _, r := range m.Runs {
		if r.UserID != userID || r.IdempotencyKey != key || r.Status != models.RunStatusCompleted {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *MockRunRepository) AddErrors(ctx context.Context, runID string, errors []models.RunError) error {
	m.Errors[runID] = append(m.Errors[runID], errors...)
	return nil
}

func (m *MockRunRepository) GetErrors(ctx context.Context, runID string, limit int) ([]models.RunError, error) {
	errs := m.Errors[runID]
	if limit > 0 && len(errs) > limit {
		errs = errs[:limit]
	}
	return errs, nil
}

// MockTransactor runs fn against Repos without isolation. Nested calls model
// savepoints and never fail on their own.
type MockTransactor struct {
	Repos *repository.Repositories
	// BeginFunc and CommitFunc may fail the n-th top-level transaction (1-based)
	BeginFunc  func(n int) error
	CommitFunc func(n int) error

	TopLevelCalls int
	NestedCalls   int
	depth         int
}

func (m *MockTransactor) InTx(ctx context.Context, fn func(tx *repository.Repositories) error) error {
	top := m.depth == 0
	if top {
		m.TopLevelCalls++
		if m.BeginFunc != nil {
			if err := m.BeginFunc(m.TopLevelCalls); err != nil {
				return err
			}
		}
	} else {
		m.NestedCalls++
	}

	n := m.TopLevelCalls
	m.depth++
	err := fn(m.Repos)
	m.depth--
	if err != nil {
		return err
	}

	if top && m.CommitFunc != nil {
		return m.CommitFunc(n)
	}
	return nil
}
