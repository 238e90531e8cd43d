package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/adapters/persistence/repositories"
	"campus-cardhub/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errBoom = errors.New("boom")

// mockDirectoryRepo is an in-memory DirectoryRepository
type mockDirectoryRepo struct {
	mu      sync.Mutex
	records map[uint]*models.UserRecord
	nextID  uint

	insertErr error
	updateErr error
	findErr   error
	listErr   error
}

func newMockDirectoryRepo() *mockDirectoryRepo {
	return &mockDirectoryRepo{records: make(map[uint]*models.UserRecord), nextID: 1}
}

func (m *mockDirectoryRepo) add(record *models.UserRecord) *models.UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.ID == 0 {
		record.ID = m.nextID
		m.nextID++
	} else if record.ID >= m.nextID {
		m.nextID = record.ID + 1
	}
	m.records[record.ID] = record
	return record
}

func (m *mockDirectoryRepo) Insert(ctx context.Context, record *models.UserRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.CardNumber == record.CardNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	record.ID = m.nextID
	m.nextID++
	m.records[record.ID] = record
	return nil
}

func (m *mockDirectoryRepo) GetByID(ctx context.Context, id uint) (*models.UserRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (m *mockDirectoryRepo) FindByCardNumber(ctx context.Context, cardNumber string) (*models.UserRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.CardNumber == cardNumber {
			return record, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDirectoryRepo) FindByNfcID(ctx context.Context, nfcID string) (*models.UserRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.NfcID != nil && *record.NfcID == nfcID {
			return record, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDirectoryRepo) FindByIdentityToken(ctx context.Context, token string) (*models.UserRecord, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.IdentityToken == token {
			return record, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDirectoryRepo) List(ctx context.Context, filter repositories.DirectoryFilter, offset, limit int) ([]*models.UserRecord, int64, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*models.UserRecord
	for _, record := range m.records {
		if filter.Role != "" && record.Role != filter.Role {
			continue
		}
		if filter.Approved != nil && record.IsApproved != *filter.Approved {
			continue
		}
		if filter.Active != nil && record.IsActive != *filter.Active {
			continue
		}
		if filter.Department != "" && record.Department != filter.Department {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(record.FirstName+" "+record.LastName), strings.ToLower(filter.Search)) {
			continue
		}
		matched = append(matched, record)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockDirectoryRepo) Update(ctx context.Context, record *models.UserRecord) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = record
	return nil
}

func (m *mockDirectoryRepo) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range fields {
		switch key {
		case "is_approved":
			record.IsApproved = value.(bool)
		case "is_active":
			record.IsActive = value.(bool)
		case "can_approve_students":
			record.CanApproveStudents = value.(bool)
		case "nfc_id":
			if value == nil {
				record.NfcID = nil
			} else {
				nfc := value.(string)
				record.NfcID = &nfc
			}
		case "image_url":
			record.ImageURL = value.(string)
		}
	}
	return nil
}

func (m *mockDirectoryRepo) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockDirectoryRepo) ExistsByCardNumber(ctx context.Context, cardNumber string) (bool, error) {
	if m.findErr != nil {
		return false, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.CardNumber == cardNumber {
			return true, nil
		}
	}
	return false, nil
}

// mockCredentialService is an in-memory CredentialService
type mockCredentialService struct {
	mu      sync.Mutex
	creds   map[string]mockCredential // keyed by email
	current string

	createErr  error
	deleteErr  error
	signOutErr error

	deleted   []string
	signedOut []string
}

type mockCredential struct {
	token  string
	secret string
}

func newMockCredentialService() *mockCredentialService {
	return &mockCredentialService{creds: make(map[string]mockCredential)}
}

func (m *mockCredentialService) seed(email, secret, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[email] = mockCredential{token: token, secret: secret}
}

func (m *mockCredentialService) CreateCredential(ctx context.Context, email, secret string) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.creds[email]; ok {
		return "", domain.ErrEmailAlreadyRegistered
	}
	token := uuid.New().String()
	m.creds[email] = mockCredential{token: token, secret: secret}
	m.current = token
	return token, nil
}

func (m *mockCredentialService) VerifyCredential(ctx context.Context, email, secret string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cred, ok := m.creds[email]
	if !ok {
		return "", domain.ErrUnknownIdentity
	}
	if cred.secret != secret {
		return "", domain.ErrWrongSecret
	}
	m.current = cred.token
	return cred.token, nil
}

func (m *mockCredentialService) DeleteCredential(ctx context.Context, identityToken string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, cred := range m.creds {
		if cred.token == identityToken {
			delete(m.creds, email)
		}
	}
	m.deleted = append(m.deleted, identityToken)
	if m.current == identityToken {
		m.current = ""
	}
	return nil
}

func (m *mockCredentialService) SignOut(ctx context.Context, identityToken string) error {
	if m.signOutErr != nil {
		return m.signOutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signedOut = append(m.signedOut, identityToken)
	if identityToken == "" || m.current == identityToken {
		m.current = ""
	}
	return nil
}

func (m *mockCredentialService) SendResetEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.creds[email]; !ok {
		return domain.ErrUnknownIdentity
	}
	return nil
}

func (m *mockCredentialService) CurrentSession(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

// mockImageStorage is an in-memory ImageStorage
type mockImageStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	uploadErr error
	deleteErr error
	deleted   []string
}

func newMockImageStorage() *mockImageStorage {
	return &mockImageStorage{objects: make(map[string][]byte)}
}

func (m *mockImageStorage) Upload(ctx context.Context, data []byte, path string) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	url := "/static/" + path
	m.objects[url] = data
	return url, nil
}

func (m *mockImageStorage) Delete(ctx context.Context, url string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, url)
	m.deleted = append(m.deleted, url)
	return nil
}

// mockRefreshTokenRepo is an in-memory RefreshTokenRepository
type mockRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken // keyed by token hash
	nextID uint

	revokedAll []string
}

func newMockRefreshTokenRepo() *mockRefreshTokenRepo {
	return &mockRefreshTokenRepo{tokens: make(map[string]*models.RefreshToken), nextID: 1}
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token.ID = m.nextID
	m.nextID++
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *mockRefreshTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[tokenHash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return token, nil
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, token := range m.tokens {
		if token.ID == id {
			now := nowRef()
			token.RevokedAt = &now
		}
	}
	return nil
}

func (m *mockRefreshTokenRepo) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token, ok := m.tokens[tokenHash]; ok {
		now := nowRef()
		token.RevokedAt = &now
	}
	return nil
}

func (m *mockRefreshTokenRepo) RevokeAllByIdentityToken(ctx context.Context, identityToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokedAll = append(m.revokedAll, identityToken)
	for _, token := range m.tokens {
		if token.IdentityToken == identityToken {
			now := nowRef()
			token.RevokedAt = &now
		}
	}
	return nil
}

func (m *mockRefreshTokenRepo) DeleteExpired(ctx context.Context) error {
	return nil
}

// mockCardReader replays a scripted sequence of reads
type mockCardReader struct {
	mu    sync.Mutex
	reads []mockRead
}

type mockRead struct {
	input *ScanInput
	err   error
}

func (m *mockCardReader) Read(ctx context.Context) (*ScanInput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	if len(m.reads) == 0 {
		m.mu.Unlock()
		// Script exhausted: behave like a blocked transport
		<-ctx.Done()
		return nil, ctx.Err()
	}
	next := m.reads[0]
	m.reads = m.reads[1:]
	m.mu.Unlock()
	return next.input, next.err
}

func nowRef() time.Time {
	return time.Now()
}
