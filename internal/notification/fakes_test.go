package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"letting-compliance/internal/mailer"
	"letting-compliance/internal/models"
	"letting-compliance/internal/repository"
)

type fakeSources struct {
	certs      []repository.OwnedCertificate
	hmos       []repository.OwnedHMOLicense
	regs       []repository.OwnedRegistration
	overdue    []repository.OverdueAssessment
	failCerts  bool
	failLic    bool
	failAssess bool

	mu            sync.Mutex
	certWindow    [2]time.Time
	createdBefore time.Time
}

func (f *fakeSources) ExpiringBetween(_ context.Context, from, to time.Time) ([]repository.OwnedCertificate, error) {
	f.mu.Lock()
	f.certWindow = [2]time.Time{from, to}
	f.mu.Unlock()
	if f.failCerts {
		return nil, errors.New("certificates query failed")
	}
	return f.certs, nil
}

func (f *fakeSources) HMOLicensesExpiringBetween(_ context.Context, _, _ time.Time) ([]repository.OwnedHMOLicense, error) {
	if f.failLic {
		return nil, errors.New("hmo query failed")
	}
	return f.hmos, nil
}

func (f *fakeSources) RegistrationsExpiringBetween(_ context.Context, _, _ time.Time) ([]repository.OwnedRegistration, error) {
	if f.failLic {
		return nil, errors.New("registration query failed")
	}
	return f.regs, nil
}

func (f *fakeSources) OverdueCandidates(_ context.Context, createdBefore time.Time) ([]repository.OverdueAssessment, error) {
	f.mu.Lock()
	f.createdBefore = createdBefore
	f.mu.Unlock()
	if f.failAssess {
		return nil, errors.New("assessment query failed")
	}
	return f.overdue, nil
}

// memoryStore mirrors the query-then-create dedup of the Postgres store.
type memoryStore struct {
	mu         sync.Mutex
	rows       []models.Notification
	failCreate map[string]bool
}

func (m *memoryStore) ExistsSince(_ context.Context, userID string, typ models.NotificationType, key, entityID string, since time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.rows {
		if n.UserID == userID && n.Type == typ && n.Metadata[key] == entityID && n.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range n.Metadata {
		if id, ok := v.(string); ok && m.failCreate[id] {
			return errors.New("insert failed")
		}
	}
	m.rows = append(m.rows, *n)
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memoryEmailLogs struct {
	mu   sync.Mutex
	logs []models.EmailLog
}

func (m *memoryEmailLogs) Create(_ context.Context, l *models.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *l)
	return nil
}

type staticContacts map[string]models.UserContact

func (s staticContacts) GetContact(_ context.Context, userID string) (models.UserContact, error) {
	c, ok := s[userID]
	if !ok {
		return c, errors.New("user not found")
	}
	return c, nil
}

type fakeMailer struct {
	mu     sync.Mutex
	result mailer.Result
	sent   []mailer.Message
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) mailer.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.result
}

func (f *fakeMailer) Provider() string { return "fake" }

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, phone, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, phone+"|"+message)
	return "sms-1", nil
}

type fakeIndexer struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (f *fakeIndexer) Index(_ context.Context, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.ids = append(f.ids, n.ID)
	return nil
}
