package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

// rowTimeLayout is the timestamp format persisted in the tabular file.
const rowTimeLayout = "2006-01-02 15:04:05"

// attachmentSep joins attachment references inside a single cell.
const attachmentSep = "|"

var csvColumns = []string{
	"id", "title", "description", "category",
	"employee_name", "employee_email",
	"status", "assigned_to",
	"created_at", "updated_at", "comments", "attachments",
}

// CSVStore persists grievances in a flat tabular file with a fixed column
// layout. Every mutation rewrites the whole file. Rows are cached in memory
// after a load; any mutation invalidates the cache so the next read within
// this process observes the write.
type CSVStore struct {
	path string

	mu    sync.Mutex
	cache []domain.Grievance
}

// NewCSVStore creates a file-backed store at path. The file is created lazily
// with seed rows on first access.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// LoadAll returns every row, initializing the file with seed data if absent.
func (s *CSVStore) LoadAll(ctx context.Context) ([]domain.Grievance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Grievance, len(rows))
	copy(out, rows)
	return out, nil
}

// Get returns one row by id.
func (s *CSVStore) Get(ctx context.Context, id string) (*domain.Grievance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].ID == id {
			g := rows[i]
			return &g, nil
		}
	}
	return nil, apperrors.NewNotFound("grievance", map[string]any{"id": id})
}

// Append adds a new row and rewrites the file.
func (s *CSVStore) Append(ctx context.Context, g *domain.Grievance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	rows = append(rows, *g)
	return s.writeLocked(rows)
}

// Save overwrites the row with the matching id and rewrites the file.
func (s *CSVStore) Save(ctx context.Context, g *domain.Grievance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}
	found := false
	for i := range rows {
		if rows[i].ID == g.ID {
			rows[i] = *g
			found = true
			break
		}
	}
	if !found {
		return apperrors.NewNotFound("grievance", map[string]any{"id": g.ID})
	}
	return s.writeLocked(rows)
}

func (s *CSVStore) loadLocked(ctx context.Context) ([]domain.Grievance, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if s.cache != nil {
		return s.cache, nil
	}
	if err := s.ensureFileLocked(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(csvColumns)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	rows := make([]domain.Grievance, 0, len(records))
	for i, record := range records {
		if i == 0 {
			continue // header
		}
		rows = append(rows, recordToGrievance(record))
	}
	s.cache = rows
	return rows, nil
}

// writeLocked rewrites the whole file and drops the cache so the next read
// re-observes the backing medium. The rows go to a temp file in the same
// directory first and are renamed over the original, so a failure mid-write
// cannot lose the existing store.
func (s *CSVStore) writeLocked(rows []domain.Grievance) error {
	s.cache = nil

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	writer := csv.NewWriter(tmp)
	if err := writer.Write(csvColumns); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	for i := range rows {
		if err := writer.Write(grievanceToRecord(&rows[i])); err != nil {
			return apperrors.NewStoreUnavailable(err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

func (s *CSVStore) ensureFileLocked() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return apperrors.NewStoreUnavailable(err)
	}
	return s.writeLocked(SeedGrievances(time.Now()))
}

func grievanceToRecord(g *domain.Grievance) []string {
	return []string{
		g.ID,
		g.Title,
		g.Description,
		string(g.Category),
		g.EmployeeName,
		g.EmployeeEmail,
		string(g.Status),
		g.AssignedTo,
		g.CreatedAt.Format(rowTimeLayout),
		g.UpdatedAt.Format(rowTimeLayout),
		g.Comments,
		strings.Join(g.Attachments, attachmentSep),
	}
}

func recordToGrievance(record []string) domain.Grievance {
	g := domain.Grievance{
		ID:            record[0],
		Title:         record[1],
		Description:   record[2],
		Category:      domain.GrievanceCategory(record[3]),
		EmployeeName:  record[4],
		EmployeeEmail: record[5],
		Status:        domain.GrievanceStatus(record[6]),
		AssignedTo:    record[7],
		Comments:      record[10],
	}
	if t, err := time.ParseInLocation(rowTimeLayout, record[8], time.Local); err == nil {
		g.CreatedAt = t
	}
	if t, err := time.ParseInLocation(rowTimeLayout, record[9], time.Local); err == nil {
		g.UpdatedAt = t
	}
	if record[11] != "" {
		g.Attachments = strings.Split(record[11], attachmentSep)
	}
	if g.Status == "" {
		g.Status = domain.StatusOpen
	}
	return g
}
