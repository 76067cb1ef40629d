// Package jsonfile stores portal records as flat JSON files, one file per
// collection, for single-node deployments without a database.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/repository"
)

const (
	classroomsFile  = "classrooms.json"
	assignmentsFile = "assignments.json"
	gradesFile      = "grades.json"
	submissionsFile = "submissions.json"
)

// Store keeps every collection in memory and rewrites the backing file on each mutation.
type Store struct {
	dir string
	now func() time.Time

	mu          sync.RWMutex
	classrooms  []models.Classroom
	assignments []models.Assignment
	grades      []models.Grade
	submissions []models.Submission
}

// Open loads the collections under dir, creating the directory when needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	s := &Store{dir: dir, now: time.Now}
	if err := load(filepath.Join(dir, classroomsFile), &s.classrooms); err != nil {
		return nil, err
	}
	if err := load(filepath.Join(dir, assignmentsFile), &s.assignments); err != nil {
		return nil, err
	}
	if err := load(filepath.Join(dir, gradesFile), &s.grades); err != nil {
		return nil, err
	}
	if err := load(filepath.Join(dir, submissionsFile), &s.submissions); err != nil {
		return nil, err
	}
	return s, nil
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repository.Store {
	return repository.Store{
		Classrooms:  &classroomRepository{s},
		Assignments: &assignmentRepository{s},
		Grades:      &gradeRepository{s},
		Submissions: &submissionRepository{s},
	}
}

func load(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// collection is one file's worth of records waiting to be written.
type collection struct {
	name    string
	records interface{}
}

// persist writes every collection to a temp file first and renames them into
// place only once all of them are staged, so a failed write leaves the
// previous files untouched. Callers must hold the write lock and publish the
// new slices only after persist succeeds.
func (s *Store) persist(collections ...collection) error {
	staged := make([]string, 0, len(collections))
	defer func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}()

	for _, c := range collections {
		tmp, err := s.stage(c)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", c.name, err)
		}
		staged = append(staged, tmp)
	}

	for i, c := range collections {
		if err := os.Rename(staged[i], filepath.Join(s.dir, c.name)); err != nil {
			return fmt.Errorf("failed to replace %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *Store) stage(c collection) (string, error) {
	data, err := json.MarshalIndent(c.records, "", "  ")
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, c.name+".*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
