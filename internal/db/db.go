// Package db owns the Postgres connection pool and the hand-written
// queries the services use. The schema is four tables: users, projects,
// project_members, and snapshots (full timeline documents as JSONB).
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Store wraps the pool with typed query methods.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

type Project struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Member struct {
	ProjectID   string
	UserID      string
	Role        string
	DisplayName string
	Email       string
}

type Snapshot struct {
	ID        string
	ProjectID string
	Version   int32
	Document  []byte
	CreatedAt time.Time
}

const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
)

func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password, display_name) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.Password, u.DisplayName)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name FROM users WHERE email = $1`,
		email).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName)
	return u, err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name FROM users WHERE id = $1`,
		id).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName)
	return u, err
}

func (s *Store) CreateProject(ctx context.Context, id, name, ownerID string) (Project, error) {
	var p Project
	err := s.pool.QueryRow(ctx,
		`INSERT INTO projects (id, name, owner_id) VALUES ($1, $2, $3)
		 RETURNING id, name, owner_id, created_at, updated_at`,
		id, name, ownerID).Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) GetProject(ctx context.Context, id string) (Project, error) {
	var p Project
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, created_at, updated_at FROM projects WHERE id = $1`,
		id).Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) ListProjectsForUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name, p.owner_id, p.created_at, p.updated_at
		 FROM projects p
		 JOIN project_members m ON m.project_id = p.id
		 WHERE m.user_id = $1
		 ORDER BY p.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

func (s *Store) AddProjectMember(ctx context.Context, projectID, userID, role string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO project_members (project_id, user_id, role) VALUES ($1, $2, $3)
		 ON CONFLICT (project_id, user_id) DO NOTHING`,
		projectID, userID, role)
	return err
}

func (s *Store) GetProjectMember(ctx context.Context, projectID, userID string) (Member, error) {
	var m Member
	err := s.pool.QueryRow(ctx,
		`SELECT project_id, user_id, role FROM project_members
		 WHERE project_id = $1 AND user_id = $2`,
		projectID, userID).Scan(&m.ProjectID, &m.UserID, &m.Role)
	return m, err
}

func (s *Store) ListProjectMembers(ctx context.Context, projectID string) ([]Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.project_id, m.user_id, m.role, u.display_name, u.email
		 FROM project_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.project_id = $1`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.DisplayName, &m.Email); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) RemoveProjectMember(ctx context.Context, projectID, userID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`,
		projectID, userID)
	return err
}

func (s *Store) CreateSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, project_id, version, document) VALUES ($1, $2, $3, $4)`,
		snap.ID, snap.ProjectID, snap.Version, snap.Document)
	return err
}

func (s *Store) GetLatestSnapshot(ctx context.Context, projectID string) (Snapshot, error) {
	var snap Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT id, project_id, version, document, created_at FROM snapshots
		 WHERE project_id = $1 ORDER BY version DESC LIMIT 1`,
		projectID).Scan(&snap.ID, &snap.ProjectID, &snap.Version, &snap.Document, &snap.CreatedAt)
	return snap, err
}

// IsNoRows reports whether err is the pgx no-rows sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
