package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"axis/internal/domain"
	"axis/pkg/platform/sentinel"
)

// PostgresStore implements Store directly against the authoritative database
// for deployments that bypass the REST gateway. Same contract, same error
// translation; the sync layer cannot tell the drivers apart.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres opens a connection pool with the given DSN.
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", sentinel.ErrUnavailable, err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresFromDB wraps an existing handle; used by tests.
func NewPostgresFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// Writable columns per table. Patches touching anything else are a
// programming error and fail loudly before reaching the database.
var patchColumns = map[string]map[string]bool{
	"profiles": {
		"handle": true, "name": true, "email": true, "avatar_url": true,
		"role": true, "status": true, "atis_score": true, "rank": true,
		"trust_modifier": true, "justification": true, "dynamic_data": true,
	},
	"proofs": {
		"title": true, "url": true, "type": true, "company": true,
		"description": true, "niche": true, "admin_score": true, "status": true,
	},
	"projects": {
		"title": true, "link": true, "price": true, "niche": true, "description": true,
	},
	"notifications": {"is_read": true},
}

func buildSet(table string, patch Patch) (string, []any, error) {
	allowed := patchColumns[table]
	cols := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch))
	i := 1
	for col, val := range patch {
		if !allowed[col] {
			return "", nil, fmt.Errorf("column %q not patchable on %s", col, table)
		}
		if col == "dynamic_data" {
			buf, err := json.Marshal(val)
			if err != nil {
				return "", nil, fmt.Errorf("encode dynamic_data: %w", err)
			}
			val = buf
		}
		cols = append(cols, fmt.Sprintf("%s = $%d", col, i))
		args = append(args, val)
		i++
	}
	if len(cols) == 0 {
		return "", nil, errors.New("empty patch")
	}
	return strings.Join(cols, ", "), args, nil
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return err
}

const profileColumns = `id, handle, name, email, avatar_url, role, status,
	atis_score, rank, trust_modifier, justification, dynamic_data, created_at`

func scanProfile(row interface{ Scan(...any) error }) (domain.Profile, error) {
	var p domain.Profile
	var dynamic []byte
	err := row.Scan(&p.ID, &p.Handle, &p.Name, &p.Email, &p.AvatarURL, &p.Role,
		&p.Status, &p.ATISScore, &p.Rank, &p.TrustModifier, &p.Justification,
		&dynamic, &p.CreatedAt)
	if err != nil {
		return domain.Profile{}, translate(err)
	}
	if len(dynamic) > 0 {
		if err := json.Unmarshal(dynamic, &p.DynamicData); err != nil {
			return domain.Profile{}, fmt.Errorf("decode dynamic_data: %w", err)
		}
	}
	return p, nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	index := map[string]int{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(profiles)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachProofs(ctx, profiles, index); err != nil {
		return nil, err
	}
	normalizeProfiles(profiles)
	return profiles, nil
}

// attachProofs embeds each profile's proofs; the profile is the aggregate
// root in the mirror.
func (s *PostgresStore) attachProofs(ctx context.Context, profiles []domain.Profile, index map[string]int) error {
	if len(profiles) == 0 {
		return nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, jobber_id, type, title, url, company,
		description, niche, admin_score, status, created_at
		FROM proofs ORDER BY created_at DESC`)
	if err != nil {
		return translate(err)
	}
	defer rows.Close()

	for rows.Next() {
		var pr domain.Proof
		if err := rows.Scan(&pr.ID, &pr.JobberID, &pr.Type, &pr.Title, &pr.URL,
			&pr.Company, &pr.Description, &pr.Niche, &pr.AdminScore, &pr.Status,
			&pr.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[pr.JobberID]; ok {
			profiles[i].Proofs = append(profiles[i].Proofs, pr)
		}
	}
	return rows.Err()
}

func (s *PostgresStore) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		return domain.Profile{}, err
	}
	profiles := []domain.Profile{p}
	if err := s.attachProofsFor(ctx, &profiles[0]); err != nil {
		return domain.Profile{}, err
	}
	normalizeProfiles(profiles)
	return profiles[0], nil
}

func (s *PostgresStore) attachProofsFor(ctx context.Context, p *domain.Profile) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, jobber_id, type, title, url, company,
		description, niche, admin_score, status, created_at
		FROM proofs WHERE jobber_id = $1 ORDER BY created_at DESC`, p.ID)
	if err != nil {
		return translate(err)
	}
	defer rows.Close()
	for rows.Next() {
		var pr domain.Proof
		if err := rows.Scan(&pr.ID, &pr.JobberID, &pr.Type, &pr.Title, &pr.URL,
			&pr.Company, &pr.Description, &pr.Niche, &pr.AdminScore, &pr.Status,
			&pr.CreatedAt); err != nil {
			return err
		}
		p.Proofs = append(p.Proofs, pr)
	}
	return rows.Err()
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id string, patch Patch) (domain.Profile, error) {
	set, args, err := buildSet("profiles", patch)
	if err != nil {
		return domain.Profile{}, err
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = $%d RETURNING `+profileColumns, set, len(args))
	p, err := scanProfile(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return domain.Profile{}, err
	}
	return s.GetProfile(ctx, p.ID)
}

func (s *PostgresStore) DeleteProfile(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM profiles WHERE id = $1`, id)
}

func (s *PostgresStore) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const proofColumns = `id, jobber_id, type, title, url, company, description, niche, admin_score, status, created_at`

func scanProof(row interface{ Scan(...any) error }) (domain.Proof, error) {
	var pr domain.Proof
	err := row.Scan(&pr.ID, &pr.JobberID, &pr.Type, &pr.Title, &pr.URL, &pr.Company,
		&pr.Description, &pr.Niche, &pr.AdminScore, &pr.Status, &pr.CreatedAt)
	if err != nil {
		return domain.Proof{}, translate(err)
	}
	return pr, nil
}

func (s *PostgresStore) InsertProof(ctx context.Context, proof domain.Proof) (domain.Proof, error) {
	if proof.ID == "" {
		proof.ID = uuid.NewString()
	}
	row := s.db.QueryRowContext(ctx, `INSERT INTO proofs
		(id, jobber_id, type, title, url, company, description, niche, admin_score, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now())
		RETURNING `+proofColumns,
		proof.ID, proof.JobberID, proof.Type, proof.Title, proof.URL, proof.Company,
		proof.Description, proof.Niche, proof.AdminScore, proof.Status)
	return scanProof(row)
}

func (s *PostgresStore) UpdateProof(ctx context.Context, id string, patch Patch) (domain.Proof, error) {
	set, args, err := buildSet("proofs", patch)
	if err != nil {
		return domain.Proof{}, err
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE proofs SET %s WHERE id = $%d RETURNING `+proofColumns, set, len(args))
	return scanProof(s.db.QueryRowContext(ctx, query, args...))
}

func (s *PostgresStore) DeleteProof(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM proofs WHERE id = $1`, id)
}

const projectColumns = `id, title, link, price, niche, description, created_by, created_at`

func scanProject(row interface{ Scan(...any) error }) (domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.Title, &p.Link, &p.Price, &p.Niche, &p.Description,
		&p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return domain.Project{}, translate(err)
	}
	return p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *PostgresStore) InsertProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	row := s.db.QueryRowContext(ctx, `INSERT INTO projects
		(id, title, link, price, niche, description, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
		RETURNING `+projectColumns,
		project.ID, project.Title, project.Link, project.Price, project.Niche,
		project.Description, project.CreatedBy)
	return scanProject(row)
}

func (s *PostgresStore) UpdateProject(ctx context.Context, id string, patch Patch) (domain.Project, error) {
	set, args, err := buildSet("projects", patch)
	if err != nil {
		return domain.Project{}, err
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE projects SET %s WHERE id = $%d RETURNING `+projectColumns, set, len(args))
	return scanProject(s.db.QueryRowContext(ctx, query, args...))
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM projects WHERE id = $1`, id)
}

const broadcastColumns = `id, message, priority, author_id, created_at`

func (s *PostgresStore) ListBroadcasts(ctx context.Context) ([]domain.Broadcast, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+broadcastColumns+` FROM broadcasts ORDER BY created_at DESC`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	var broadcasts []domain.Broadcast
	for rows.Next() {
		var b domain.Broadcast
		if err := rows.Scan(&b.ID, &b.Message, &b.Priority, &b.AuthorID, &b.CreatedAt); err != nil {
			return nil, err
		}
		broadcasts = append(broadcasts, b)
	}
	return broadcasts, rows.Err()
}

func (s *PostgresStore) InsertBroadcast(ctx context.Context, broadcast domain.Broadcast) (domain.Broadcast, error) {
	if broadcast.ID == "" {
		broadcast.ID = uuid.NewString()
	}
	var b domain.Broadcast
	err := s.db.QueryRowContext(ctx, `INSERT INTO broadcasts (id, message, priority, author_id, created_at)
		VALUES ($1,$2,$3,$4,now()) RETURNING `+broadcastColumns,
		broadcast.ID, broadcast.Message, broadcast.Priority, broadcast.AuthorID).
		Scan(&b.ID, &b.Message, &b.Priority, &b.AuthorID, &b.CreatedAt)
	if err != nil {
		return domain.Broadcast{}, translate(err)
	}
	return b, nil
}

func (s *PostgresStore) DeleteBroadcast(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM broadcasts WHERE id = $1`, id)
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, message, type, is_read, metadata, created_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var meta []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.IsRead, &meta, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &n.Metadata); err != nil {
				return nil, fmt.Errorf("decode notification metadata: %w", err)
			}
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *PostgresStore) MarkNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1`, userID)
	return translateNil(err)
}

func (s *PostgresStore) DeleteNotification(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM notifications WHERE id = $1`, id)
}

func (s *PostgresStore) ClearNotifications(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	return translateNil(err)
}

func translateNil(err error) error {
	if err != nil {
		return translate(err)
	}
	return nil
}

const eventColumns = `id, type, message, severity, related_jobber_id, is_read, created_at`

func (s *PostgresStore) ListEvents(ctx context.Context) ([]domain.SystemEvent, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events
		ORDER BY created_at DESC LIMIT $1`, domain.EventReadLimit)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	var events []domain.SystemEvent
	for rows.Next() {
		var e domain.SystemEvent
		var related sql.NullString
		if err := rows.Scan(&e.ID, &e.Type, &e.Message, &e.Severity, &related, &e.IsRead, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.RelatedJobberID = related.String
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) InsertEvent(ctx context.Context, event domain.SystemEvent) (domain.SystemEvent, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	var e domain.SystemEvent
	var related sql.NullString
	err := s.db.QueryRowContext(ctx, `INSERT INTO events (id, type, message, severity, related_jobber_id, is_read, created_at)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),false,now()) RETURNING `+eventColumns,
		event.ID, event.Type, event.Message, event.Severity, event.RelatedJobberID).
		Scan(&e.ID, &e.Type, &e.Message, &e.Severity, &related, &e.IsRead, &e.CreatedAt)
	if err != nil {
		return domain.SystemEvent{}, translate(err)
	}
	e.RelatedJobberID = related.String
	return e, nil
}

func (s *PostgresStore) DeleteEvent(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM events WHERE id = $1`, id)
}
