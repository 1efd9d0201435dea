package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/ckerr6/talentgraph/internal/models"
)

// SQLiteStore implements Store using SQLite, for local runs and tests
// where standing up Postgres is unwarranted. String sets are stored as
// JSON text columns, same as the Postgres backend, so the two share
// scan/union semantics via models.StringSlice.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewSQLiteStore opens (creating if absent) a SQLite database at path
// and ensures the schema exists.
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")
	db.Exec("PRAGMA journal_mode = WAL")

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS persons (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT,
		linkedin_url TEXT,
		normalized_linkedin_url TEXT,
		location TEXT,
		headline TEXT,
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		refreshed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS person_emails (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL REFERENCES persons(id),
		email TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_person_emails_email ON person_emails(email);

	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		company_domain TEXT NOT NULL UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS employment (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL REFERENCES persons(id),
		company_id TEXT NOT NULL REFERENCES companies(id),
		title TEXT,
		start_date DATETIME,
		end_date DATETIME,
		location TEXT,
		date_precision TEXT NOT NULL DEFAULT 'unknown',
		source_text_ref TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS github_profiles (
		id TEXT PRIMARY KEY,
		github_username TEXT NOT NULL UNIQUE,
		person_id TEXT REFERENCES persons(id),
		name TEXT,
		email TEXT,
		bio TEXT,
		linkedin_url_from_bio TEXT,
		company TEXT,
		location TEXT,
		blog TEXT,
		twitter_username TEXT,
		followers INTEGER NOT NULL DEFAULT 0,
		following INTEGER NOT NULL DEFAULT 0,
		public_repos INTEGER NOT NULL DEFAULT 0,
		avatar_url TEXT,
		hireable BOOLEAN NOT NULL DEFAULT 0,
		github_created_at DATETIME,
		github_updated_at DATETIME,
		ecosystem_tags TEXT NOT NULL DEFAULT '[]',
		last_enriched DATETIME,
		total_merged_prs INTEGER NOT NULL DEFAULT 0,
		total_lines_contributed INTEGER NOT NULL DEFAULT 0,
		total_stars_earned INTEGER NOT NULL DEFAULT 0,
		contribution_quality_score REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS github_repositories (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL UNIQUE,
		owner_username TEXT NOT NULL,
		description TEXT,
		language TEXT,
		stars INTEGER NOT NULL DEFAULT 0,
		forks INTEGER NOT NULL DEFAULT 0,
		is_fork BOOLEAN NOT NULL DEFAULT 0,
		homepage_url TEXT,
		github_created_at DATETIME,
		github_updated_at DATETIME,
		ecosystem_ids TEXT NOT NULL DEFAULT '[]',
		discovery_source_id TEXT,
		contributor_count INTEGER NOT NULL DEFAULT 0,
		last_contributor_sync DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS github_contributions (
		id TEXT PRIMARY KEY,
		github_profile_id TEXT NOT NULL REFERENCES github_profiles(id),
		repo_id TEXT NOT NULL REFERENCES github_repositories(id),
		contribution_count INTEGER NOT NULL DEFAULT 0,
		merged_pr_count INTEGER NOT NULL DEFAULT 0,
		lines_added INTEGER NOT NULL DEFAULT 0,
		lines_deleted INTEGER NOT NULL DEFAULT 0,
		files_changed INTEGER NOT NULL DEFAULT 0,
		first_contribution_date DATETIME,
		last_contribution_date DATETIME,
		contribution_quality_score REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (github_profile_id, repo_id)
	);

	CREATE TABLE IF NOT EXISTS crypto_ecosystems (
		id TEXT PRIMARY KEY,
		ecosystem_name TEXT NOT NULL UNIQUE,
		normalized_name TEXT NOT NULL,
		parent_ecosystem_id TEXT REFERENCES crypto_ecosystems(id),
		priority_score INTEGER NOT NULL DEFAULT 5,
		tags TEXT NOT NULL DEFAULT '[]',
		taxonomy_source TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ecosystem_repositories (
		ecosystem_id TEXT NOT NULL REFERENCES crypto_ecosystems(id),
		repository_id TEXT NOT NULL REFERENCES github_repositories(id),
		PRIMARY KEY (ecosystem_id, repository_id)
	);

	CREATE TABLE IF NOT EXISTS discovery_sources (
		id TEXT PRIMARY KEY,
		source_type TEXT NOT NULL,
		source_name TEXT NOT NULL,
		priority_tier INTEGER NOT NULL DEFAULT 5,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (source_name, source_type)
	);

	CREATE TABLE IF NOT EXISTS entity_discoveries (
		id TEXT PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		source_id TEXT NOT NULL REFERENCES discovery_sources(id),
		discovered_via_id TEXT,
		discovery_method TEXT NOT NULL,
		metadata_json TEXT,
		discovered_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS skills (
		id TEXT PRIMARY KEY,
		skill_name TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		aliases TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS repository_skills (
		id TEXT PRIMARY KEY,
		repo_id TEXT NOT NULL REFERENCES github_repositories(id),
		skill_id TEXT NOT NULL REFERENCES skills(id),
		is_primary BOOLEAN NOT NULL DEFAULT 0,
		confidence_score REAL NOT NULL DEFAULT 0,
		source TEXT,
		UNIQUE (repo_id, skill_id)
	);

	CREATE TABLE IF NOT EXISTS person_skills (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL REFERENCES persons(id),
		skill_id TEXT NOT NULL REFERENCES skills(id),
		proficiency_score REAL NOT NULL DEFAULT 0,
		confidence_score REAL NOT NULL DEFAULT 0,
		evidence_sources TEXT NOT NULL DEFAULT '[]',
		merged_prs_count INTEGER NOT NULL DEFAULT 0,
		repos_using_skill INTEGER NOT NULL DEFAULT 0,
		first_seen DATETIME,
		last_used DATETIME,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (person_id, skill_id)
	);

	CREATE TABLE IF NOT EXISTS collaboration_edges (
		id TEXT PRIMARY KEY,
		src_person_id TEXT NOT NULL REFERENCES persons(id),
		dst_person_id TEXT NOT NULL REFERENCES persons(id),
		shared_repos INTEGER NOT NULL DEFAULT 0,
		shared_contributions INTEGER NOT NULL DEFAULT 0,
		first_collaboration_date DATETIME,
		last_collaboration_date DATETIME,
		collaboration_months REAL NOT NULL DEFAULT 0,
		repos_list TEXT NOT NULL DEFAULT '[]',
		top_shared_repos TEXT NOT NULL DEFAULT '[]',
		collaboration_strength REAL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (src_person_id, dst_person_id)
	);

	CREATE TABLE IF NOT EXISTS person_review_notes (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL,
		note TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) UpsertRepository(ctx context.Context, repo *models.GitHubRepository) (string, error) {
	if repo.ID == "" {
		repo.ID = newID()
	}

	var existing models.StringSlice
	err := s.db.GetContext(ctx, &existing,
		`SELECT ecosystem_ids FROM github_repositories WHERE lower(full_name) = lower(?)`, repo.FullName)
	unioned := repo.EcosystemIDs
	if err == nil {
		unioned = unionSlices(existing, repo.EcosystemIDs)
	}

	query := `
		INSERT INTO github_repositories (
			id, full_name, owner_username, description, language, stars, forks,
			is_fork, homepage_url, github_created_at, github_updated_at,
			ecosystem_ids, discovery_source_id, contributor_count, last_contributor_sync
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (full_name) DO UPDATE SET
			description = excluded.description,
			language = excluded.language,
			stars = excluded.stars,
			forks = excluded.forks,
			homepage_url = excluded.homepage_url,
			github_updated_at = excluded.github_updated_at,
			ecosystem_ids = ?,
			discovery_source_id = COALESCE(github_repositories.discovery_source_id, excluded.discovery_source_id),
			updated_at = CURRENT_TIMESTAMP`

	_, err = s.db.ExecContext(ctx, query,
		repo.ID, repo.FullName, repo.OwnerUsername, repo.Description, repo.Language,
		repo.Stars, repo.Forks, repo.IsFork, repo.HomepageURL, repo.GitHubCreatedAt,
		repo.GitHubUpdatedAt, unioned, repo.DiscoverySourceID, repo.ContributorCount,
		repo.LastContributorSync, unioned)
	if err != nil {
		return "", fmt.Errorf("upsert repository %s: %w", repo.FullName, err)
	}

	var id string
	if err := s.db.GetContext(ctx, &id,
		`SELECT id FROM github_repositories WHERE lower(full_name) = lower(?)`, repo.FullName); err != nil {
		return "", fmt.Errorf("fetch upserted repository id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetRepository(ctx context.Context, id string) (*models.GitHubRepository, error) {
	var repo models.GitHubRepository
	if err := s.db.GetContext(ctx, &repo, `SELECT * FROM github_repositories WHERE id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get repository: %w", err)
	}
	return &repo, nil
}

func (s *SQLiteStore) LoadRepositoryCache(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT id, lower(full_name) AS full_name FROM github_repositories`)
	if err != nil {
		return nil, fmt.Errorf("load repository cache: %w", err)
	}
	defer rows.Close()

	cache := make(map[string]string)
	for rows.Next() {
		var id, fullName string
		if err := rows.Scan(&id, &fullName); err != nil {
			return nil, err
		}
		cache[fullName] = id
	}
	return cache, rows.Err()
}

func (s *SQLiteStore) ListRepositoriesByMinContributors(ctx context.Context, minContributors int, ecosystemID string) ([]*models.GitHubRepository, error) {
	query := `SELECT * FROM github_repositories WHERE contributor_count >= ?`
	args := []interface{}{minContributors}
	if ecosystemID != "" {
		query += ` AND ecosystem_ids LIKE '%' || ? || '%'`
		args = append(args, ecosystemID)
	}
	query += ` ORDER BY stars DESC`

	var repos []*models.GitHubRepository
	if err := s.db.SelectContext(ctx, &repos, query, args...); err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	return repos, nil
}

// ListRepositoriesByPriorityTier returns repositories attached to any
// ecosystem at the given priority tier, highest-starred first.
func (s *SQLiteStore) ListRepositoriesByPriorityTier(ctx context.Context, tier int, limit int) ([]*models.GitHubRepository, error) {
	query := `
		SELECT DISTINCT r.* FROM github_repositories r
		JOIN ecosystem_repositories er ON er.repository_id = r.id
		JOIN crypto_ecosystems e ON e.id = er.ecosystem_id
		WHERE e.priority_score = ?
		ORDER BY r.stars DESC
		LIMIT ?`
	var repos []*models.GitHubRepository
	if err := s.db.SelectContext(ctx, &repos, query, tier, limit); err != nil {
		return nil, fmt.Errorf("list repositories by priority tier: %w", err)
	}
	return repos, nil
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, p *models.GitHubProfile) (string, error) {
	if p.ID == "" {
		p.ID = newID()
	}

	var existing models.StringSlice
	err := s.db.GetContext(ctx, &existing,
		`SELECT ecosystem_tags FROM github_profiles WHERE lower(github_username) = lower(?)`, p.GitHubUsername)
	tags := p.EcosystemTags
	if err == nil {
		tags = unionSlices(existing, p.EcosystemTags)
	}

	query := `
		INSERT INTO github_profiles (
			id, github_username, person_id, name, email, bio, linkedin_url_from_bio,
			company, location, blog, twitter_username, followers, following,
			public_repos, avatar_url, hireable, github_created_at, github_updated_at,
			ecosystem_tags, last_enriched
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (github_username) DO UPDATE SET
			name = COALESCE(github_profiles.name, excluded.name),
			email = COALESCE(github_profiles.email, excluded.email),
			bio = COALESCE(excluded.bio, github_profiles.bio),
			linkedin_url_from_bio = COALESCE(excluded.linkedin_url_from_bio, github_profiles.linkedin_url_from_bio),
			company = COALESCE(excluded.company, github_profiles.company),
			location = COALESCE(excluded.location, github_profiles.location),
			blog = COALESCE(excluded.blog, github_profiles.blog),
			followers = MAX(github_profiles.followers, excluded.followers),
			following = MAX(github_profiles.following, excluded.following),
			public_repos = MAX(github_profiles.public_repos, excluded.public_repos),
			avatar_url = COALESCE(excluded.avatar_url, github_profiles.avatar_url),
			ecosystem_tags = ?,
			updated_at = CURRENT_TIMESTAMP`

	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.GitHubUsername, p.PersonID, p.Name, p.Email, p.Bio, p.LinkedInURLFromBio,
		p.Company, p.Location, p.Blog, p.TwitterUsername, p.Followers, p.Following,
		p.PublicRepos, p.AvatarURL, p.Hireable, p.GitHubCreatedAt, p.GitHubUpdatedAt, tags, p.LastEnriched, tags)
	if err != nil {
		return "", fmt.Errorf("upsert profile %s: %w", p.GitHubUsername, err)
	}

	var id string
	if err := s.db.GetContext(ctx, &id,
		`SELECT id FROM github_profiles WHERE lower(github_username) = lower(?)`, p.GitHubUsername); err != nil {
		return "", fmt.Errorf("fetch upserted profile id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*models.GitHubProfile, error) {
	var p models.GitHubProfile
	if err := s.db.GetContext(ctx, &p, `SELECT * FROM github_profiles WHERE id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) GetProfileByUsername(ctx context.Context, username string) (*models.GitHubProfile, error) {
	var p models.GitHubProfile
	err := s.db.GetContext(ctx, &p, `SELECT * FROM github_profiles WHERE lower(github_username) = lower(?)`, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile by username: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) LoadProfileCache(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT id, lower(github_username) AS username FROM github_profiles`)
	if err != nil {
		return nil, fmt.Errorf("load profile cache: %w", err)
	}
	defer rows.Close()

	cache := make(map[string]string)
	for rows.Next() {
		var id, username string
		if err := rows.Scan(&id, &username); err != nil {
			return nil, err
		}
		cache[username] = id
	}
	return cache, rows.Err()
}

func (s *SQLiteStore) MarkEnriched(ctx context.Context, profileID string, ok bool) error {
	if !ok {
		_, err := s.db.ExecContext(ctx, `UPDATE github_profiles SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, profileID)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE github_profiles SET last_enriched = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, profileID)
	return err
}

func (s *SQLiteStore) NeedsEnrichmentProfiles(ctx context.Context, staleAfterDays int, limit int) ([]*models.GitHubProfile, error) {
	query := `
		SELECT * FROM github_profiles
		WHERE last_enriched IS NULL
		   OR last_enriched < datetime('now', '-' || ? || ' days')
		   OR (bio IS NULL AND email IS NULL)
		ORDER BY followers DESC
		LIMIT ?`

	var profiles []*models.GitHubProfile
	if err := s.db.SelectContext(ctx, &profiles, query, staleAfterDays, limit); err != nil {
		return nil, fmt.Errorf("needs enrichment: %w", err)
	}
	return profiles, nil
}

// ListUnmatchedProfiles returns enriched profiles with no linked
// person, highest-followers first, for the match cascade to run over.
func (s *SQLiteStore) ListUnmatchedProfiles(ctx context.Context, limit int) ([]*models.GitHubProfile, error) {
	query := `
		SELECT * FROM github_profiles
		WHERE person_id IS NULL AND last_enriched IS NOT NULL
		ORDER BY followers DESC
		LIMIT ?`

	var profiles []*models.GitHubProfile
	if err := s.db.SelectContext(ctx, &profiles, query, limit); err != nil {
		return nil, fmt.Errorf("list unmatched profiles: %w", err)
	}
	return profiles, nil
}

func (s *SQLiteStore) LinkProfileToPerson(ctx context.Context, profileID, personID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE github_profiles SET person_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, personID, profileID)
	return err
}

func (s *SQLiteStore) UpsertContribution(ctx context.Context, c *models.GitHubContribution) (string, error) {
	if c.ID == "" {
		c.ID = newID()
	}

	query := `
		INSERT INTO github_contributions (
			id, github_profile_id, repo_id, contribution_count, merged_pr_count,
			lines_added, lines_deleted, files_changed, first_contribution_date,
			last_contribution_date, contribution_quality_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (github_profile_id, repo_id) DO UPDATE SET
			contribution_count = MAX(github_contributions.contribution_count, excluded.contribution_count),
			merged_pr_count = MAX(github_contributions.merged_pr_count, excluded.merged_pr_count),
			lines_added = MAX(github_contributions.lines_added, excluded.lines_added),
			lines_deleted = MAX(github_contributions.lines_deleted, excluded.lines_deleted),
			files_changed = MAX(github_contributions.files_changed, excluded.files_changed),
			first_contribution_date = MIN(github_contributions.first_contribution_date, excluded.first_contribution_date),
			last_contribution_date = MAX(github_contributions.last_contribution_date, excluded.last_contribution_date),
			updated_at = CURRENT_TIMESTAMP`

	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.GitHubProfileID, c.RepoID, c.ContributionCount, c.MergedPRCount,
		c.LinesAdded, c.LinesDeleted, c.FilesChanged, c.FirstContributionDate,
		c.LastContributionDate, c.ContributionQualityScore)
	if err != nil {
		return "", fmt.Errorf("upsert contribution: %w", err)
	}

	var id string
	if err := s.db.GetContext(ctx, &id,
		`SELECT id FROM github_contributions WHERE github_profile_id = ? AND repo_id = ?`, c.GitHubProfileID, c.RepoID); err != nil {
		return "", fmt.Errorf("fetch upserted contribution id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) ListContributionsForRepo(ctx context.Context, repoID string) ([]*models.GitHubContribution, error) {
	var contribs []*models.GitHubContribution
	err := s.db.SelectContext(ctx, &contribs, `SELECT * FROM github_contributions WHERE repo_id = ?`, repoID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	return contribs, nil
}

func (s *SQLiteStore) ListPersonContributionsForRepo(ctx context.Context, repoID string) ([]PersonContribution, error) {
	query := `
		SELECT
			gp.person_id AS person_id,
			SUM(gc.contribution_count) AS contribution_count,
			MIN(gc.first_contribution_date) AS first_date,
			MAX(gc.last_contribution_date) AS last_date
		FROM github_contributions gc
		JOIN github_profiles gp ON gp.id = gc.github_profile_id
		WHERE gc.repo_id = ? AND gp.person_id IS NOT NULL
		GROUP BY gp.person_id`

	rows, err := s.db.QueryxContext(ctx, query, repoID)
	if err != nil {
		return nil, fmt.Errorf("list person contributions: %w", err)
	}
	defer rows.Close()

	var out []PersonContribution
	for rows.Next() {
		var pc PersonContribution
		if err := rows.Scan(&pc.PersonID, &pc.ContributionCount, &pc.FirstDate, &pc.LastDate); err != nil {
			return nil, fmt.Errorf("scan person contribution: %w", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertEcosystem(ctx context.Context, eco *models.CryptoEcosystem) (string, error) {
	if eco.ID == "" {
		eco.ID = newID()
	}

	var existing models.StringSlice
	err := s.db.GetContext(ctx, &existing, `SELECT tags FROM crypto_ecosystems WHERE ecosystem_name = ?`, eco.EcosystemName)
	tags := eco.Tags
	if err == nil {
		tags = unionSlices(existing, eco.Tags)
	}

	query := `
		INSERT INTO crypto_ecosystems (
			id, ecosystem_name, normalized_name, parent_ecosystem_id, priority_score, tags, taxonomy_source
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (ecosystem_name) DO UPDATE SET
			normalized_name = excluded.normalized_name,
			parent_ecosystem_id = COALESCE(crypto_ecosystems.parent_ecosystem_id, excluded.parent_ecosystem_id),
			priority_score = MIN(crypto_ecosystems.priority_score, excluded.priority_score),
			tags = ?,
			taxonomy_source = COALESCE(crypto_ecosystems.taxonomy_source, excluded.taxonomy_source),
			updated_at = CURRENT_TIMESTAMP`

	_, err = s.db.ExecContext(ctx, query,
		eco.ID, eco.EcosystemName, eco.NormalizedName, eco.ParentEcosystemID, eco.PriorityScore, tags, eco.TaxonomySource, tags)
	if err != nil {
		return "", fmt.Errorf("upsert ecosystem %s: %w", eco.EcosystemName, err)
	}

	var id string
	if err := s.db.GetContext(ctx, &id, `SELECT id FROM crypto_ecosystems WHERE ecosystem_name = ?`, eco.EcosystemName); err != nil {
		return "", fmt.Errorf("fetch upserted ecosystem id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) LoadEcosystemCache(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryxContext(ctx, `SELECT id, normalized_name FROM crypto_ecosystems`)
	if err != nil {
		return nil, fmt.Errorf("load ecosystem cache: %w", err)
	}
	defer rows.Close()

	cache := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		cache[name] = id
	}
	return cache, rows.Err()
}

func (s *SQLiteStore) AttachRepositoryToEcosystem(ctx context.Context, repoID, ecosystemID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ecosystem_repositories (ecosystem_id, repository_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING`, ecosystemID, repoID)
	return err
}

func (s *SQLiteStore) EcosystemNamesByID(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		var name string
		if err := s.db.GetContext(ctx, &name, `SELECT ecosystem_name FROM crypto_ecosystems WHERE id = ?`, id); err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("lookup ecosystem %s: %w", id, err)
		}
		names[id] = name
	}
	return names, nil
}

func (s *SQLiteStore) UpsertDiscoverySource(ctx context.Context, src *models.DiscoverySource) (string, error) {
	if src.ID == "" {
		src.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discovery_sources (id, source_type, source_name, priority_tier)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (source_name, source_type) DO UPDATE SET
			priority_tier = MIN(discovery_sources.priority_tier, excluded.priority_tier)`,
		src.ID, src.SourceType, src.SourceName, src.PriorityTier)
	if err != nil {
		return "", fmt.Errorf("upsert discovery source: %w", err)
	}

	var id string
	if err := s.db.GetContext(ctx, &id,
		`SELECT id FROM discovery_sources WHERE source_name = ? AND source_type = ?`, src.SourceName, src.SourceType); err != nil {
		return "", fmt.Errorf("fetch upserted discovery source id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) RecordEntityDiscovery(ctx context.Context, ed *models.EntityDiscovery) error {
	if ed.ID == "" {
		ed.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_discoveries (
			id, entity_type, entity_id, source_id, discovered_via_id, discovery_method, metadata_json
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ed.ID, ed.EntityType, ed.EntityID, ed.SourceID, ed.DiscoveredViaID, ed.DiscoveryMethod, ed.MetadataJSON)
	return err
}

// CreatePerson inserts a new person record. Persons are ordinarily
// created by external CSV importers; this exists for the resolver's
// optional create-from-unmatched-profile path.
func (s *SQLiteStore) CreatePerson(ctx context.Context, p *models.Person) (string, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (id, full_name, first_name, last_name, location, headline)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, p.FullName, p.FirstName, p.LastName, p.Location, p.Headline)
	if err != nil {
		return "", fmt.Errorf("create person: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	var p models.Person
	if err := s.db.GetContext(ctx, &p, `SELECT * FROM persons WHERE id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) FindPersonsByEmail(ctx context.Context, email string) ([]*models.Person, error) {
	var persons []*models.Person
	query := `
		SELECT p.* FROM persons p
		JOIN person_emails e ON e.person_id = p.id
		WHERE lower(e.email) = lower(?)`
	if err := s.db.SelectContext(ctx, &persons, query, email); err != nil {
		return nil, fmt.Errorf("find persons by email: %w", err)
	}
	return persons, nil
}

func (s *SQLiteStore) FindPersonsByNormalizedLinkedInSlug(ctx context.Context, slug string) ([]*models.Person, error) {
	var persons []*models.Person
	query := `SELECT * FROM persons WHERE normalized_linkedin_url LIKE '%' || ? || '%'`
	if err := s.db.SelectContext(ctx, &persons, query, slug); err != nil {
		return nil, fmt.Errorf("find persons by linkedin slug: %w", err)
	}
	return persons, nil
}

func (s *SQLiteStore) FindPersonsByNameAndCompany(ctx context.Context, firstName, lastName, normalizedCompany string, limit int) ([]*models.Person, error) {
	var persons []*models.Person
	query := `
		SELECT DISTINCT p.* FROM persons p
		JOIN employment emp ON emp.person_id = p.id AND emp.end_date IS NULL
		JOIN companies c ON c.id = emp.company_id
		WHERE lower(p.first_name) = lower(?) AND lower(p.last_name) = lower(?)
		  AND lower(c.company_name) LIKE '%' || lower(?) || '%'
		LIMIT ?`
	if err := s.db.SelectContext(ctx, &persons, query, firstName, lastName, normalizedCompany, limit); err != nil {
		return nil, fmt.Errorf("find persons by name+company: %w", err)
	}
	return persons, nil
}

// FindPersonsByName returns up to limit persons sharing the given name,
// each paired with their current employer's name (if any).
func (s *SQLiteStore) FindPersonsByName(ctx context.Context, firstName, lastName string, limit int) ([]NameCompanyCandidate, error) {
	query := `
		SELECT p.id, p.full_name, p.first_name, p.last_name, p.linkedin_url,
		       p.normalized_linkedin_url, p.location, p.headline, p.description,
		       p.created_at, p.refreshed_at, COALESCE(c.company_name, '') AS company_name
		FROM persons p
		LEFT JOIN employment emp ON emp.person_id = p.id AND emp.end_date IS NULL
		LEFT JOIN companies c ON c.id = emp.company_id
		WHERE lower(p.first_name) = lower(?) AND lower(p.last_name) = lower(?)
		LIMIT ?`
	rows, err := s.db.QueryxContext(ctx, query, firstName, lastName, limit)
	if err != nil {
		return nil, fmt.Errorf("find persons by name: %w", err)
	}
	defer rows.Close()

	var out []NameCompanyCandidate
	for rows.Next() {
		p := &models.Person{}
		var companyName string
		if err := rows.Scan(&p.ID, &p.FullName, &p.FirstName, &p.LastName, &p.LinkedInURL,
			&p.NormalizedLinkedInURL, &p.Location, &p.Headline, &p.Description,
			&p.CreatedAt, &p.RefreshedAt, &companyName); err != nil {
			return nil, fmt.Errorf("find persons by name: scan: %w", err)
		}
		out = append(out, NameCompanyCandidate{Person: p, CompanyName: companyName})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FindPersonsByNameAndLocation(ctx context.Context, firstName, lastName, location string) ([]*models.Person, error) {
	var persons []*models.Person
	query := `
		SELECT * FROM persons
		WHERE lower(first_name) = lower(?) AND lower(last_name) = lower(?)
		  AND location LIKE '%' || ? || '%'`
	if err := s.db.SelectContext(ctx, &persons, query, firstName, lastName, location); err != nil {
		return nil, fmt.Errorf("find persons by name+location: %w", err)
	}
	return persons, nil
}

func (s *SQLiteStore) FindPersonsByNormalizedCompany(ctx context.Context, normalizedCompany string, limit int) ([]*models.Person, error) {
	var persons []*models.Person
	query := `
		SELECT DISTINCT p.* FROM persons p
		JOIN employment emp ON emp.person_id = p.id AND emp.end_date IS NULL
		JOIN companies c ON c.id = emp.company_id
		WHERE lower(c.company_name) LIKE '%' || lower(?) || '%'
		LIMIT ?`
	if err := s.db.SelectContext(ctx, &persons, query, normalizedCompany, limit); err != nil {
		return nil, fmt.Errorf("find persons by company: %w", err)
	}
	return persons, nil
}

func (s *SQLiteStore) PersonHasContributions(ctx context.Context, personID string) (bool, error) {
	var count int
	query := `
		SELECT count(*) FROM github_contributions gc
		JOIN github_profiles gp ON gp.id = gc.github_profile_id
		WHERE gp.person_id = ?`
	if err := s.db.GetContext(ctx, &count, query, personID); err != nil {
		return false, fmt.Errorf("check person contributions: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) DeletePersonCascade(ctx context.Context, personID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM person_emails WHERE person_id = ?`,
		`DELETE FROM employment WHERE person_id = ?`,
		`UPDATE github_profiles SET person_id = NULL WHERE person_id = ?`,
		`DELETE FROM persons WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, personID); err != nil {
			return fmt.Errorf("delete person cascade: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) FlagPersonForReview(ctx context.Context, personID, note string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO person_review_notes (id, person_id, note) VALUES (?, ?, ?)`, newID(), personID, note)
	return err
}

func (s *SQLiteStore) UpsertSkill(ctx context.Context, sk *models.Skill) (string, error) {
	if sk.ID == "" {
		sk.ID = newID()
	}

	var existing models.StringSlice
	err := s.db.GetContext(ctx, &existing, `SELECT aliases FROM skills WHERE skill_name = ?`, sk.SkillName)
	aliases := sk.Aliases
	if err == nil {
		aliases = unionSlices(existing, sk.Aliases)
	}

	query := `
		INSERT INTO skills (id, skill_name, category, aliases)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (skill_name) DO UPDATE SET
			category = excluded.category,
			aliases = ?`
	_, err = s.db.ExecContext(ctx, query, sk.ID, sk.SkillName, sk.Category, aliases, aliases)
	if err != nil {
		return "", fmt.Errorf("upsert skill: %w", err)
	}

	var id string
	if err := s.db.GetContext(ctx, &id, `SELECT id FROM skills WHERE skill_name = ?`, sk.SkillName); err != nil {
		return "", fmt.Errorf("read back skill id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetSkill(ctx context.Context, id string) (*models.Skill, error) {
	var sk models.Skill
	if err := s.db.GetContext(ctx, &sk, `SELECT * FROM skills WHERE id = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get skill: %w", err)
	}
	return &sk, nil
}

func (s *SQLiteStore) FindSkillByNameOrAlias(ctx context.Context, name, category string) (*models.Skill, error) {
	var sk models.Skill
	query := `
		SELECT * FROM skills
		WHERE category = ? AND (lower(skill_name) = lower(?) OR aliases LIKE '%"' || lower(?) || '"%')
		LIMIT 1`
	if err := s.db.GetContext(ctx, &sk, query, category, name, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find skill: %w", err)
	}
	return &sk, nil
}

func (s *SQLiteStore) UpsertRepositorySkill(ctx context.Context, rs *models.RepositorySkill) error {
	if rs.ID == "" {
		rs.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO repository_skills (id, repo_id, skill_id, is_primary, confidence_score, source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (repo_id, skill_id) DO UPDATE SET
			is_primary = excluded.is_primary,
			confidence_score = excluded.confidence_score,
			source = excluded.source`,
		rs.ID, rs.RepoID, rs.SkillID, rs.IsPrimary, rs.ConfidenceScore, rs.Source)
	return err
}

func (s *SQLiteStore) RepositoriesMissingSkill(ctx context.Context, limit int) ([]*models.GitHubRepository, error) {
	query := `
		SELECT r.* FROM github_repositories r
		LEFT JOIN repository_skills rs ON rs.repo_id = r.id
		WHERE r.language IS NOT NULL AND r.language != '' AND rs.id IS NULL
		LIMIT ?`
	var repos []*models.GitHubRepository
	if err := s.db.SelectContext(ctx, &repos, query, limit); err != nil {
		return nil, fmt.Errorf("repositories missing skill: %w", err)
	}
	return repos, nil
}

func (s *SQLiteStore) PersonsWithGitHubProfiles(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	query := `SELECT DISTINCT person_id FROM github_profiles WHERE person_id IS NOT NULL LIMIT ?`
	if err := s.db.SelectContext(ctx, &ids, query, limit); err != nil {
		return nil, fmt.Errorf("persons with profiles: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) AggregateSkillEvidenceForPerson(ctx context.Context, personID string) ([]SkillEvidence, error) {
	query := `
		SELECT
			rs.skill_id AS skill_id,
			count(DISTINCT gc.repo_id) AS repo_count,
			COALESCE(sum(gc.contribution_count), 0) AS total_contributions,
			COALESCE(sum(gc.merged_pr_count), 0) AS merged_prs,
			min(gc.first_contribution_date) AS first_seen,
			max(gc.last_contribution_date) AS last_used
		FROM github_contributions gc
		JOIN github_profiles gp ON gp.id = gc.github_profile_id
		JOIN repository_skills rs ON rs.repo_id = gc.repo_id AND rs.is_primary = 1
		WHERE gp.person_id = ?
		GROUP BY rs.skill_id`

	rows, err := s.db.QueryxContext(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("aggregate skill evidence: %w", err)
	}
	defer rows.Close()

	var out []SkillEvidence
	for rows.Next() {
		var e SkillEvidence
		if err := rows.Scan(&e.SkillID, &e.RepoCount, &e.TotalContributions, &e.MergedPRs, &e.FirstSeen, &e.LastUsed); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertPersonSkill(ctx context.Context, ps *models.PersonSkill) error {
	if ps.ID == "" {
		ps.ID = newID()
	}

	var existing models.StringSlice
	err := s.db.GetContext(ctx, &existing,
		`SELECT evidence_sources FROM person_skills WHERE person_id = ? AND skill_id = ?`, ps.PersonID, ps.SkillID)
	evidence := append(models.StringSlice{}, ps.EvidenceSources...)
	if err == nil {
		evidence = unionSlices(existing, ps.EvidenceSources)
	}

	query := `
		INSERT INTO person_skills (
			id, person_id, skill_id, proficiency_score, confidence_score,
			evidence_sources, merged_prs_count, repos_using_skill, first_seen, last_used
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (person_id, skill_id) DO UPDATE SET
			proficiency_score = MAX(person_skills.proficiency_score, (person_skills.proficiency_score + excluded.proficiency_score) / 2),
			confidence_score = MIN((person_skills.confidence_score + excluded.confidence_score) / 2, 1.0),
			evidence_sources = ?,
			merged_prs_count = person_skills.merged_prs_count + excluded.merged_prs_count,
			repos_using_skill = person_skills.repos_using_skill + excluded.repos_using_skill,
			first_seen = MIN(person_skills.first_seen, excluded.first_seen),
			last_used = MAX(person_skills.last_used, excluded.last_used),
			updated_at = CURRENT_TIMESTAMP`

	_, err = s.db.ExecContext(ctx, query,
		ps.ID, ps.PersonID, ps.SkillID, ps.ProficiencyScore, ps.ConfidenceScore,
		evidence, ps.MergedPRsCount, ps.ReposUsingSkill, ps.FirstSeen, ps.LastUsed, evidence)
	return err
}

func (s *SQLiteStore) UpsertCollaborationEdge(ctx context.Context, edge *models.CollaborationEdge) error {
	if edge.ID == "" {
		edge.ID = newID()
	}
	if edge.SrcPersonID > edge.DstPersonID {
		edge.SrcPersonID, edge.DstPersonID = edge.DstPersonID, edge.SrcPersonID
	}

	var existing models.StringSlice
	var existingTop models.SharedRepoList
	err := s.db.QueryRowxContext(ctx,
		`SELECT repos_list, top_shared_repos FROM collaboration_edges WHERE src_person_id = ? AND dst_person_id = ?`,
		edge.SrcPersonID, edge.DstPersonID).Scan(&existing, &existingTop)
	repos := edge.RepoIDs
	topShared := edge.TopSharedRepos
	if err == nil {
		repos = unionSlices(existing, edge.RepoIDs)
		topShared = append(append(models.SharedRepoList{}, existingTop...), edge.TopSharedRepos...)
	}

	query := `
		INSERT INTO collaboration_edges (
			id, src_person_id, dst_person_id, shared_repos, shared_contributions,
			first_collaboration_date, last_collaboration_date, collaboration_months, repos_list, top_shared_repos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (src_person_id, dst_person_id) DO UPDATE SET
			shared_repos = collaboration_edges.shared_repos + excluded.shared_repos,
			shared_contributions = collaboration_edges.shared_contributions + excluded.shared_contributions,
			first_collaboration_date = MIN(collaboration_edges.first_collaboration_date, excluded.first_collaboration_date),
			last_collaboration_date = MAX(collaboration_edges.last_collaboration_date, excluded.last_collaboration_date),
			collaboration_months = MAX(collaboration_edges.collaboration_months, excluded.collaboration_months),
			repos_list = ?,
			top_shared_repos = ?,
			updated_at = CURRENT_TIMESTAMP`

	_, err = s.db.ExecContext(ctx, query,
		edge.ID, edge.SrcPersonID, edge.DstPersonID, edge.SharedRepos, edge.SharedContributions,
		edge.FirstCollaborationDate, edge.LastCollaborationDate, edge.CollaborationMonths, repos, topShared, repos, topShared)
	return err
}

func (s *SQLiteStore) ListCollaborationEdgesMissingStrength(ctx context.Context) ([]*models.CollaborationEdge, error) {
	var edges []*models.CollaborationEdge
	if err := s.db.SelectContext(ctx, &edges, `SELECT * FROM collaboration_edges WHERE collaboration_strength IS NULL`); err != nil {
		return nil, fmt.Errorf("list edges missing strength: %w", err)
	}
	return edges, nil
}

func (s *SQLiteStore) SetCollaborationStrength(ctx context.Context, edgeID string, strength float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE collaboration_edges SET collaboration_strength = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, strength, edgeID)
	return err
}

func (s *SQLiteStore) ListPersonsUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*models.Person, error) {
	var persons []*models.Person
	err := s.db.SelectContext(ctx, &persons,
		`SELECT * FROM persons WHERE refreshed_at > ? ORDER BY refreshed_at ASC LIMIT ?`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list persons updated since: %w", err)
	}
	return persons, nil
}

func (s *SQLiteStore) ListCollaborationEdgesUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*models.CollaborationEdge, error) {
	var edges []*models.CollaborationEdge
	err := s.db.SelectContext(ctx, &edges,
		`SELECT * FROM collaboration_edges WHERE updated_at > ? ORDER BY updated_at ASC LIMIT ?`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list collaboration edges updated since: %w", err)
	}
	return edges, nil
}

func (s *SQLiteStore) ListPersonSkillsUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*models.PersonSkill, error) {
	var skills []*models.PersonSkill
	err := s.db.SelectContext(ctx, &skills,
		`SELECT * FROM person_skills WHERE updated_at > ? ORDER BY updated_at ASC LIMIT ?`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list person skills updated since: %w", err)
	}
	return skills, nil
}
