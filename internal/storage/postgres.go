package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ckerr6/talentgraph/internal/models"
)

// PostgresStore implements Store using PostgreSQL via pgx's stdlib
// driver. String sets (tags, ecosystem_ids, repos_list, ...) are stored
// as JSONB rather than text[] so scanning stays plain Go string/[]byte
// round-trips instead of requiring a pq.Array adapter.
type PostgresStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPostgresStore connects to dsn and configures the connection pool.
func NewPostgresStore(dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &PostgresStore{db: db, logger: logger}
	if err := store.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// ensureSchema creates every table this store depends on if absent. The
// shape mirrors SQLiteStore's initSchema with Postgres-native types:
// UUID primary keys, JSONB for string sets, TIMESTAMPTZ for instants.
func (s *PostgresStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS persons (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		full_name TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT,
		linkedin_url TEXT,
		normalized_linkedin_url TEXT,
		location TEXT,
		headline TEXT,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		refreshed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS person_emails (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		person_id UUID NOT NULL REFERENCES persons(id),
		email TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_person_emails_email ON person_emails(email);

	CREATE TABLE IF NOT EXISTS companies (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_name TEXT NOT NULL,
		company_domain TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS employment (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		person_id UUID NOT NULL REFERENCES persons(id),
		company_id UUID NOT NULL REFERENCES companies(id),
		title TEXT,
		start_date TIMESTAMPTZ,
		end_date TIMESTAMPTZ,
		location TEXT,
		date_precision TEXT NOT NULL DEFAULT 'unknown',
		source_text_ref TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS github_profiles (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		github_username TEXT NOT NULL UNIQUE,
		person_id UUID REFERENCES persons(id),
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
		hireable BOOLEAN NOT NULL DEFAULT false,
		github_created_at TIMESTAMPTZ,
		github_updated_at TIMESTAMPTZ,
		ecosystem_tags JSONB NOT NULL DEFAULT '[]',
		last_enriched TIMESTAMPTZ,
		total_merged_prs INTEGER NOT NULL DEFAULT 0,
		total_lines_contributed INTEGER NOT NULL DEFAULT 0,
		total_stars_earned INTEGER NOT NULL DEFAULT 0,
		contribution_quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS github_repositories (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		full_name TEXT NOT NULL UNIQUE,
		owner_username TEXT NOT NULL,
		description TEXT,
		language TEXT,
		stars INTEGER NOT NULL DEFAULT 0,
		forks INTEGER NOT NULL DEFAULT 0,
		is_fork BOOLEAN NOT NULL DEFAULT false,
		homepage_url TEXT,
		github_created_at TIMESTAMPTZ,
		github_updated_at TIMESTAMPTZ,
		ecosystem_ids JSONB NOT NULL DEFAULT '[]',
		discovery_source_id UUID,
		contributor_count INTEGER NOT NULL DEFAULT 0,
		last_contributor_sync TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS github_contributions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		github_profile_id UUID NOT NULL REFERENCES github_profiles(id),
		repo_id UUID NOT NULL REFERENCES github_repositories(id),
		contribution_count INTEGER NOT NULL DEFAULT 0,
		merged_pr_count INTEGER NOT NULL DEFAULT 0,
		lines_added INTEGER NOT NULL DEFAULT 0,
		lines_deleted INTEGER NOT NULL DEFAULT 0,
		files_changed INTEGER NOT NULL DEFAULT 0,
		first_contribution_date TIMESTAMPTZ,
		last_contribution_date TIMESTAMPTZ,
		contribution_quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (github_profile_id, repo_id)
	);

	CREATE TABLE IF NOT EXISTS crypto_ecosystems (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		ecosystem_name TEXT NOT NULL UNIQUE,
		normalized_name TEXT NOT NULL,
		parent_ecosystem_id UUID REFERENCES crypto_ecosystems(id),
		priority_score INTEGER NOT NULL DEFAULT 5,
		tags JSONB NOT NULL DEFAULT '[]',
		taxonomy_source TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS ecosystem_repositories (
		ecosystem_id UUID NOT NULL REFERENCES crypto_ecosystems(id),
		repository_id UUID NOT NULL REFERENCES github_repositories(id),
		PRIMARY KEY (ecosystem_id, repository_id)
	);

	CREATE TABLE IF NOT EXISTS discovery_sources (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		source_type TEXT NOT NULL,
		source_name TEXT NOT NULL,
		priority_tier INTEGER NOT NULL DEFAULT 5,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (source_name, source_type)
	);

	CREATE TABLE IF NOT EXISTS entity_discoveries (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		entity_type TEXT NOT NULL,
		entity_id UUID NOT NULL,
		source_id UUID NOT NULL REFERENCES discovery_sources(id),
		discovered_via_id UUID,
		discovery_method TEXT NOT NULL,
		metadata_json JSONB,
		discovered_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS skills (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		skill_name TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		aliases JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS repository_skills (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		repo_id UUID NOT NULL REFERENCES github_repositories(id),
		skill_id UUID NOT NULL REFERENCES skills(id),
		is_primary BOOLEAN NOT NULL DEFAULT false,
		confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		source TEXT,
		UNIQUE (repo_id, skill_id)
	);

	CREATE TABLE IF NOT EXISTS person_skills (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		person_id UUID NOT NULL REFERENCES persons(id),
		skill_id UUID NOT NULL REFERENCES skills(id),
		proficiency_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		evidence_sources JSONB NOT NULL DEFAULT '[]',
		merged_prs_count INTEGER NOT NULL DEFAULT 0,
		repos_using_skill INTEGER NOT NULL DEFAULT 0,
		first_seen TIMESTAMPTZ,
		last_used TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (person_id, skill_id)
	);

	CREATE TABLE IF NOT EXISTS collaboration_edges (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		src_person_id UUID NOT NULL REFERENCES persons(id),
		dst_person_id UUID NOT NULL REFERENCES persons(id),
		shared_repos INTEGER NOT NULL DEFAULT 0,
		shared_contributions INTEGER NOT NULL DEFAULT 0,
		first_collaboration_date TIMESTAMPTZ,
		last_collaboration_date TIMESTAMPTZ,
		collaboration_months DOUBLE PRECISION NOT NULL DEFAULT 0,
		repos_list JSONB NOT NULL DEFAULT '[]',
		top_shared_repos JSONB NOT NULL DEFAULT '[]',
		collaboration_strength DOUBLE PRECISION,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (src_person_id, dst_person_id)
	);

	CREATE TABLE IF NOT EXISTS person_review_notes (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		person_id UUID NOT NULL,
		note TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// unionSlices merges add into existing, preserving existing's order and
// skipping duplicates, for the set-union upsert columns.
func unionSlices(existing models.StringSlice, add models.StringSlice) models.StringSlice {
	seen := make(map[string]bool, len(existing))
	out := make(models.StringSlice, len(existing))
	copy(out, existing)
	for _, v := range existing {
		seen[v] = true
	}
	for _, v := range add {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

func newID() string { return uuid.NewString() }

// UpsertRepository upserts keyed on lower(full_name); ecosystem_ids
// unions, mutable metadata refreshes, discovery_source_id is preserved
// once set.
func (s *PostgresStore) UpsertRepository(ctx context.Context, repo *models.GitHubRepository) (string, error) {
	if repo.ID == "" {
		repo.ID = newID()
	}

	var existingEcosystems models.StringSlice
	err := s.db.GetContext(ctx, &existingEcosystems,
		`SELECT ecosystem_ids FROM github_repositories WHERE lower(full_name) = lower($1)`, repo.FullName)
	unioned := repo.EcosystemIDs
	if err == nil {
		unioned = unionSlices(existingEcosystems, repo.EcosystemIDs)
	}

	query := `
		INSERT INTO github_repositories (
			id, full_name, owner_username, description, language, stars, forks,
			is_fork, homepage_url, github_created_at, github_updated_at,
			ecosystem_ids, discovery_source_id, contributor_count,
			last_contributor_sync, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now()
		)
		ON CONFLICT (full_name) DO UPDATE SET
			description = EXCLUDED.description,
			language = EXCLUDED.language,
			stars = EXCLUDED.stars,
			forks = EXCLUDED.forks,
			homepage_url = EXCLUDED.homepage_url,
			github_updated_at = EXCLUDED.github_updated_at,
			ecosystem_ids = $12,
			discovery_source_id = COALESCE(github_repositories.discovery_source_id, EXCLUDED.discovery_source_id),
			updated_at = now()
		RETURNING id`

	var id string
	err = s.db.QueryRowxContext(ctx, query,
		repo.ID, repo.FullName, repo.OwnerUsername, repo.Description, repo.Language,
		repo.Stars, repo.Forks, repo.IsFork, repo.HomepageURL, repo.GitHubCreatedAt,
		repo.GitHubUpdatedAt, unioned, repo.DiscoverySourceID, repo.ContributorCount,
		repo.LastContributorSync,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert repository %s: %w", repo.FullName, err)
	}
	return id, nil
}

func (s *PostgresStore) GetRepository(ctx context.Context, id string) (*models.GitHubRepository, error) {
	var repo models.GitHubRepository
	row := s.db.QueryRowxContext(ctx, `SELECT * FROM github_repositories WHERE id = $1`, id)
	if err := row.StructScan(&repo); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get repository: %w", err)
	}
	return &repo, nil
}

func (s *PostgresStore) LoadRepositoryCache(ctx context.Context) (map[string]string, error) {
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

func (s *PostgresStore) ListRepositoriesByMinContributors(ctx context.Context, minContributors int, ecosystemID string) ([]*models.GitHubRepository, error) {
	query := `SELECT * FROM github_repositories WHERE contributor_count >= $1`
	args := []interface{}{minContributors}
	if ecosystemID != "" {
		query += ` AND ecosystem_ids::jsonb @> to_jsonb($2::text)`
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
func (s *PostgresStore) ListRepositoriesByPriorityTier(ctx context.Context, tier int, limit int) ([]*models.GitHubRepository, error) {
	query := `
		SELECT DISTINCT r.* FROM github_repositories r
		JOIN ecosystem_repositories er ON er.repository_id = r.id
		JOIN crypto_ecosystems e ON e.id = er.ecosystem_id
		WHERE e.priority_score = $1
		ORDER BY r.stars DESC
		LIMIT $2`
	var repos []*models.GitHubRepository
	if err := s.db.SelectContext(ctx, &repos, query, tier, limit); err != nil {
		return nil, fmt.Errorf("list repositories by priority tier: %w", err)
	}
	return repos, nil
}

// UpsertProfile upserts keyed on lower(github_username): COALESCE for
// non-counter fields, GREATEST for counters. last_enriched is written
// only on insert, from the caller's value; MarkEnriched advances it.
func (s *PostgresStore) UpsertProfile(ctx context.Context, p *models.GitHubProfile) (string, error) {
	if p.ID == "" {
		p.ID = newID()
	}

	var existingTags models.StringSlice
	err := s.db.GetContext(ctx, &existingTags,
		`SELECT ecosystem_tags FROM github_profiles WHERE lower(github_username) = lower($1)`, p.GitHubUsername)
	tags := p.EcosystemTags
	if err == nil {
		tags = unionSlices(existingTags, p.EcosystemTags)
	}

	query := `
		INSERT INTO github_profiles (
			id, github_username, person_id, name, email, bio, linkedin_url_from_bio,
			company, location, blog, twitter_username, followers, following,
			public_repos, avatar_url, hireable, github_created_at, github_updated_at,
			ecosystem_tags, last_enriched, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, now(), now()
		)
		ON CONFLICT (github_username) DO UPDATE SET
			name = COALESCE(github_profiles.name, EXCLUDED.name),
			email = COALESCE(github_profiles.email, EXCLUDED.email),
			bio = COALESCE(EXCLUDED.bio, github_profiles.bio),
			linkedin_url_from_bio = COALESCE(EXCLUDED.linkedin_url_from_bio, github_profiles.linkedin_url_from_bio),
			company = COALESCE(EXCLUDED.company, github_profiles.company),
			location = COALESCE(EXCLUDED.location, github_profiles.location),
			blog = COALESCE(EXCLUDED.blog, github_profiles.blog),
			followers = GREATEST(github_profiles.followers, EXCLUDED.followers),
			following = GREATEST(github_profiles.following, EXCLUDED.following),
			public_repos = GREATEST(github_profiles.public_repos, EXCLUDED.public_repos),
			avatar_url = COALESCE(EXCLUDED.avatar_url, github_profiles.avatar_url),
			ecosystem_tags = $19,
			updated_at = now()
		RETURNING id`

	var id string
	err = s.db.QueryRowxContext(ctx, query,
		p.ID, p.GitHubUsername, p.PersonID, p.Name, p.Email, p.Bio, p.LinkedInURLFromBio,
		p.Company, p.Location, p.Blog, p.TwitterUsername, p.Followers, p.Following,
		p.PublicRepos, p.AvatarURL, p.Hireable, p.GitHubCreatedAt, p.GitHubUpdatedAt, tags, p.LastEnriched,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert profile %s: %w", p.GitHubUsername, err)
	}
	return id, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*models.GitHubProfile, error) {
	var p models.GitHubProfile
	if err := s.db.GetContext(ctx, &p, `SELECT * FROM github_profiles WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) GetProfileByUsername(ctx context.Context, username string) (*models.GitHubProfile, error) {
	var p models.GitHubProfile
	err := s.db.GetContext(ctx, &p, `SELECT * FROM github_profiles WHERE lower(github_username) = lower($1)`, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile by username: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) LoadProfileCache(ctx context.Context) (map[string]string, error) {
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

func (s *PostgresStore) MarkEnriched(ctx context.Context, profileID string, ok bool) error {
	if !ok {
		// Leave last_enriched untouched so the profile is retried naturally.
		_, err := s.db.ExecContext(ctx, `UPDATE github_profiles SET updated_at = now() WHERE id = $1`, profileID)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE github_profiles SET last_enriched = now(), updated_at = now() WHERE id = $1`, profileID)
	return err
}

func (s *PostgresStore) NeedsEnrichmentProfiles(ctx context.Context, staleAfterDays int, limit int) ([]*models.GitHubProfile, error) {
	query := `
		SELECT * FROM github_profiles
		WHERE last_enriched IS NULL
		   OR last_enriched < now() - ($1 || ' days')::interval
		   OR (bio IS NULL AND email IS NULL)
		ORDER BY followers DESC
		LIMIT $2`

	var profiles []*models.GitHubProfile
	if err := s.db.SelectContext(ctx, &profiles, query, staleAfterDays, limit); err != nil {
		return nil, fmt.Errorf("needs enrichment: %w", err)
	}
	return profiles, nil
}

// ListUnmatchedProfiles returns enriched profiles with no linked
// person, highest-followers first, for the match cascade to run over.
func (s *PostgresStore) ListUnmatchedProfiles(ctx context.Context, limit int) ([]*models.GitHubProfile, error) {
	query := `
		SELECT * FROM github_profiles
		WHERE person_id IS NULL AND last_enriched IS NOT NULL
		ORDER BY followers DESC
		LIMIT $1`

	var profiles []*models.GitHubProfile
	if err := s.db.SelectContext(ctx, &profiles, query, limit); err != nil {
		return nil, fmt.Errorf("list unmatched profiles: %w", err)
	}
	return profiles, nil
}

func (s *PostgresStore) LinkProfileToPerson(ctx context.Context, profileID, personID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE github_profiles SET person_id = $1, updated_at = now() WHERE id = $2`, personID, profileID)
	return err
}

// UpsertContribution upserts keyed on (github_profile_id, repo_id);
// count-like fields take GREATEST, the first date keeps the earlier
// value and the last date the later one.
func (s *PostgresStore) UpsertContribution(ctx context.Context, c *models.GitHubContribution) (string, error) {
	if c.ID == "" {
		c.ID = newID()
	}

	query := `
		INSERT INTO github_contributions (
			id, github_profile_id, repo_id, contribution_count, merged_pr_count,
			lines_added, lines_deleted, files_changed, first_contribution_date,
			last_contribution_date, contribution_quality_score, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		ON CONFLICT (github_profile_id, repo_id) DO UPDATE SET
			contribution_count = GREATEST(github_contributions.contribution_count, EXCLUDED.contribution_count),
			merged_pr_count = GREATEST(github_contributions.merged_pr_count, EXCLUDED.merged_pr_count),
			lines_added = GREATEST(github_contributions.lines_added, EXCLUDED.lines_added),
			lines_deleted = GREATEST(github_contributions.lines_deleted, EXCLUDED.lines_deleted),
			files_changed = GREATEST(github_contributions.files_changed, EXCLUDED.files_changed),
			first_contribution_date = LEAST(github_contributions.first_contribution_date, EXCLUDED.first_contribution_date),
			last_contribution_date = GREATEST(github_contributions.last_contribution_date, EXCLUDED.last_contribution_date),
			updated_at = now()
		RETURNING id`

	var id string
	err := s.db.QueryRowxContext(ctx, query,
		c.ID, c.GitHubProfileID, c.RepoID, c.ContributionCount, c.MergedPRCount,
		c.LinesAdded, c.LinesDeleted, c.FilesChanged, c.FirstContributionDate,
		c.LastContributionDate, c.ContributionQualityScore,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert contribution: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListContributionsForRepo(ctx context.Context, repoID string) ([]*models.GitHubContribution, error) {
	var contribs []*models.GitHubContribution
	err := s.db.SelectContext(ctx, &contribs, `SELECT * FROM github_contributions WHERE repo_id = $1`, repoID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	return contribs, nil
}

// ListPersonContributionsForRepo sums a repo's contributions per linked
// person, with the earliest first and latest last contribution date.
func (s *PostgresStore) ListPersonContributionsForRepo(ctx context.Context, repoID string) ([]PersonContribution, error) {
	query := `
		SELECT
			gp.person_id AS person_id,
			SUM(gc.contribution_count) AS contribution_count,
			MIN(gc.first_contribution_date) AS first_date,
			MAX(gc.last_contribution_date) AS last_date
		FROM github_contributions gc
		JOIN github_profiles gp ON gp.id = gc.github_profile_id
		WHERE gc.repo_id = $1 AND gp.person_id IS NOT NULL
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

// UpsertEcosystem upserts keyed on ecosystem_name; priority_score takes
// MIN (1 is highest priority), tags union.
func (s *PostgresStore) UpsertEcosystem(ctx context.Context, eco *models.CryptoEcosystem) (string, error) {
	if eco.ID == "" {
		eco.ID = newID()
	}

	var existingTags models.StringSlice
	err := s.db.GetContext(ctx, &existingTags,
		`SELECT tags FROM crypto_ecosystems WHERE ecosystem_name = $1`, eco.EcosystemName)
	tags := eco.Tags
	if err == nil {
		tags = unionSlices(existingTags, eco.Tags)
	}

	query := `
		INSERT INTO crypto_ecosystems (
			id, ecosystem_name, normalized_name, parent_ecosystem_id, priority_score,
			tags, taxonomy_source, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (ecosystem_name) DO UPDATE SET
			normalized_name = EXCLUDED.normalized_name,
			parent_ecosystem_id = COALESCE(crypto_ecosystems.parent_ecosystem_id, EXCLUDED.parent_ecosystem_id),
			priority_score = LEAST(crypto_ecosystems.priority_score, EXCLUDED.priority_score),
			tags = $6,
			taxonomy_source = COALESCE(crypto_ecosystems.taxonomy_source, EXCLUDED.taxonomy_source),
			updated_at = now()
		RETURNING id`

	var id string
	err = s.db.QueryRowxContext(ctx, query,
		eco.ID, eco.EcosystemName, eco.NormalizedName, eco.ParentEcosystemID, eco.PriorityScore,
		tags, eco.TaxonomySource,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert ecosystem %s: %w", eco.EcosystemName, err)
	}
	return id, nil
}

func (s *PostgresStore) LoadEcosystemCache(ctx context.Context) (map[string]string, error) {
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

func (s *PostgresStore) AttachRepositoryToEcosystem(ctx context.Context, repoID, ecosystemID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ecosystem_repositories (ecosystem_id, repository_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, ecosystemID, repoID)
	return err
}

func (s *PostgresStore) EcosystemNamesByID(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		var name string
		if err := s.db.GetContext(ctx, &name, `SELECT ecosystem_name FROM crypto_ecosystems WHERE id = $1`, id); err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("lookup ecosystem %s: %w", id, err)
		}
		names[id] = name
	}
	return names, nil
}

func (s *PostgresStore) UpsertDiscoverySource(ctx context.Context, src *models.DiscoverySource) (string, error) {
	if src.ID == "" {
		src.ID = newID()
	}
	query := `
		INSERT INTO discovery_sources (id, source_type, source_name, priority_tier, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (source_name, source_type) DO UPDATE SET
			priority_tier = LEAST(discovery_sources.priority_tier, EXCLUDED.priority_tier)
		RETURNING id`
	var id string
	if err := s.db.QueryRowxContext(ctx, query, src.ID, src.SourceType, src.SourceName, src.PriorityTier).Scan(&id); err != nil {
		return "", fmt.Errorf("upsert discovery source: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) RecordEntityDiscovery(ctx context.Context, ed *models.EntityDiscovery) error {
	if ed.ID == "" {
		ed.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_discoveries (
			id, entity_type, entity_id, source_id, discovered_via_id,
			discovery_method, metadata_json, discovered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		ed.ID, ed.EntityType, ed.EntityID, ed.SourceID, ed.DiscoveredViaID, ed.DiscoveryMethod, ed.MetadataJSON)
	return err
}

// CreatePerson inserts a new person record. Persons are ordinarily
// created by external CSV importers; this exists for the resolver's
// optional create-from-unmatched-profile path.
func (s *PostgresStore) CreatePerson(ctx context.Context, p *models.Person) (string, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (id, full_name, first_name, last_name, location, headline)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, p.FullName, p.FirstName, p.LastName, p.Location, p.Headline)
	if err != nil {
		return "", fmt.Errorf("create person: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, id string) (*models.Person, error) {
	var p models.Person
	if err := s.db.GetContext(ctx, &p, `SELECT * FROM persons WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) FindPersonsByEmail(ctx context.Context, email string) ([]*models.Person, error) {
	var persons []*models.Person
	query := `
		SELECT p.* FROM persons p
		JOIN person_emails e ON e.person_id = p.id
		WHERE lower(e.email) = lower($1)`
	if err := s.db.SelectContext(ctx, &persons, query, email); err != nil {
		return nil, fmt.Errorf("find persons by email: %w", err)
	}
	return persons, nil
}

func (s *PostgresStore) FindPersonsByNormalizedLinkedInSlug(ctx context.Context, slug string) ([]*models.Person, error) {
	var persons []*models.Person
	query := `SELECT * FROM persons WHERE normalized_linkedin_url LIKE '%' || $1 || '%'`
	if err := s.db.SelectContext(ctx, &persons, query, slug); err != nil {
		return nil, fmt.Errorf("find persons by linkedin slug: %w", err)
	}
	return persons, nil
}

func (s *PostgresStore) FindPersonsByNameAndCompany(ctx context.Context, firstName, lastName, normalizedCompany string, limit int) ([]*models.Person, error) {
	var persons []*models.Person
	query := `
		SELECT DISTINCT p.* FROM persons p
		JOIN employment emp ON emp.person_id = p.id AND emp.end_date IS NULL
		JOIN companies c ON c.id = emp.company_id
		WHERE lower(p.first_name) = lower($1) AND lower(p.last_name) = lower($2)
		  AND lower(c.company_name) LIKE '%' || lower($3) || '%'
		LIMIT $4`
	if err := s.db.SelectContext(ctx, &persons, query, firstName, lastName, normalizedCompany, limit); err != nil {
		return nil, fmt.Errorf("find persons by name+company: %w", err)
	}
	return persons, nil
}

// FindPersonsByName returns up to limit persons sharing the given name,
// each paired with their current employer's name (if any), for callers
// that need to fuzzy-score the company themselves.
func (s *PostgresStore) FindPersonsByName(ctx context.Context, firstName, lastName string, limit int) ([]NameCompanyCandidate, error) {
	query := `
		SELECT p.id, p.full_name, p.first_name, p.last_name, p.linkedin_url,
		       p.normalized_linkedin_url, p.location, p.headline, p.description,
		       p.created_at, p.refreshed_at, COALESCE(c.company_name, '') AS company_name
		FROM persons p
		LEFT JOIN employment emp ON emp.person_id = p.id AND emp.end_date IS NULL
		LEFT JOIN companies c ON c.id = emp.company_id
		WHERE lower(p.first_name) = lower($1) AND lower(p.last_name) = lower($2)
		LIMIT $3`
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

func (s *PostgresStore) FindPersonsByNameAndLocation(ctx context.Context, firstName, lastName, location string) ([]*models.Person, error) {
	var persons []*models.Person
	query := `
		SELECT * FROM persons
		WHERE lower(first_name) = lower($1) AND lower(last_name) = lower($2)
		  AND location ILIKE '%' || $3 || '%'`
	if err := s.db.SelectContext(ctx, &persons, query, firstName, lastName, location); err != nil {
		return nil, fmt.Errorf("find persons by name+location: %w", err)
	}
	return persons, nil
}

func (s *PostgresStore) FindPersonsByNormalizedCompany(ctx context.Context, normalizedCompany string, limit int) ([]*models.Person, error) {
	var persons []*models.Person
	query := `
		SELECT DISTINCT p.* FROM persons p
		JOIN employment emp ON emp.person_id = p.id AND emp.end_date IS NULL
		JOIN companies c ON c.id = emp.company_id
		WHERE lower(c.company_name) LIKE '%' || lower($1) || '%'
		LIMIT $2`
	if err := s.db.SelectContext(ctx, &persons, query, normalizedCompany, limit); err != nil {
		return nil, fmt.Errorf("find persons by company: %w", err)
	}
	return persons, nil
}

func (s *PostgresStore) PersonHasContributions(ctx context.Context, personID string) (bool, error) {
	var count int
	query := `
		SELECT count(*) FROM github_contributions gc
		JOIN github_profiles gp ON gp.id = gc.github_profile_id
		WHERE gp.person_id = $1`
	if err := s.db.GetContext(ctx, &count, query, personID); err != nil {
		return false, fmt.Errorf("check person contributions: %w", err)
	}
	return count > 0, nil
}

func (s *PostgresStore) DeletePersonCascade(ctx context.Context, personID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`DELETE FROM person_emails WHERE person_id = $1`,
		`DELETE FROM employment WHERE person_id = $1`,
		`UPDATE github_profiles SET person_id = NULL WHERE person_id = $1`,
		`DELETE FROM persons WHERE id = $1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, personID); err != nil {
			return fmt.Errorf("delete person cascade: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) FlagPersonForReview(ctx context.Context, personID, note string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO person_review_notes (id, person_id, note, created_at)
		VALUES ($1, $2, $3, now())`, newID(), personID, note)
	return err
}

func (s *PostgresStore) UpsertSkill(ctx context.Context, sk *models.Skill) (string, error) {
	if sk.ID == "" {
		sk.ID = newID()
	}

	var existing models.StringSlice
	err := s.db.GetContext(ctx, &existing, `SELECT aliases FROM skills WHERE skill_name = $1`, sk.SkillName)
	aliases := sk.Aliases
	if err == nil {
		aliases = unionSlices(existing, sk.Aliases)
	}

	var id string
	query := `
		INSERT INTO skills (id, skill_name, category, aliases, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (skill_name) DO UPDATE SET
			category = EXCLUDED.category,
			aliases = $4
		RETURNING id`
	if err := s.db.GetContext(ctx, &id, query, sk.ID, sk.SkillName, sk.Category, aliases); err != nil {
		return "", fmt.Errorf("upsert skill: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetSkill(ctx context.Context, id string) (*models.Skill, error) {
	var sk models.Skill
	row := s.db.QueryRowxContext(ctx, `SELECT * FROM skills WHERE id = $1`, id)
	if err := row.StructScan(&sk); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get skill: %w", err)
	}
	return &sk, nil
}

func (s *PostgresStore) FindSkillByNameOrAlias(ctx context.Context, name, category string) (*models.Skill, error) {
	var sk models.Skill
	query := `
		SELECT * FROM skills
		WHERE category = $2 AND (lower(skill_name) = lower($1) OR aliases::jsonb @> to_jsonb(lower($1)::text))
		LIMIT 1`
	row := s.db.QueryRowxContext(ctx, query, name, category)
	if err := row.StructScan(&sk); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find skill: %w", err)
	}
	return &sk, nil
}

func (s *PostgresStore) UpsertRepositorySkill(ctx context.Context, rs *models.RepositorySkill) error {
	if rs.ID == "" {
		rs.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO repository_skills (id, repo_id, skill_id, is_primary, confidence_score, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (repo_id, skill_id) DO UPDATE SET
			is_primary = EXCLUDED.is_primary,
			confidence_score = EXCLUDED.confidence_score,
			source = EXCLUDED.source`,
		rs.ID, rs.RepoID, rs.SkillID, rs.IsPrimary, rs.ConfidenceScore, rs.Source)
	return err
}

func (s *PostgresStore) RepositoriesMissingSkill(ctx context.Context, limit int) ([]*models.GitHubRepository, error) {
	query := `
		SELECT r.* FROM github_repositories r
		LEFT JOIN repository_skills rs ON rs.repo_id = r.id
		WHERE r.language IS NOT NULL AND r.language != '' AND rs.id IS NULL
		LIMIT $1`
	var repos []*models.GitHubRepository
	if err := s.db.SelectContext(ctx, &repos, query, limit); err != nil {
		return nil, fmt.Errorf("repositories missing skill: %w", err)
	}
	return repos, nil
}

func (s *PostgresStore) PersonsWithGitHubProfiles(ctx context.Context, limit int) ([]string, error) {
	var ids []string
	query := `SELECT DISTINCT person_id FROM github_profiles WHERE person_id IS NOT NULL LIMIT $1`
	if err := s.db.SelectContext(ctx, &ids, query, limit); err != nil {
		return nil, fmt.Errorf("persons with profiles: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) AggregateSkillEvidenceForPerson(ctx context.Context, personID string) ([]SkillEvidence, error) {
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
		JOIN repository_skills rs ON rs.repo_id = gc.repo_id AND rs.is_primary = true
		WHERE gp.person_id = $1
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

func (s *PostgresStore) UpsertPersonSkill(ctx context.Context, ps *models.PersonSkill) error {
	if ps.ID == "" {
		ps.ID = newID()
	}

	var existingEvidence models.StringSlice
	err := s.db.GetContext(ctx, &existingEvidence,
		`SELECT evidence_sources FROM person_skills WHERE person_id = $1 AND skill_id = $2`, ps.PersonID, ps.SkillID)
	evidence := append(models.StringSlice{}, ps.EvidenceSources...)
	if err == nil {
		evidence = unionSlices(existingEvidence, ps.EvidenceSources)
	}

	query := `
		INSERT INTO person_skills (
			id, person_id, skill_id, proficiency_score, confidence_score,
			evidence_sources, merged_prs_count, repos_using_skill, first_seen, last_used, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (person_id, skill_id) DO UPDATE SET
			proficiency_score = GREATEST(person_skills.proficiency_score, (person_skills.proficiency_score + EXCLUDED.proficiency_score) / 2),
			confidence_score = LEAST((person_skills.confidence_score + EXCLUDED.confidence_score) / 2, 1.0),
			evidence_sources = $6,
			merged_prs_count = person_skills.merged_prs_count + EXCLUDED.merged_prs_count,
			repos_using_skill = person_skills.repos_using_skill + EXCLUDED.repos_using_skill,
			first_seen = LEAST(person_skills.first_seen, EXCLUDED.first_seen),
			last_used = GREATEST(person_skills.last_used, EXCLUDED.last_used),
			updated_at = now()`

	_, err = s.db.ExecContext(ctx, query,
		ps.ID, ps.PersonID, ps.SkillID, ps.ProficiencyScore, ps.ConfidenceScore,
		evidence, ps.MergedPRsCount, ps.ReposUsingSkill, ps.FirstSeen, ps.LastUsed)
	return err
}

func (s *PostgresStore) UpsertCollaborationEdge(ctx context.Context, edge *models.CollaborationEdge) error {
	if edge.ID == "" {
		edge.ID = newID()
	}
	if edge.SrcPersonID > edge.DstPersonID {
		edge.SrcPersonID, edge.DstPersonID = edge.DstPersonID, edge.SrcPersonID
	}

	var existingRepos models.StringSlice
	var existingTop models.SharedRepoList
	err := s.db.QueryRowxContext(ctx,
		`SELECT repos_list, top_shared_repos FROM collaboration_edges WHERE src_person_id = $1 AND dst_person_id = $2`,
		edge.SrcPersonID, edge.DstPersonID).Scan(&existingRepos, &existingTop)
	repos := edge.RepoIDs
	topShared := edge.TopSharedRepos
	if err == nil {
		repos = unionSlices(existingRepos, edge.RepoIDs)
		topShared = append(append(models.SharedRepoList{}, existingTop...), edge.TopSharedRepos...)
	}

	query := `
		INSERT INTO collaboration_edges (
			id, src_person_id, dst_person_id, shared_repos, shared_contributions,
			first_collaboration_date, last_collaboration_date, collaboration_months,
			repos_list, top_shared_repos, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (src_person_id, dst_person_id) DO UPDATE SET
			shared_repos = collaboration_edges.shared_repos + EXCLUDED.shared_repos,
			shared_contributions = collaboration_edges.shared_contributions + EXCLUDED.shared_contributions,
			first_collaboration_date = LEAST(collaboration_edges.first_collaboration_date, EXCLUDED.first_collaboration_date),
			last_collaboration_date = GREATEST(collaboration_edges.last_collaboration_date, EXCLUDED.last_collaboration_date),
			collaboration_months = GREATEST(collaboration_edges.collaboration_months, EXCLUDED.collaboration_months),
			repos_list = $9,
			top_shared_repos = $10,
			updated_at = now()`

	_, err = s.db.ExecContext(ctx, query,
		edge.ID, edge.SrcPersonID, edge.DstPersonID, edge.SharedRepos, edge.SharedContributions,
		edge.FirstCollaborationDate, edge.LastCollaborationDate, edge.CollaborationMonths, repos, topShared)
	return err
}

func (s *PostgresStore) ListCollaborationEdgesMissingStrength(ctx context.Context) ([]*models.CollaborationEdge, error) {
	var edges []*models.CollaborationEdge
	query := `SELECT * FROM collaboration_edges WHERE collaboration_strength IS NULL`
	if err := s.db.SelectContext(ctx, &edges, query); err != nil {
		return nil, fmt.Errorf("list edges missing strength: %w", err)
	}
	return edges, nil
}

func (s *PostgresStore) SetCollaborationStrength(ctx context.Context, edgeID string, strength float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE collaboration_edges SET collaboration_strength = $1, updated_at = now() WHERE id = $2`, strength, edgeID)
	return err
}

func (s *PostgresStore) ListPersonsUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*models.Person, error) {
	var persons []*models.Person
	err := s.db.SelectContext(ctx, &persons,
		`SELECT * FROM persons WHERE refreshed_at > $1 ORDER BY refreshed_at ASC LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list persons updated since: %w", err)
	}
	return persons, nil
}

func (s *PostgresStore) ListCollaborationEdgesUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*models.CollaborationEdge, error) {
	var edges []*models.CollaborationEdge
	err := s.db.SelectContext(ctx, &edges,
		`SELECT * FROM collaboration_edges WHERE updated_at > $1 ORDER BY updated_at ASC LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list collaboration edges updated since: %w", err)
	}
	return edges, nil
}

func (s *PostgresStore) ListPersonSkillsUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*models.PersonSkill, error) {
	var skills []*models.PersonSkill
	err := s.db.SelectContext(ctx, &skills,
		`SELECT * FROM person_skills WHERE updated_at > $1 ORDER BY updated_at ASC LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("list person skills updated since: %w", err)
	}
	return skills, nil
}

// parseGitHubURL extracts owner/name from a github.com repo URL, used
// by the taxonomy importer. Defined here (not in taxonomy) so both
// backends' repository upserts can share validation if needed later.
func parseGitHubURL(rawURL string) (owner, name string, ok bool) {
	const prefix = "https://github.com/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(rawURL, prefix)
	rest = strings.TrimSuffix(rest, "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
