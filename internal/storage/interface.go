package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ckerr6/talentgraph/internal/models"
)

// Common errors.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store defines the persistence contract shared by the Postgres and
// SQLite backends. Every write is an idempotent upsert keyed on the
// natural key named in each method; conflict resolution (COALESCE,
// GREATEST, MIN, set-union) is baked into the implementation, never
// surfaced as ErrConflict.
type Store interface {
	// Repository operations, keyed on full_name (case-insensitive).
	UpsertRepository(ctx context.Context, repo *models.GitHubRepository) (string, error)
	GetRepository(ctx context.Context, id string) (*models.GitHubRepository, error)
	LoadRepositoryCache(ctx context.Context) (map[string]string, error) // lowercased full_name -> id
	ListRepositoriesByMinContributors(ctx context.Context, minContributors int, ecosystemID string) ([]*models.GitHubRepository, error)
	ListRepositoriesByPriorityTier(ctx context.Context, tier int, limit int) ([]*models.GitHubRepository, error)

	// Profile operations, keyed on github_username (case-insensitive).
	UpsertProfile(ctx context.Context, profile *models.GitHubProfile) (string, error)
	GetProfile(ctx context.Context, id string) (*models.GitHubProfile, error)
	GetProfileByUsername(ctx context.Context, username string) (*models.GitHubProfile, error)
	LoadProfileCache(ctx context.Context) (map[string]string, error) // lowercased username -> id
	MarkEnriched(ctx context.Context, profileID string, ok bool) error
	NeedsEnrichmentProfiles(ctx context.Context, staleAfterDays int, limit int) ([]*models.GitHubProfile, error)
	ListUnmatchedProfiles(ctx context.Context, limit int) ([]*models.GitHubProfile, error)
	LinkProfileToPerson(ctx context.Context, profileID, personID string) error

	// Contribution operations, keyed on (github_profile_id, repo_id).
	UpsertContribution(ctx context.Context, c *models.GitHubContribution) (string, error)
	ListContributionsForRepo(ctx context.Context, repoID string) ([]*models.GitHubContribution, error)
	ListPersonContributionsForRepo(ctx context.Context, repoID string) ([]PersonContribution, error)

	// Ecosystem operations, keyed on ecosystem_name.
	UpsertEcosystem(ctx context.Context, eco *models.CryptoEcosystem) (string, error)
	LoadEcosystemCache(ctx context.Context) (map[string]string, error) // normalized_name -> id
	AttachRepositoryToEcosystem(ctx context.Context, repoID, ecosystemID string) error
	EcosystemNamesByID(ctx context.Context, ids []string) (map[string]string, error) // id -> ecosystem_name

	// DiscoverySource operations.
	UpsertDiscoverySource(ctx context.Context, src *models.DiscoverySource) (string, error)
	RecordEntityDiscovery(ctx context.Context, ed *models.EntityDiscovery) error

	// Person operations. Persons are ordinarily created by external CSV
	// importers out of this core's scope; CreatePerson exists solely for
	// the resolver's optional create-from-unmatched-profile path.
	CreatePerson(ctx context.Context, p *models.Person) (string, error)
	GetPerson(ctx context.Context, id string) (*models.Person, error)
	FindPersonsByEmail(ctx context.Context, email string) ([]*models.Person, error)
	FindPersonsByNormalizedLinkedInSlug(ctx context.Context, slug string) ([]*models.Person, error)
	FindPersonsByNameAndCompany(ctx context.Context, firstName, lastName, normalizedCompany string, limit int) ([]*models.Person, error)
	FindPersonsByName(ctx context.Context, firstName, lastName string, limit int) ([]NameCompanyCandidate, error)
	FindPersonsByNameAndLocation(ctx context.Context, firstName, lastName, location string) ([]*models.Person, error)
	FindPersonsByNormalizedCompany(ctx context.Context, normalizedCompany string, limit int) ([]*models.Person, error)
	PersonHasContributions(ctx context.Context, personID string) (bool, error)
	DeletePersonCascade(ctx context.Context, personID string) error
	FlagPersonForReview(ctx context.Context, personID, note string) error

	// Skill operations, keyed on skill_name.
	UpsertSkill(ctx context.Context, sk *models.Skill) (string, error)
	GetSkill(ctx context.Context, id string) (*models.Skill, error)
	FindSkillByNameOrAlias(ctx context.Context, name, category string) (*models.Skill, error)
	UpsertRepositorySkill(ctx context.Context, rs *models.RepositorySkill) error
	RepositoriesMissingSkill(ctx context.Context, limit int) ([]*models.GitHubRepository, error)
	PersonsWithGitHubProfiles(ctx context.Context, limit int) ([]string, error)
	AggregateSkillEvidenceForPerson(ctx context.Context, personID string) ([]SkillEvidence, error)
	UpsertPersonSkill(ctx context.Context, ps *models.PersonSkill) error

	// Collaboration operations.
	UpsertCollaborationEdge(ctx context.Context, edge *models.CollaborationEdge) error
	ListCollaborationEdgesMissingStrength(ctx context.Context) ([]*models.CollaborationEdge, error)
	SetCollaborationStrength(ctx context.Context, edgeID string, strength float64) error

	// Graph-mirror operations: incremental cursors over updated_at, used
	// to mirror the relational store into the Neo4j talent graph without
	// re-sending rows that haven't changed.
	ListPersonsUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*models.Person, error)
	ListCollaborationEdgesUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*models.CollaborationEdge, error)
	ListPersonSkillsUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*models.PersonSkill, error)

	Close() error
}

// NameCompanyCandidate pairs a person sharing a queried name with their
// current employer's name, for strategies that fuzzy-score the company
// rather than filter on it exactly.
type NameCompanyCandidate struct {
	Person      *models.Person
	CompanyName string
}

// PersonContribution is one person's contribution summary to a single
// repository, the Collaboration Edge Builder's unit of input.
type PersonContribution struct {
	PersonID          string
	ContributionCount int
	FirstDate         *time.Time
	LastDate          *time.Time
}

// SkillEvidence is one skill's aggregated contribution evidence for a
// person, joined across every contribution to a repository tagged with
// that skill as primary.
type SkillEvidence struct {
	SkillID            string
	RepoCount          int
	TotalContributions int
	MergedPRs          int
	FirstSeen          *time.Time
	LastUsed           *time.Time
}
