package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringSlice is a set of strings persisted as a single JSONB column.
// It implements sql.Scanner/driver.Valuer so callers can read and write
// it through database/sql exactly like any scalar field.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	return string(b), err
}

func (s *StringSlice) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("models: StringSlice.Scan: unsupported source type")
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// SharedRepoList is a CollaborationEdge's top_shared_repos, persisted
// as a single JSONB column the same way StringSlice is.
type SharedRepoList []SharedRepoContribution

func (l SharedRepoList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]SharedRepoContribution(l))
	return string(b), err
}

func (l *SharedRepoList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("models: SharedRepoList.Scan: unsupported source type")
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	var out []SharedRepoContribution
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// DatePrecision records how exact an Employment date is, since source
// data ranges from full dates to bare years.
type DatePrecision string

const (
	DatePrecisionDay       DatePrecision = "day"
	DatePrecisionMonthYear DatePrecision = "month_year"
	DatePrecisionYear      DatePrecision = "year"
	DatePrecisionUnknown   DatePrecision = "unknown"
)

// Person is a real individual, deduplicated across sources, who may own
// multiple GitHubProfiles. Created by external CSV importers; the core
// only links to and, under the deletion policy, removes them.
type Person struct {
	ID                    string    `json:"id" db:"id"`
	FullName              string    `json:"full_name" db:"full_name"`
	FirstName             string    `json:"first_name" db:"first_name"`
	LastName              string    `json:"last_name,omitempty" db:"last_name"`
	LinkedInURL           string    `json:"linkedin_url,omitempty" db:"linkedin_url"`
	NormalizedLinkedInURL string    `json:"normalized_linkedin_url,omitempty" db:"normalized_linkedin_url"`
	Location              string    `json:"location,omitempty" db:"location"`
	Headline              string    `json:"headline,omitempty" db:"headline"`
	Description           string    `json:"description,omitempty" db:"description"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	RefreshedAt           time.Time `json:"refreshed_at" db:"refreshed_at"`
}

// PersonEmail is an email address attributed to a Person, the join
// target for the resolver's email strategy.
type PersonEmail struct {
	ID        string `json:"id" db:"id"`
	PersonID  string `json:"person_id" db:"person_id"`
	Email     string `json:"email" db:"email"`
}

// Company is an employer entity. CompanyDomain is globally unique; a
// deterministic placeholder "<slug>.placeholder" is synthesized when no
// real domain is known.
type Company struct {
	ID            string    `json:"id" db:"id"`
	CompanyName   string    `json:"company_name" db:"company_name"`
	CompanyDomain string    `json:"company_domain" db:"company_domain"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Employment links a Person to a Company over a date range. A nil
// EndDate means the employment is current. Multiple rows per
// (person, company) are allowed, except duplicates sharing StartDate.
type Employment struct {
	ID            string        `json:"id" db:"id"`
	PersonID      string        `json:"person_id" db:"person_id"`
	CompanyID     string        `json:"company_id" db:"company_id"`
	Title         string        `json:"title,omitempty" db:"title"`
	StartDate     *time.Time    `json:"start_date,omitempty" db:"start_date"`
	EndDate       *time.Time    `json:"end_date,omitempty" db:"end_date"`
	Location      string        `json:"location,omitempty" db:"location"`
	DatePrecision DatePrecision `json:"date_precision" db:"date_precision"`
	SourceTextRef string        `json:"source_text_ref,omitempty" db:"source_text_ref"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// GitHubProfile mirrors a GitHub user account as known to this system,
// whether or not yet linked to a Person. GitHubUsername is the natural
// key (case-insensitive) for upserts.
type GitHubProfile struct {
	ID                     string     `json:"id" db:"id"`
	GitHubUsername         string     `json:"github_username" db:"github_username"`
	PersonID               *string    `json:"person_id,omitempty" db:"person_id"`
	Name                   string     `json:"name,omitempty" db:"name"`
	Email                  string     `json:"email,omitempty" db:"email"`
	Bio                    string     `json:"bio,omitempty" db:"bio"`
	LinkedInURLFromBio     string     `json:"linkedin_url_from_bio,omitempty" db:"linkedin_url_from_bio"`
	Company                string     `json:"company,omitempty" db:"company"`
	Location               string     `json:"location,omitempty" db:"location"`
	Blog                   string     `json:"blog,omitempty" db:"blog"`
	TwitterUsername        string     `json:"twitter_username,omitempty" db:"twitter_username"`
	Followers              int        `json:"followers" db:"followers"`
	Following              int        `json:"following" db:"following"`
	PublicRepos            int        `json:"public_repos" db:"public_repos"`
	AvatarURL              string     `json:"avatar_url,omitempty" db:"avatar_url"`
	Hireable               bool       `json:"hireable" db:"hireable"`
	GitHubCreatedAt        *time.Time `json:"github_created_at,omitempty" db:"github_created_at"`
	GitHubUpdatedAt        *time.Time `json:"github_updated_at,omitempty" db:"github_updated_at"`
	EcosystemTags          StringSlice `json:"ecosystem_tags" db:"ecosystem_tags"`
	LastEnriched           *time.Time `json:"last_enriched,omitempty" db:"last_enriched"`
	TotalMergedPRs         int        `json:"total_merged_prs" db:"total_merged_prs"`
	TotalLinesContributed  int        `json:"total_lines_contributed" db:"total_lines_contributed"`
	TotalStarsEarned       int        `json:"total_stars_earned" db:"total_stars_earned"`
	ContributionQualityScore float64  `json:"contribution_quality_score" db:"contribution_quality_score"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// NeedsEnrichment reports whether this profile should be returned by the
// enrichment queue, per the staleness contract in the enrichment queue
// component.
func (p *GitHubProfile) NeedsEnrichment(now time.Time, staleAfter time.Duration) bool {
	if p.LastEnriched == nil {
		return true
	}
	if now.Sub(*p.LastEnriched) > staleAfter {
		return true
	}
	if p.Bio == "" && p.Email == "" {
		return true
	}
	return false
}

// GitHubRepository is a crawled repository. FullName ("owner/name") is
// the natural key (case-insensitive) for upserts.
type GitHubRepository struct {
	ID                  string     `json:"id" db:"id"`
	FullName            string     `json:"full_name" db:"full_name"`
	OwnerUsername       string     `json:"owner_username" db:"owner_username"`
	Description         string     `json:"description,omitempty" db:"description"`
	Language            string     `json:"language,omitempty" db:"language"`
	Stars               int        `json:"stars" db:"stars"`
	Forks               int        `json:"forks" db:"forks"`
	IsFork              bool       `json:"is_fork" db:"is_fork"`
	HomepageURL         string     `json:"homepage_url,omitempty" db:"homepage_url"`
	GitHubCreatedAt     *time.Time `json:"github_created_at,omitempty" db:"github_created_at"`
	GitHubUpdatedAt     *time.Time `json:"github_updated_at,omitempty" db:"github_updated_at"`
	EcosystemIDs        StringSlice `json:"ecosystem_ids" db:"ecosystem_ids"`
	DiscoverySourceID   *string    `json:"discovery_source_id,omitempty" db:"discovery_source_id"`
	ContributorCount    int        `json:"contributor_count" db:"contributor_count"`
	LastContributorSync *time.Time `json:"last_contributor_sync,omitempty" db:"last_contributor_sync"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// IsStale reports whether the repo's contributor list is due for a
// re-sync, per the discovery crawler's freshness window.
func (r *GitHubRepository) IsStale(now time.Time, freshnessWindow time.Duration) bool {
	if r.LastContributorSync == nil {
		return true
	}
	return now.Sub(*r.LastContributorSync) > freshnessWindow
}

// GitHubContribution aggregates one profile's activity against one
// repository. Unique on (GitHubProfileID, RepoID).
type GitHubContribution struct {
	ID                     string     `json:"id" db:"id"`
	GitHubProfileID        string     `json:"github_profile_id" db:"github_profile_id"`
	RepoID                 string     `json:"repo_id" db:"repo_id"`
	ContributionCount      int        `json:"contribution_count" db:"contribution_count"`
	MergedPRCount          int        `json:"merged_pr_count" db:"merged_pr_count"`
	LinesAdded             int        `json:"lines_added" db:"lines_added"`
	LinesDeleted           int        `json:"lines_deleted" db:"lines_deleted"`
	FilesChanged           int        `json:"files_changed" db:"files_changed"`
	FirstContributionDate  *time.Time `json:"first_contribution_date,omitempty" db:"first_contribution_date"`
	LastContributionDate   *time.Time `json:"last_contribution_date,omitempty" db:"last_contribution_date"`
	ContributionQualityScore float64  `json:"contribution_quality_score" db:"contribution_quality_score"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}

// CryptoEcosystem is a named community taxonomized by an external
// catalog. EcosystemName is the natural key; NormalizedName is derived
// and used for matching/display.
type CryptoEcosystem struct {
	ID                string    `json:"id" db:"id"`
	EcosystemName     string    `json:"ecosystem_name" db:"ecosystem_name"`
	NormalizedName    string    `json:"normalized_name" db:"normalized_name"`
	ParentEcosystemID *string   `json:"parent_ecosystem_id,omitempty" db:"parent_ecosystem_id"`
	PriorityScore     int       `json:"priority_score" db:"priority_score"` // 1 (highest) .. 5 (lowest)
	Tags              StringSlice `json:"tags" db:"tags"`
	TaxonomySource    string    `json:"taxonomy_source,omitempty" db:"taxonomy_source"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// EcosystemRepository is the many-to-many link between a CryptoEcosystem
// and a GitHubRepository.
type EcosystemRepository struct {
	EcosystemID  string `json:"ecosystem_id" db:"ecosystem_id"`
	RepositoryID string `json:"repository_id" db:"repository_id"`
}

// DiscoverySource is a seed origin attributed to discovered entities:
// a taxonomy import, a manual import, or contributor-list expansion.
type DiscoverySource struct {
	ID           string    `json:"id" db:"id"`
	SourceType   string    `json:"source_type" db:"source_type"` // e.g. "electric_capital_taxonomy", "manual_import", "contributor_expansion"
	SourceName   string    `json:"source_name" db:"source_name"`
	PriorityTier int       `json:"priority_tier" db:"priority_tier"` // 1..5
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// EntityDiscovery is an append-only provenance event recording that an
// entity was discovered via a particular source.
type EntityDiscovery struct {
	ID              string    `json:"id" db:"id"`
	EntityType      string    `json:"entity_type" db:"entity_type"` // "repository" | "profile"
	EntityID        string    `json:"entity_id" db:"entity_id"`
	SourceID        string    `json:"source_id" db:"source_id"`
	DiscoveredViaID *string   `json:"discovered_via_id,omitempty" db:"discovered_via_id"`
	DiscoveryMethod string    `json:"discovery_method" db:"discovery_method"`
	MetadataJSON    string    `json:"metadata_json,omitempty" db:"metadata_json"`
	DiscoveredAt    time.Time `json:"discovered_at" db:"discovered_at"`
}

// Skill is a canonical technical skill, seeded from a static catalog.
type Skill struct {
	ID        string    `json:"id" db:"id"`
	SkillName string    `json:"skill_name" db:"skill_name"`
	Category  string    `json:"category" db:"category"` // language | framework | tool | domain | ...
	Aliases   StringSlice `json:"aliases" db:"aliases"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RepositorySkill tags a repository with a skill, derived from its
// primary language. Unique on (RepoID, SkillID); at most one
// IsPrimary=true per repo per category.
type RepositorySkill struct {
	ID              string  `json:"id" db:"id"`
	RepoID          string  `json:"repo_id" db:"repo_id"`
	SkillID         string  `json:"skill_id" db:"skill_id"`
	IsPrimary       bool    `json:"is_primary" db:"is_primary"`
	ConfidenceScore float64 `json:"confidence_score" db:"confidence_score"`
	Source          string  `json:"source" db:"source"` // e.g. "github_language"
}

// PersonSkill is a derived proficiency score for a person against a
// skill, aggregated across every contribution carrying that skill's
// primary repository tag. Unique on (PersonID, SkillID).
type PersonSkill struct {
	ID                string    `json:"id" db:"id"`
	PersonID          string    `json:"person_id" db:"person_id"`
	SkillID           string    `json:"skill_id" db:"skill_id"`
	ProficiencyScore  float64   `json:"proficiency_score" db:"proficiency_score"` // 0..100
	ConfidenceScore   float64   `json:"confidence_score" db:"confidence_score"`   // 0..1
	EvidenceSources   StringSlice `json:"evidence_sources" db:"evidence_sources"`   // e.g. {"repos", "headline", "csv"}
	MergedPRsCount    int       `json:"merged_prs_count" db:"merged_prs_count"`
	ReposUsingSkill   int       `json:"repos_using_skill" db:"repos_using_skill"`
	FirstSeen         *time.Time `json:"first_seen,omitempty" db:"first_seen"`
	LastUsed          *time.Time `json:"last_used,omitempty" db:"last_used"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// SharedRepoContribution is one entry in a CollaborationEdge's
// top_shared_repos list.
type SharedRepoContribution struct {
	RepoName      string `json:"repo_name"`
	Contributions int    `json:"contributions"`
}

// CollaborationEdge is a symmetric, aggregated relationship between two
// persons derived from co-contribution to shared repositories.
// Canonical ordering requires SrcPersonID < DstPersonID lexically.
type CollaborationEdge struct {
	ID                      string                    `json:"id" db:"id"`
	SrcPersonID             string                    `json:"src_person_id" db:"src_person_id"`
	DstPersonID             string                    `json:"dst_person_id" db:"dst_person_id"`
	SharedRepos             int                       `json:"shared_repos" db:"shared_repos"`
	SharedContributions     int                       `json:"shared_contributions" db:"shared_contributions"`
	FirstCollaborationDate  *time.Time                `json:"first_collaboration_date,omitempty" db:"first_collaboration_date"`
	LastCollaborationDate   *time.Time                `json:"last_collaboration_date,omitempty" db:"last_collaboration_date"`
	CollaborationMonths     float64                   `json:"collaboration_months" db:"collaboration_months"`
	RepoIDs                 StringSlice               `json:"repos_list" db:"repos_list"` // set semantics; repeat counts derive from TopSharedRepos
	TopSharedRepos          SharedRepoList            `json:"top_shared_repos" db:"top_shared_repos"`
	CollaborationStrength   *float64                  `json:"collaboration_strength,omitempty" db:"collaboration_strength"`
	UpdatedAt               time.Time                 `json:"updated_at" db:"updated_at"`
}

// Checkpoint is a durable resume marker for a long-running subsystem
// pass. Persisted outside the primary store so it survives a primary
// store outage.
type Checkpoint struct {
	Subsystem       string         `json:"subsystem"`
	LastProcessedID string         `json:"last_processed_id"`
	Tier            int            `json:"tier,omitempty"`
	Counters        map[string]int `json:"counters,omitempty"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
